package service

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pulsefeed/internal/db"
)

func TestStatsService_DashboardCounts(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewStatsService(gdb)
	author := createTestUser(t, gdb, "author", db.RoleUser)

	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	lastMonth := now.AddDate(0, -1, 0)

	old := db.Post{UserID: author.ID, Title: "old", Content: "body", Status: db.PostStatusPublished, CreatedAt: lastMonth}
	fresh := db.Post{UserID: author.ID, Title: "fresh", Content: "body", Status: db.PostStatusPublished, CreatedAt: now}
	for _, post := range []*db.Post{&old, &fresh} {
		if err := gdb.Create(post).Error; err != nil {
			t.Fatalf("seed post: %v", err)
		}
	}
	if err := gdb.Create(&db.Like{UserID: author.ID, PostID: fresh.ID, CreatedAt: now}).Error; err != nil {
		t.Fatalf("seed like: %v", err)
	}

	stats, err := svc.Dashboard(now)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if stats.TotalPosts != 2 {
		t.Fatalf("expected 2 total posts, got %d", stats.TotalPosts)
	}
	if stats.NewPostsThisMonth != 1 {
		t.Fatalf("expected 1 post this month, got %d", stats.NewPostsThisMonth)
	}
	if stats.TotalUsers != 1 {
		t.Fatalf("expected 1 user, got %d", stats.TotalUsers)
	}
	if stats.TotalLikes != 1 || stats.NewLikesThisMonth != 1 {
		t.Fatalf("unexpected like counts: %+v", stats)
	}
}

func TestStatsService_ChartSeriesZeroFilled(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewStatsService(gdb).WithWindowDays(7)
	author := createTestUser(t, gdb, "author", db.RoleUser)

	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	twoDaysAgo := now.AddDate(0, 0, -2)

	post := db.Post{UserID: author.ID, Title: "charted", Content: "body", Status: db.PostStatusPublished, CreatedAt: twoDaysAgo}
	if err := gdb.Create(&post).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}

	data, err := svc.Chart(now)
	if err != nil {
		t.Fatalf("chart: %v", err)
	}

	if len(data.PostsOverTime) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(data.PostsOverTime))
	}

	var total int64
	for _, bucket := range data.PostsOverTime {
		total += bucket.Count
	}
	if total != 1 {
		t.Fatalf("expected a single counted post in window, got %d", total)
	}

	if data.PostsOverTime[4].Count != 1 {
		t.Fatalf("expected the post in the bucket two days back, series: %+v", data.PostsOverTime)
	}
}

func TestStatsService_ExportCSV(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewStatsService(gdb)
	author := createTestUser(t, gdb, "author", db.RoleUser)

	post := db.Post{UserID: author.ID, Title: "exported", Content: "body", Status: db.PostStatusPublished}
	if err := gdb.Create(&post).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}
	if err := gdb.Create(&db.Comment{UserID: author.ID, PostID: post.ID, Content: "note"}).Error; err != nil {
		t.Fatalf("seed comment: %v", err)
	}

	var buf bytes.Buffer
	if err := svc.ExportCSV(&buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// 表头 + 1 篇文章 + 1 个用户 + 1 条评论
	if len(lines) != 4 {
		t.Fatalf("expected 4 csv lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[1], "Post,") || !strings.Contains(lines[1], "exported") {
		t.Fatalf("unexpected post line: %s", lines[1])
	}
}

func TestActivityService_ListFilters(t *testing.T) {
	gdb := setupTestDB(t)
	activity := NewActivityService(gdb)
	user := createTestUser(t, gdb, "worker", db.RoleUser)

	actions := []string{"post_created", "post_liked", "post_liked"}
	for _, action := range actions {
		if err := activity.Record(gdb, asActor(user), action, "test entry"); err != nil {
			t.Fatalf("record %s: %v", action, err)
		}
	}

	liked, err := activity.List(ActivityLogFilter{Action: "post_liked", Page: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("list by action: %v", err)
	}
	if liked.Total != 2 {
		t.Fatalf("expected 2 post_liked entries, got %d", liked.Total)
	}

	all, err := activity.List(ActivityLogFilter{UserID: user.ID, Page: 1, PerPage: 2})
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if all.Total != 3 || len(all.Logs) != 2 || all.TotalPages != 2 {
		t.Fatalf("unexpected pagination: total=%d page_len=%d pages=%d", all.Total, len(all.Logs), all.TotalPages)
	}
}
