package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/pulsefeed/internal/db"
	"gorm.io/gorm"
)

func newCommentFixtures(t *testing.T, gdb *gorm.DB) (*CommentService, *db.Post, db.User) {
	t.Helper()
	activity := NewActivityService(gdb)
	posts := NewPostService(gdb, activity, newTestImageStore(t))
	comments := NewCommentService(gdb, activity)

	author := createTestUser(t, gdb, "author", db.RoleUser)
	post, err := posts.Create(asActor(author), PostInput{Title: "topic", Content: "body", Status: db.PostStatusPublished})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	return comments, post, author
}

func TestCommentService_CreateValidation(t *testing.T) {
	gdb := setupTestDB(t)
	comments, post, author := newCommentFixtures(t, gdb)

	if _, err := comments.Create(asActor(author), post.ID, "   "); !errors.Is(err, ErrCommentContentRequired) {
		t.Fatalf("expected ErrCommentContentRequired, got %v", err)
	}

	long := strings.Repeat("a", 1001)
	if _, err := comments.Create(asActor(author), post.ID, long); !errors.Is(err, ErrCommentContentTooLong) {
		t.Fatalf("expected ErrCommentContentTooLong, got %v", err)
	}

	boundary := strings.Repeat("b", 1000)
	if _, err := comments.Create(asActor(author), post.ID, boundary); err != nil {
		t.Fatalf("1000-character comment should pass: %v", err)
	}

	if _, err := comments.Create(asActor(author), 9999, "hello"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestCommentService_UpdateAuthorization(t *testing.T) {
	gdb := setupTestDB(t)
	comments, post, author := newCommentFixtures(t, gdb)
	stranger := createTestUser(t, gdb, "stranger", db.RoleUser)
	admin := createTestUser(t, gdb, "admin", db.RoleAdmin)

	comment, err := comments.Create(asActor(author), post.ID, "original")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}

	if _, err := comments.Update(asActor(stranger), comment.ID, "hijacked"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	var unchanged db.Comment
	if err := gdb.First(&unchanged, comment.ID).Error; err != nil {
		t.Fatalf("reload comment: %v", err)
	}
	if unchanged.Content != "original" {
		t.Fatalf("comment was modified by forbidden update: %s", unchanged.Content)
	}

	if _, err := comments.Update(asActor(admin), comment.ID, "moderated"); err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if _, err := comments.Update(asActor(author), comment.ID, "revised"); err != nil {
		t.Fatalf("owner update: %v", err)
	}
}

func TestCommentService_DeleteAuthorizationAndLog(t *testing.T) {
	gdb := setupTestDB(t)
	comments, post, author := newCommentFixtures(t, gdb)
	stranger := createTestUser(t, gdb, "stranger", db.RoleUser)

	comment, err := comments.Create(asActor(author), post.ID, "to delete")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}

	if err := comments.Delete(asActor(stranger), comment.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if err := comments.Delete(asActor(author), comment.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if count := activityCount(t, gdb, "comment_deleted"); count != 1 {
		t.Fatalf("expected one comment_deleted log, got %d", count)
	}
}

func TestCommentService_ForceDeleteLogsDistinctAction(t *testing.T) {
	gdb := setupTestDB(t)
	comments, post, author := newCommentFixtures(t, gdb)
	admin := createTestUser(t, gdb, "admin", db.RoleAdmin)

	comment, err := comments.Create(asActor(author), post.ID, "moderate me")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}

	if err := comments.ForceDelete(asActor(author), comment.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin, got %v", err)
	}

	if err := comments.ForceDelete(asActor(admin), comment.ID); err != nil {
		t.Fatalf("admin force delete: %v", err)
	}
	if count := activityCount(t, gdb, "comment_force_deleted"); count != 1 {
		t.Fatalf("expected one comment_force_deleted log, got %d", count)
	}
}

func TestCommentService_ListForPost(t *testing.T) {
	gdb := setupTestDB(t)
	comments, post, author := newCommentFixtures(t, gdb)

	for i := 0; i < 5; i++ {
		if _, err := comments.Create(asActor(author), post.ID, "hello"); err != nil {
			t.Fatalf("create comment %d: %v", i, err)
		}
	}

	list, err := comments.ListForPost(post.ID, 1, 3)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if list.Total != 5 || len(list.Comments) != 3 || list.TotalPages != 2 {
		t.Fatalf("unexpected pagination: total=%d page_len=%d pages=%d", list.Total, len(list.Comments), list.TotalPages)
	}
}
