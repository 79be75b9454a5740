package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pulsefeed/internal/db"
	"gorm.io/gorm"
)

const defaultChartWindowDays = 30

// StatsService 负责管理端的只读聚合统计。
type StatsService struct {
	db         *gorm.DB
	windowDays int
}

// NewStatsService 创建 StatsService，默认时间序列窗口为 30 天。
func NewStatsService(gdb *gorm.DB) *StatsService {
	return &StatsService{db: gdb, windowDays: defaultChartWindowDays}
}

// WithWindowDays 允许调整时间序列的统计窗口。
func (s *StatsService) WithWindowDays(days int) *StatsService {
	if days > 0 {
		s.windowDays = days
	}
	return s
}

// DashboardStats 汇总仪表盘的总量与本月增量。
type DashboardStats struct {
	TotalPosts           int64 `json:"totalPosts"`
	TotalUsers           int64 `json:"totalUsers"`
	TotalComments        int64 `json:"totalComments"`
	TotalLikes           int64 `json:"totalLikes"`
	NewPostsThisMonth    int64 `json:"newPostsThisMonth"`
	NewUsersThisMonth    int64 `json:"newUsersThisMonth"`
	NewCommentsThisMonth int64 `json:"newCommentsThisMonth"`
	NewLikesThisMonth    int64 `json:"newLikesThisMonth"`
}

// DailyCount 表示时间序列中的单日计数。
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// ChartData 聚合仪表盘图表所需的时间序列与互动总量。
type ChartData struct {
	PostsOverTime    []DailyCount `json:"postsOverTime"`
	LikesOverTime    []DailyCount `json:"likesOverTime"`
	CommentsOverTime []DailyCount `json:"commentsOverTime"`
	TotalSaves       int64        `json:"totalSaves"`
	TotalReposts     int64        `json:"totalReposts"`
}

// Dashboard 返回各实体的总量及当前自然月内的新增量。
func (s *StatsService) Dashboard(now time.Time) (*DashboardStats, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	stats := &DashboardStats{}
	totals := []struct {
		model any
		total *int64
		month *int64
	}{
		{&db.Post{}, &stats.TotalPosts, &stats.NewPostsThisMonth},
		{&db.User{}, &stats.TotalUsers, &stats.NewUsersThisMonth},
		{&db.Comment{}, &stats.TotalComments, &stats.NewCommentsThisMonth},
		{&db.Like{}, &stats.TotalLikes, &stats.NewLikesThisMonth},
	}

	for _, entry := range totals {
		if err := s.db.Model(entry.model).Count(entry.total).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(entry.model).
			Where("created_at >= ?", monthStart).
			Count(entry.month).Error; err != nil {
			return nil, err
		}
	}

	return stats, nil
}

// Chart 返回固定长度的逐日计数序列，缺失的日期补零。
func (s *StatsService) Chart(now time.Time) (*ChartData, error) {
	data := &ChartData{}

	var err error
	if data.PostsOverTime, err = s.dailySeries(&db.Post{}, now); err != nil {
		return nil, err
	}
	if data.LikesOverTime, err = s.dailySeries(&db.Like{}, now); err != nil {
		return nil, err
	}
	if data.CommentsOverTime, err = s.dailySeries(&db.Comment{}, now); err != nil {
		return nil, err
	}

	if err := s.db.Model(&db.Save{}).Count(&data.TotalSaves).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&db.Repost{}).Count(&data.TotalReposts).Error; err != nil {
		return nil, err
	}

	return data, nil
}

func (s *StatsService) dailySeries(model any, now time.Time) ([]DailyCount, error) {
	start := now.AddDate(0, 0, -(s.windowDays - 1))
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())

	var rows []struct {
		Day   string
		Count int64
	}
	if err := s.db.Model(model).
		Select("date(created_at) AS day, COUNT(*) AS count").
		Where("created_at >= ?", startDay).
		Group("date(created_at)").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	byDay := make(map[string]int64, len(rows))
	for _, row := range rows {
		byDay[row.Day] = row.Count
	}

	series := make([]DailyCount, 0, s.windowDays)
	for i := 0; i < s.windowDays; i++ {
		day := startDay.AddDate(0, 0, i)
		series = append(series, DailyCount{
			Date:  day.Format("Jan 2"),
			Count: byDay[day.Format("2006-01-02")],
		})
	}

	return series, nil
}

// ExportCSV 将文章、用户与评论写出为 CSV 行，供管理端导出。
func (s *StatsService) ExportCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"Type", "ID", "Title/Name", "Author/User", "Created At", "Status"}); err != nil {
		return err
	}

	var posts []db.Post
	if err := s.db.Preload("User").FindInBatches(&posts, 100, func(tx *gorm.DB, _ int) error {
		for _, post := range posts {
			if err := writer.Write([]string{
				"Post",
				strconv.FormatUint(uint64(post.ID), 10),
				post.Title,
				post.User.Name,
				post.CreatedAt.Format("2006-01-02 15:04:05"),
				post.Status,
			}); err != nil {
				return err
			}
		}
		return nil
	}).Error; err != nil {
		return err
	}

	var users []db.User
	if err := s.db.FindInBatches(&users, 100, func(tx *gorm.DB, _ int) error {
		for _, user := range users {
			if err := writer.Write([]string{
				"User",
				strconv.FormatUint(uint64(user.ID), 10),
				user.Name,
				user.Email,
				user.CreatedAt.Format("2006-01-02 15:04:05"),
				user.Role,
			}); err != nil {
				return err
			}
		}
		return nil
	}).Error; err != nil {
		return err
	}

	var comments []db.Comment
	if err := s.db.Preload("User").FindInBatches(&comments, 100, func(tx *gorm.DB, _ int) error {
		for _, comment := range comments {
			excerpt := comment.Content
			if runes := []rune(excerpt); len(runes) > 50 {
				excerpt = fmt.Sprintf("%s...", string(runes[:50]))
			}
			if err := writer.Write([]string{
				"Comment",
				strconv.FormatUint(uint64(comment.ID), 10),
				excerpt,
				comment.User.Name,
				comment.CreatedAt.Format("2006-01-02 15:04:05"),
				"Published",
			}); err != nil {
				return err
			}
		}
		return nil
	}).Error; err != nil {
		return err
	}

	writer.Flush()
	return writer.Error()
}
