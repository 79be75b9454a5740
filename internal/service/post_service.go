package service

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"unicode/utf8"

	"github.com/pulsefeed/internal/db"
	"github.com/pulsefeed/internal/storage"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound      = errors.New("post not found")
	ErrForbidden         = errors.New("operation not permitted")
	ErrTitleRequired     = errors.New("title is required")
	ErrTitleTooLong      = errors.New("title must not exceed 255 characters")
	ErrContentRequired   = errors.New("content is required")
	ErrInvalidPostStatus = errors.New("status must be draft or published")
)

// PostService 负责文章的增删改查、配图存储与互动计数聚合。
type PostService struct {
	db       *gorm.DB
	activity *ActivityService
	images   *storage.ImageStore
}

// PostInput 定义创建文章时接受的字段。
type PostInput struct {
	Title   string
	Content string
	Status  string
	Image   *multipart.FileHeader
}

// PostUpdate 定义更新文章时接受的字段，nil 表示保持原值。
type PostUpdate struct {
	Title   *string
	Content *string
	Status  *string
	Image   *multipart.FileHeader
}

// PostFilter 描述文章列表的过滤条件。
type PostFilter struct {
	Search    string
	UserID    uint
	Status    string
	SortBy    string
	SortOrder string
	Page      int
	PerPage   int
}

// PostListResult 聚合分页后的文章数据。
type PostListResult struct {
	Posts      []db.Post
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// NewPostService 构造 PostService。
func NewPostService(gdb *gorm.DB, activity *ActivityService, images *storage.ImageStore) *PostService {
	return &PostService{db: gdb, activity: activity, images: images}
}

// Create 校验输入并创建文章，可选保存配图。
func (s *PostService) Create(actor Actor, input PostInput) (*db.Post, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)

	if title == "" {
		return nil, ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > 255 {
		return nil, ErrTitleTooLong
	}
	if content == "" {
		return nil, ErrContentRequired
	}

	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = db.PostStatusDraft
	}
	if status != db.PostStatusDraft && status != db.PostStatusPublished {
		return nil, ErrInvalidPostStatus
	}

	var imageName string
	if input.Image != nil {
		saved, err := s.images.Save(input.Image)
		if err != nil {
			return nil, err
		}
		imageName = saved
	}

	post := db.Post{
		UserID:  actor.ID,
		Title:   title,
		Content: content,
		Image:   imageName,
		Status:  status,
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		return s.activity.Record(tx, actor, "post_created", fmt.Sprintf("Created post: %s", post.Title))
	}); err != nil {
		// 事务失败时清理已落盘的图片
		if imageName != "" {
			_ = s.images.Remove(imageName)
		}
		return nil, err
	}

	return s.Get(post.ID, &actor)
}

// Update 更新文章，仅属主或管理员可操作。
// 提供新配图时旧图在提交后删除。
func (s *PostService) Update(actor Actor, id uint, update PostUpdate) (*db.Post, error) {
	var existing db.Post
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if !canModify(actor, existing.UserID) {
		return nil, ErrForbidden
	}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		if utf8.RuneCountInString(title) > 255 {
			return nil, ErrTitleTooLong
		}
		existing.Title = title
	}
	if update.Content != nil {
		content := strings.TrimSpace(*update.Content)
		if content == "" {
			return nil, ErrContentRequired
		}
		existing.Content = content
	}
	if update.Status != nil {
		status := strings.TrimSpace(*update.Status)
		if status != db.PostStatusDraft && status != db.PostStatusPublished {
			return nil, ErrInvalidPostStatus
		}
		existing.Status = status
	}

	previousImage := ""
	if update.Image != nil {
		saved, err := s.images.Save(update.Image)
		if err != nil {
			return nil, err
		}
		previousImage = existing.Image
		existing.Image = saved
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		return s.activity.Record(tx, actor, "post_updated", fmt.Sprintf("Updated post: %s", existing.Title))
	}); err != nil {
		if update.Image != nil {
			_ = s.images.Remove(existing.Image)
		}
		return nil, err
	}

	if previousImage != "" {
		_ = s.images.Remove(previousImage)
	}

	return s.Get(existing.ID, &actor)
}

// Delete 删除文章及其评论与互动记录，仅属主或管理员可操作。
func (s *PostService) Delete(actor Actor, id uint) error {
	return s.delete(actor, id, false)
}

// ForceDelete 供管理端强制删除文章，跳过属主检查并以独立动作记录审计。
func (s *PostService) ForceDelete(actor Actor, id uint) error {
	return s.delete(actor, id, true)
}

func (s *PostService) delete(actor Actor, id uint, force bool) error {
	var post db.Post
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return err
	}

	if force {
		if !actor.IsAdmin() {
			return ErrForbidden
		}
	} else if !canModify(actor, post.UserID) {
		return ErrForbidden
	}

	action := "post_deleted"
	description := fmt.Sprintf("Deleted post: %s", post.Title)
	if force {
		action = "post_force_deleted"
		description = fmt.Sprintf("Admin deleted post: %s", post.Title)
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&db.Comment{}, &db.Like{}, &db.Save{}, &db.Repost{}} {
			if err := tx.Where("post_id = ?", post.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&post).Error; err != nil {
			return err
		}
		return s.activity.Record(tx, actor, action, description)
	}); err != nil {
		return err
	}

	if post.Image != "" {
		_ = s.images.Remove(post.Image)
	}
	return nil
}

// Get 返回单篇文章。草稿仅属主或管理员可见，其余请求视为不存在。
func (s *PostService) Get(id uint, viewer *Actor) (*db.Post, error) {
	var post db.Post
	if err := s.db.Preload("User").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if post.Status != db.PostStatusPublished {
		if viewer == nil || !canModify(*viewer, post.UserID) {
			return nil, ErrPostNotFound
		}
	}

	if err := s.attachCountsPtr(&post); err != nil {
		return nil, err
	}
	return &post, nil
}

var postSortColumns = map[string]string{
	"created_at": "posts.created_at",
	"updated_at": "posts.updated_at",
	"title":      "posts.title",
	"status":     "posts.status",
}

// List 返回分页的文章列表。未指定状态时只返回已发布文章。
func (s *PostService) List(filter PostFilter) (*PostListResult, error) {
	if filter.Status == "" {
		filter.Status = db.PostStatusPublished
	}
	return s.list(filter, true)
}

// ListMine 返回指定用户的全部文章（含草稿）。
func (s *PostService) ListMine(ownerID uint, page, perPage int) (*PostListResult, error) {
	return s.list(PostFilter{UserID: ownerID, Page: page, PerPage: perPage}, false)
}

// AdminList 返回管理端文章列表，支持按状态过滤与作者名检索。
func (s *PostService) AdminList(filter PostFilter) (*PostListResult, error) {
	result := &PostListResult{Page: filter.Page, PerPage: filter.PerPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = 15
	}

	query := s.db.Model(&db.Post{}).
		Joins("JOIN users ON users.id = posts.user_id")
	if filter.Search != "" {
		like := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("lower(posts.title) LIKE ? OR lower(posts.content) LIKE ? OR lower(users.name) LIKE ?", like, like, like)
	}
	if filter.Status != "" {
		query = query.Where("posts.status = ?", filter.Status)
	}

	if err := query.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	orderBy := sortClause(postSortColumns, filter.SortBy, filter.SortOrder)
	offset := (result.Page - 1) * result.PerPage

	if err := query.Preload("User").
		Order(orderBy).
		Limit(result.PerPage).
		Offset(offset).
		Find(&result.Posts).Error; err != nil {
		return nil, err
	}

	if err := s.attachCountsSlice(result.Posts); err != nil {
		return nil, err
	}

	result.TotalPages = totalPages(result.Total, result.PerPage)
	return result, nil
}

// Recent 返回最近创建的文章，供管理端仪表盘展示。
func (s *PostService) Recent(limit int) ([]db.Post, error) {
	if limit <= 0 {
		limit = 10
	}
	var posts []db.Post
	if err := s.db.Preload("User").
		Order("created_at desc").
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	if err := s.attachCountsSlice(posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *PostService) list(filter PostFilter, applyStatus bool) (*PostListResult, error) {
	result := &PostListResult{Page: filter.Page, PerPage: filter.PerPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = 10
	}

	query := s.db.Model(&db.Post{})
	if applyStatus && filter.Status != "" {
		query = query.Where("posts.status = ?", filter.Status)
	}
	if filter.UserID != 0 {
		query = query.Where("posts.user_id = ?", filter.UserID)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("lower(posts.title) LIKE ? OR lower(posts.content) LIKE ?", like, like)
	}

	if err := query.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	offset := (result.Page - 1) * result.PerPage

	if err := query.Preload("User").
		Order("posts.created_at desc").
		Limit(result.PerPage).
		Offset(offset).
		Find(&result.Posts).Error; err != nil {
		return nil, err
	}

	if err := s.attachCountsSlice(result.Posts); err != nil {
		return nil, err
	}

	result.TotalPages = totalPages(result.Total, result.PerPage)
	return result, nil
}

// attachCountsSlice 为一批文章填充互动与评论计数。
func (s *PostService) attachCountsSlice(posts []db.Post) error {
	for i := range posts {
		if err := s.attachCountsPtr(&posts[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostService) attachCountsPtr(post *db.Post) error {
	counters := []struct {
		model any
		dest  *int64
	}{
		{&db.Like{}, &post.LikesCount},
		{&db.Save{}, &post.SavesCount},
		{&db.Repost{}, &post.RepostsCount},
		{&db.Comment{}, &post.CommentsCount},
	}
	for _, counter := range counters {
		if err := s.db.Model(counter.model).Where("post_id = ?", post.ID).Count(counter.dest).Error; err != nil {
			return err
		}
	}
	return nil
}
