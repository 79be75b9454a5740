package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pulsefeed/internal/db"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound        = errors.New("comment not found")
	ErrCommentContentRequired = errors.New("comment content is required")
	ErrCommentContentTooLong  = errors.New("comment must not exceed 1000 characters")
)

// 评论长度上限（按字符计）
const maxCommentLength = 1000

// CommentService 负责评论的增删改查。
type CommentService struct {
	db       *gorm.DB
	activity *ActivityService
}

// CommentFilter 描述管理端评论列表的过滤条件。
type CommentFilter struct {
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	PerPage   int
}

// CommentListResult 聚合分页后的评论数据。
type CommentListResult struct {
	Comments   []db.Comment
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// NewCommentService 构造 CommentService。
func NewCommentService(gdb *gorm.DB, activity *ActivityService) *CommentService {
	return &CommentService{db: gdb, activity: activity}
}

func validateCommentContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrCommentContentRequired
	}
	if utf8.RuneCountInString(trimmed) > maxCommentLength {
		return "", ErrCommentContentTooLong
	}
	return trimmed, nil
}

// Create 在指定文章下新建评论。
func (s *CommentService) Create(actor Actor, postID uint, content string) (*db.Comment, error) {
	trimmed, err := validateCommentContent(content)
	if err != nil {
		return nil, err
	}

	var post db.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	comment := db.Comment{
		UserID:  actor.ID,
		PostID:  post.ID,
		Content: trimmed,
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return s.activity.Record(tx, actor, "comment_created",
			fmt.Sprintf("Commented on post: %s", post.Title))
	}); err != nil {
		return nil, err
	}

	if err := s.db.Preload("User").First(&comment, comment.ID).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// Update 修改评论内容，仅属主或管理员可操作。
func (s *CommentService) Update(actor Actor, commentID uint, content string) (*db.Comment, error) {
	trimmed, err := validateCommentContent(content)
	if err != nil {
		return nil, err
	}

	var comment db.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	if !canModify(actor, comment.UserID) {
		return nil, ErrForbidden
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&comment).Update("content", trimmed).Error; err != nil {
			return err
		}
		return s.activity.Record(tx, actor, "comment_updated",
			fmt.Sprintf("Updated comment %d", comment.ID))
	}); err != nil {
		return nil, err
	}

	if err := s.db.Preload("User").First(&comment, comment.ID).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// Delete 删除评论，仅属主或管理员可操作。
func (s *CommentService) Delete(actor Actor, commentID uint) error {
	return s.deleteComment(actor, commentID, false)
}

// ForceDelete 供管理端强制删除评论，跳过属主检查并以独立动作记录审计。
func (s *CommentService) ForceDelete(actor Actor, commentID uint) error {
	return s.deleteComment(actor, commentID, true)
}

func (s *CommentService) deleteComment(actor Actor, commentID uint, force bool) error {
	var comment db.Comment
	if err := s.db.Preload("User").First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}

	if force {
		if !actor.IsAdmin() {
			return ErrForbidden
		}
	} else if !canModify(actor, comment.UserID) {
		return ErrForbidden
	}

	action := "comment_deleted"
	description := fmt.Sprintf("Deleted comment %d", comment.ID)
	if force {
		action = "comment_force_deleted"
		description = fmt.Sprintf("Admin deleted comment by %s", comment.User.Name)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&db.Comment{}, comment.ID).Error; err != nil {
			return err
		}
		return s.activity.Record(tx, actor, action, description)
	})
}

// ListForPost 返回指定文章下的评论，按时间倒序分页。
func (s *CommentService) ListForPost(postID uint, page, perPage int) (*CommentListResult, error) {
	var post db.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	result := &CommentListResult{Page: page, PerPage: perPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = 20
	}

	query := s.db.Model(&db.Comment{}).Where("post_id = ?", post.ID)
	if err := query.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	offset := (result.Page - 1) * result.PerPage
	if err := query.Preload("User").
		Order("created_at desc").
		Limit(result.PerPage).
		Offset(offset).
		Find(&result.Comments).Error; err != nil {
		return nil, err
	}

	result.TotalPages = totalPages(result.Total, result.PerPage)
	return result, nil
}

var commentSortColumns = map[string]string{
	"created_at": "comments.created_at",
	"updated_at": "comments.updated_at",
}

// AdminList 返回管理端评论列表，支持按内容、作者名与文章标题检索。
func (s *CommentService) AdminList(filter CommentFilter) (*CommentListResult, error) {
	result := &CommentListResult{Page: filter.Page, PerPage: filter.PerPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = 15
	}

	query := s.db.Model(&db.Comment{}).
		Joins("JOIN users ON users.id = comments.user_id").
		Joins("JOIN posts ON posts.id = comments.post_id")
	if filter.Search != "" {
		like := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("lower(comments.content) LIKE ? OR lower(users.name) LIKE ? OR lower(posts.title) LIKE ?", like, like, like)
	}

	if err := query.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	orderBy := sortClause(commentSortColumns, filter.SortBy, filter.SortOrder)
	offset := (result.Page - 1) * result.PerPage

	if err := query.Preload("User").Preload("Post").
		Order(orderBy).
		Limit(result.PerPage).
		Offset(offset).
		Find(&result.Comments).Error; err != nil {
		return nil, err
	}

	result.TotalPages = totalPages(result.Total, result.PerPage)
	return result, nil
}
