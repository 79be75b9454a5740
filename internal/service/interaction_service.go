package service

import (
	"errors"
	"fmt"

	"github.com/pulsefeed/internal/db"
	"gorm.io/gorm"
)

// ErrUnknownInteraction 在互动类型不属于 like/save/repost 时返回。
var ErrUnknownInteraction = errors.New("unknown interaction kind")

// InteractionKind 枚举文章互动类型。
type InteractionKind string

const (
	KindLike   InteractionKind = "like"
	KindSave   InteractionKind = "save"
	KindRepost InteractionKind = "repost"
)

// ToggleResult 描述一次切换后的状态与最新计数。
type ToggleResult struct {
	Active bool  `json:"active"`
	Count  int64 `json:"count"`
}

// InteractionService 负责点赞/收藏/转发的切换与用户互动历史查询。
type InteractionService struct {
	db       *gorm.DB
	posts    *PostService
	activity *ActivityService
}

// NewInteractionService 构造 InteractionService。
func NewInteractionService(gdb *gorm.DB, posts *PostService, activity *ActivityService) *InteractionService {
	return &InteractionService{db: gdb, posts: posts, activity: activity}
}

type interactionMeta struct {
	model       func() any
	joinTable   string
	onAction    string
	offAction   string
	description string
}

func metaFor(kind InteractionKind) (*interactionMeta, error) {
	switch kind {
	case KindLike:
		return &interactionMeta{
			model:       func() any { return &db.Like{} },
			joinTable:   "likes",
			onAction:    "post_liked",
			offAction:   "post_unliked",
			description: "liked",
		}, nil
	case KindSave:
		return &interactionMeta{
			model:       func() any { return &db.Save{} },
			joinTable:   "saves",
			onAction:    "post_saved",
			offAction:   "post_unsaved",
			description: "saved",
		}, nil
	case KindRepost:
		return &interactionMeta{
			model:       func() any { return &db.Repost{} },
			joinTable:   "reposts",
			onAction:    "post_reposted",
			offAction:   "post_unreposted",
			description: "reposted",
		}, nil
	default:
		return nil, ErrUnknownInteraction
	}
}

// Toggle 翻转 (user, post, kind) 连接行的存在性并返回最新计数。
// 删除/插入与计数在同一事务内完成；并发重复插入由连接表的唯一索引兜底。
func (s *InteractionService) Toggle(actor Actor, kind InteractionKind, postID uint) (*ToggleResult, error) {
	meta, err := metaFor(kind)
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

	result := &ToggleResult{}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		existing := tx.Where("user_id = ? AND post_id = ?", actor.ID, post.ID).
			Delete(meta.model())
		if existing.Error != nil {
			return existing.Error
		}

		action := meta.offAction
		if existing.RowsAffected == 0 {
			// 行不存在，插入新互动
			row := meta.model()
			switch typed := row.(type) {
			case *db.Like:
				typed.UserID, typed.PostID = actor.ID, post.ID
			case *db.Save:
				typed.UserID, typed.PostID = actor.ID, post.ID
			case *db.Repost:
				typed.UserID, typed.PostID = actor.ID, post.ID
			}
			if err := tx.Create(row).Error; err != nil {
				return err
			}
			result.Active = true
			action = meta.onAction
		}

		if err := tx.Model(meta.model()).
			Where("post_id = ?", post.ID).
			Count(&result.Count).Error; err != nil {
			return err
		}

		return s.activity.Record(tx, actor, action,
			fmt.Sprintf("Post %s: %s", meta.description, post.Title))
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// IsActive 返回用户是否已对文章执行该互动。
func (s *InteractionService) IsActive(userID uint, kind InteractionKind, postID uint) (bool, error) {
	meta, err := metaFor(kind)
	if err != nil {
		return false, err
	}
	var count int64
	if err := s.db.Model(meta.model()).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListInteracted 返回用户执行过指定互动的文章，按互动时间倒序分页。
func (s *InteractionService) ListInteracted(userID uint, kind InteractionKind, page, perPage int) (*PostListResult, error) {
	meta, err := metaFor(kind)
	if err != nil {
		return nil, err
	}

	result := &PostListResult{Page: page, PerPage: perPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = 10
	}

	join := fmt.Sprintf("JOIN %s ON %s.post_id = posts.id", meta.joinTable, meta.joinTable)
	query := s.db.Model(&db.Post{}).
		Joins(join).
		Where(fmt.Sprintf("%s.user_id = ?", meta.joinTable), userID)

	if err := query.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	offset := (result.Page - 1) * result.PerPage
	if err := query.Preload("User").
		Order(fmt.Sprintf("%s.created_at desc", meta.joinTable)).
		Limit(result.PerPage).
		Offset(offset).
		Find(&result.Posts).Error; err != nil {
		return nil, err
	}

	if err := s.posts.attachCountsSlice(result.Posts); err != nil {
		return nil, err
	}

	result.TotalPages = totalPages(result.Total, result.PerPage)
	return result, nil
}
