package db

import "time"

// 文章状态取值
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// Post 定义了文章模型
type Post struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	User      User      `json:"user"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"not null" json:"content"`
	Image     string    `json:"image,omitempty"`
	Status    string    `gorm:"not null;default:draft" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Comments []Comment `json:"comments,omitempty"`
	Likes    []Like    `json:"-"`
	Saves    []Save    `json:"-"`
	Reposts  []Repost  `json:"-"`

	// 列表与详情响应附带的统计字段，不落库
	LikesCount    int64 `gorm:"-" json:"likes_count"`
	SavesCount    int64 `gorm:"-" json:"saves_count"`
	RepostsCount  int64 `gorm:"-" json:"reposts_count"`
	CommentsCount int64 `gorm:"-" json:"comments_count"`

	// 详情响应中的渲染结果，不落库
	ContentHTML string `gorm:"-" json:"content_html,omitempty"`
}
