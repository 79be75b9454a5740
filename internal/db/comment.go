package db

import "time"

// Comment 定义了评论模型
type Comment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	User      User      `json:"user"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	Post      Post      `json:"-"`
	Content   string    `gorm:"size:1000;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
