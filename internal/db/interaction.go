package db

import "time"

// Like 表示用户对文章的点赞，(user_id, post_id) 全局唯一。
// 唯一索引是切换语义的正确性保障：并发的重复插入会在约束层被拒绝。
type Like struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Save 表示用户对文章的收藏，(user_id, post_id) 全局唯一。
type Save struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_saves_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_saves_user_post" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Repost 表示用户对文章的转发，(user_id, post_id) 全局唯一。
type Repost struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_reposts_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_reposts_user_post" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
