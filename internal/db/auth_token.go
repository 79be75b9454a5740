package db

import "time"

// AuthToken 记录已签发的访问令牌。行存在即令牌有效，
// 注销时删除对应行使令牌立即失效。
type AuthToken struct {
	ID        string    `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
