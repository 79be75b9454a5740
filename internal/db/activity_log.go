package db

import "time"

// ActivityLog 记录每次写操作的审计信息，只追加，应用逻辑不修改不删除。
type ActivityLog struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	UserID      uint      `gorm:"index" json:"user_id"`
	User        User      `json:"user"`
	Action      string    `gorm:"index;not null" json:"action"`
	Description string    `json:"description"`
	IPAddress   string    `json:"ip_address"`
	UserAgent   string    `json:"user_agent"`
	CreatedAt   time.Time `json:"created_at"`
}
