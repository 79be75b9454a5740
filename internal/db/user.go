package db

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 用户角色取值
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 定义了用户模型
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Role      string    `gorm:"not null;default:user" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Posts    []Post    `json:"-"`
	Comments []Comment `json:"-"`

	// 管理端列表附带的统计字段，不落库
	PostsCount    int64 `gorm:"-" json:"posts_count,omitempty"`
	CommentsCount int64 `gorm:"-" json:"comments_count,omitempty"`
}

// IsAdmin 判断用户是否具有管理员角色。
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// EnsureAdmin 存在性检查：若提供的邮箱与密码均非空且不存在对应账号，
// 则创建一个 bcrypt 哈希的管理员用户，用于首次部署引导。
func EnsureAdmin(name, email, password string) error {
	trimmedName := strings.TrimSpace(name)
	trimmedEmail := strings.TrimSpace(email)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedEmail == "" || trimmedPassword == "" {
		return nil
	}
	if trimmedName == "" {
		trimmedName = "Admin"
	}

	if DB == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := DB.Where("email = ?", trimmedEmail).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		return DB.Create(&User{
			Name:     trimmedName,
			Email:    trimmedEmail,
			Password: string(hashed),
			Role:     RoleAdmin,
		}).Error
	}

	return nil
}
