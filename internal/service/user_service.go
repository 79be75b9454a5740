package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pulsefeed/internal/db"
	"github.com/pulsefeed/internal/storage"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNameRequired       = errors.New("name is required")
	ErrEmailInvalid       = errors.New("a valid email is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidRole        = errors.New("role must be user or admin")
	ErrLastAdmin          = errors.New("cannot remove the last admin user")
)

// UserService 负责账号注册、认证与管理端的用户运营。
type UserService struct {
	db       *gorm.DB
	activity *ActivityService
	images   *storage.ImageStore
}

// UserFilter 描述管理端用户列表的过滤条件。
type UserFilter struct {
	Search    string
	Role      string
	SortBy    string
	SortOrder string
	Page      int
	PerPage   int
}

// UserListResult 聚合分页后的用户数据。
type UserListResult struct {
	Users      []db.User
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// NewUserService 构造 UserService。
func NewUserService(gdb *gorm.DB, activity *ActivityService, images *storage.ImageStore) *UserService {
	return &UserService{db: gdb, activity: activity, images: images}
}

// Register 创建普通用户账号，密码使用 bcrypt 哈希存储。
func (s *UserService) Register(name, email, password string, meta Actor) (*db.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, ErrNameRequired
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrEmailInvalid
	}
	if len(password) < 8 {
		return nil, ErrPasswordTooShort
	}

	var count int64
	if err := s.db.Model(&db.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := db.User{
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     db.RoleUser,
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		actor := Actor{ID: user.ID, Role: user.Role, IP: meta.IP, UserAgent: meta.UserAgent}
		return s.activity.Record(tx, actor, "user_registered", fmt.Sprintf("User registered: %s", user.Email))
	}); err != nil {
		return nil, err
	}

	return &user, nil
}

// Authenticate 校验邮箱与密码，成功时返回用户。
func (s *UserService) Authenticate(email, password string) (*db.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user db.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// Get 根据 ID 获取用户。
func (s *UserService) Get(id uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

var userSortColumns = map[string]string{
	"created_at": "created_at",
	"name":       "name",
	"email":      "email",
	"role":       "role",
}

// AdminList 返回分页的用户列表，附带发帖与评论数，供管理端检索。
func (s *UserService) AdminList(filter UserFilter) (*UserListResult, error) {
	result := &UserListResult{Page: filter.Page, PerPage: filter.PerPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = 15
	}

	query := s.db.Model(&db.User{})
	if filter.Search != "" {
		like := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("lower(name) LIKE ? OR lower(email) LIKE ?", like, like)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}

	if err := query.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	orderBy := sortClause(userSortColumns, filter.SortBy, filter.SortOrder)
	offset := (result.Page - 1) * result.PerPage

	if err := query.Order(orderBy).Limit(result.PerPage).Offset(offset).Find(&result.Users).Error; err != nil {
		return nil, err
	}

	for i := range result.Users {
		user := &result.Users[i]
		if err := s.db.Model(&db.Post{}).Where("user_id = ?", user.ID).Count(&user.PostsCount).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&db.Comment{}).Where("user_id = ?", user.ID).Count(&user.CommentsCount).Error; err != nil {
			return nil, err
		}
	}

	result.TotalPages = totalPages(result.Total, result.PerPage)
	return result, nil
}

// UpdateRole 修改用户角色。将最后一名管理员降级会被拒绝，
// 计数与写入处于同一事务。
func (s *UserService) UpdateRole(actor Actor, userID uint, role string) (*db.User, error) {
	role = strings.TrimSpace(role)
	if role != db.RoleUser && role != db.RoleAdmin {
		return nil, ErrInvalidRole
	}

	var user db.User
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if user.Role == db.RoleAdmin && role != db.RoleAdmin {
			var admins int64
			if err := tx.Model(&db.User{}).Where("role = ?", db.RoleAdmin).Count(&admins).Error; err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdmin
			}
		}

		if err := tx.Model(&user).Update("role", role).Error; err != nil {
			return err
		}
		user.Role = role

		return s.activity.Record(tx, actor, "user_role_updated",
			fmt.Sprintf("Changed role of %s to %s", user.Email, role))
	}); err != nil {
		return nil, err
	}

	return &user, nil
}

// Delete 删除用户及其全部内容。删除最后一名管理员会被拒绝，
// 计数在提交删除前于同一事务内完成。
func (s *UserService) Delete(actor Actor, userID uint) error {
	var orphanedImages []string

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		var user db.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if user.Role == db.RoleAdmin {
			var admins int64
			if err := tx.Model(&db.User{}).Where("role = ?", db.RoleAdmin).Count(&admins).Error; err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdmin
			}
		}

		var postIDs []uint
		if err := tx.Model(&db.Post{}).Where("user_id = ?", user.ID).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if err := tx.Model(&db.Post{}).
				Where("user_id = ? AND image <> ''", user.ID).
				Pluck("image", &orphanedImages).Error; err != nil {
				return err
			}
			for _, model := range []any{&db.Comment{}, &db.Like{}, &db.Save{}, &db.Repost{}} {
				if err := tx.Where("post_id IN ?", postIDs).Delete(model).Error; err != nil {
					return err
				}
			}
			if err := tx.Delete(&db.Post{}, postIDs).Error; err != nil {
				return err
			}
		}

		for _, model := range []any{&db.Comment{}, &db.Like{}, &db.Save{}, &db.Repost{}, &db.AuthToken{}} {
			if err := tx.Where("user_id = ?", user.ID).Delete(model).Error; err != nil {
				return err
			}
		}

		if err := tx.Delete(&user).Error; err != nil {
			return err
		}

		return s.activity.Record(tx, actor, "user_force_deleted",
			fmt.Sprintf("Admin deleted user: %s", user.Email))
	}); err != nil {
		return err
	}

	for _, image := range orphanedImages {
		_ = s.images.Remove(image)
	}
	return nil
}
