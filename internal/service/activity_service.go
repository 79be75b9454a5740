package service

import (
	"fmt"
	"strings"

	"github.com/pulsefeed/internal/db"
	"gorm.io/gorm"
)

// Actor 描述发起请求的用户及其请求元信息，贯穿所有写操作。
type Actor struct {
	ID        uint
	Role      string
	IP        string
	UserAgent string
}

// IsAdmin 判断操作者是否具有管理员角色。
func (a Actor) IsAdmin() bool {
	return a.Role == db.RoleAdmin
}

// canModify 是全部属主检查共用的授权谓词：资源属主本人或管理员可以修改。
func canModify(actor Actor, ownerID uint) bool {
	return actor.IsAdmin() || actor.ID == ownerID
}

// ActivityService 负责审计日志的追加与管理端查询。
type ActivityService struct {
	db *gorm.DB
}

// ActivityLogFilter 描述管理端日志列表的过滤条件。
type ActivityLogFilter struct {
	Action    string
	UserID    uint
	FromDate  string
	ToDate    string
	SortBy    string
	SortOrder string
	Page      int
	PerPage   int
}

// ActivityLogListResult 聚合分页后的日志数据。
type ActivityLogListResult struct {
	Logs       []db.ActivityLog
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// NewActivityService 构造 ActivityService。
func NewActivityService(gdb *gorm.DB) *ActivityService {
	return &ActivityService{db: gdb}
}

// Record 在给定事务中追加一条审计记录。
// 追加与触发它的写操作处于同一事务：日志写入失败会连带回滚父操作。
func (s *ActivityService) Record(tx *gorm.DB, actor Actor, action, description string) error {
	entry := db.ActivityLog{
		UserID:      actor.ID,
		Action:      action,
		Description: description,
		IPAddress:   actor.IP,
		UserAgent:   actor.UserAgent,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

var activityLogSortColumns = map[string]string{
	"created_at": "created_at",
	"action":     "action",
	"user_id":    "user_id",
}

// List 返回分页的审计日志，供管理端查看。
func (s *ActivityService) List(filter ActivityLogFilter) (*ActivityLogListResult, error) {
	result := &ActivityLogListResult{Page: filter.Page, PerPage: filter.PerPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = 20
	}

	query := s.db.Model(&db.ActivityLog{})
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.FromDate != "" {
		query = query.Where("date(created_at) >= date(?)", filter.FromDate)
	}
	if filter.ToDate != "" {
		query = query.Where("date(created_at) <= date(?)", filter.ToDate)
	}

	if err := query.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	orderBy := sortClause(activityLogSortColumns, filter.SortBy, filter.SortOrder)
	offset := (result.Page - 1) * result.PerPage

	if err := query.Preload("User").
		Order(orderBy).
		Limit(result.PerPage).
		Offset(offset).
		Find(&result.Logs).Error; err != nil {
		return nil, err
	}

	result.TotalPages = totalPages(result.Total, result.PerPage)
	return result, nil
}

// sortClause 将排序参数限定在白名单列上，避免注入任意 SQL。
func sortClause(allowed map[string]string, sortBy, sortOrder string) string {
	column, ok := allowed[strings.ToLower(strings.TrimSpace(sortBy))]
	if !ok {
		column = "created_at"
	}
	order := "desc"
	if strings.EqualFold(strings.TrimSpace(sortOrder), "asc") {
		order = "asc"
	}
	return fmt.Sprintf("%s %s", column, order)
}

func totalPages(total int64, perPage int) int {
	if total == 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
