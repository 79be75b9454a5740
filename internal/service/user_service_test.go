package service

import (
	"errors"
	"testing"

	"github.com/pulsefeed/internal/db"
	"gorm.io/gorm"
)

func newUserService(t *testing.T, gdb *gorm.DB) *UserService {
	t.Helper()
	return NewUserService(gdb, NewActivityService(gdb), newTestImageStore(t))
}

func TestUserService_RegisterValidation(t *testing.T) {
	gdb := setupTestDB(t)
	svc := newUserService(t, gdb)
	meta := Actor{IP: "127.0.0.1", UserAgent: "test-agent"}

	cases := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"", "a@example.com", "password1", ErrNameRequired},
		{"Alice", "not-an-email", "password1", ErrEmailInvalid},
		{"Alice", "a@example.com", "short", ErrPasswordTooShort},
	}
	for _, tc := range cases {
		if _, err := svc.Register(tc.name, tc.email, tc.password, meta); !errors.Is(err, tc.want) {
			t.Fatalf("Register(%q,%q): expected %v, got %v", tc.name, tc.email, tc.want, err)
		}
	}

	if _, err := svc.Register("Alice", "a@example.com", "password1", meta); err != nil {
		t.Fatalf("valid registration: %v", err)
	}
	if _, err := svc.Register("Alice Again", "A@Example.com", "password1", meta); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken for duplicate email, got %v", err)
	}

	if count := activityCount(t, gdb, "user_registered"); count != 1 {
		t.Fatalf("expected one user_registered log, got %d", count)
	}
}

func TestUserService_Authenticate(t *testing.T) {
	gdb := setupTestDB(t)
	svc := newUserService(t, gdb)
	meta := Actor{IP: "127.0.0.1", UserAgent: "test-agent"}

	registered, err := svc.Register("Bob", "bob@example.com", "password1", meta)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := svc.Authenticate("bob@example.com", "password1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != registered.ID {
		t.Fatalf("authenticated wrong user: %d", user.ID)
	}

	if _, err := svc.Authenticate("bob@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate("missing@example.com", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestUserService_DeleteLastAdminRejected(t *testing.T) {
	gdb := setupTestDB(t)
	svc := newUserService(t, gdb)
	admin := createTestUser(t, gdb, "admin", db.RoleAdmin)

	if err := svc.Delete(asActor(admin), admin.ID); !errors.Is(err, ErrLastAdmin) {
		t.Fatalf("expected ErrLastAdmin, got %v", err)
	}

	var remaining int64
	if err := gdb.Model(&db.User{}).Where("role = ?", db.RoleAdmin).Count(&remaining).Error; err != nil {
		t.Fatalf("count admins: %v", err)
	}
	if remaining != 1 {
		t.Fatalf("admin should still exist, found %d", remaining)
	}
}

func TestUserService_DeleteOneOfTwoAdminsSucceeds(t *testing.T) {
	gdb := setupTestDB(t)
	svc := newUserService(t, gdb)
	first := createTestUser(t, gdb, "admin-one", db.RoleAdmin)
	second := createTestUser(t, gdb, "admin-two", db.RoleAdmin)

	if err := svc.Delete(asActor(first), second.ID); err != nil {
		t.Fatalf("delete second admin: %v", err)
	}
	if count := activityCount(t, gdb, "user_force_deleted"); count != 1 {
		t.Fatalf("expected one user_force_deleted log, got %d", count)
	}
}

func TestUserService_DeleteCascadesContent(t *testing.T) {
	gdb := setupTestDB(t)
	svc := newUserService(t, gdb)
	admin := createTestUser(t, gdb, "admin", db.RoleAdmin)
	target := createTestUser(t, gdb, "target", db.RoleUser)

	post := db.Post{UserID: target.ID, Title: "mine", Content: "body", Status: db.PostStatusPublished}
	if err := gdb.Create(&post).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}
	if err := gdb.Create(&db.Comment{UserID: target.ID, PostID: post.ID, Content: "self reply"}).Error; err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	if err := gdb.Create(&db.Like{UserID: target.ID, PostID: post.ID}).Error; err != nil {
		t.Fatalf("seed like: %v", err)
	}

	if err := svc.Delete(asActor(admin), target.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	for _, model := range []any{&db.Post{}, &db.Comment{}, &db.Like{}} {
		var count int64
		if err := gdb.Model(model).Where("user_id = ?", target.ID).Count(&count).Error; err != nil {
			t.Fatalf("count rows: %v", err)
		}
		if count != 0 {
			t.Fatalf("expected no %T rows left for deleted user, got %d", model, count)
		}
	}
}

func TestUserService_UpdateRoleLastAdminRejected(t *testing.T) {
	gdb := setupTestDB(t)
	svc := newUserService(t, gdb)
	admin := createTestUser(t, gdb, "admin", db.RoleAdmin)

	if _, err := svc.UpdateRole(asActor(admin), admin.ID, db.RoleUser); !errors.Is(err, ErrLastAdmin) {
		t.Fatalf("expected ErrLastAdmin on demotion, got %v", err)
	}

	other := createTestUser(t, gdb, "other-admin", db.RoleAdmin)
	updated, err := svc.UpdateRole(asActor(admin), other.ID, db.RoleUser)
	if err != nil {
		t.Fatalf("demote one of two admins: %v", err)
	}
	if updated.Role != db.RoleUser {
		t.Fatalf("expected demoted role, got %s", updated.Role)
	}

	if _, err := svc.UpdateRole(asActor(admin), other.ID, "owner"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestUserService_AdminListFilters(t *testing.T) {
	gdb := setupTestDB(t)
	svc := newUserService(t, gdb)
	createTestUser(t, gdb, "carol", db.RoleAdmin)
	createTestUser(t, gdb, "dave", db.RoleUser)

	byRole, err := svc.AdminList(UserFilter{Role: db.RoleAdmin, Page: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("list by role: %v", err)
	}
	if byRole.Total != 1 || byRole.Users[0].Name != "carol" {
		t.Fatalf("expected only carol, got total=%d", byRole.Total)
	}

	bySearch, err := svc.AdminList(UserFilter{Search: "DAV", Page: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("list by search: %v", err)
	}
	if bySearch.Total != 1 || bySearch.Users[0].Name != "dave" {
		t.Fatalf("expected only dave, got total=%d", bySearch.Total)
	}
}
