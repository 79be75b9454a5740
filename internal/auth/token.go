package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pulsefeed/internal/db"
	"gorm.io/gorm"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenRevoked = errors.New("token revoked")
)

// Claims 为访问令牌的载荷，jti 与 auth_tokens 表主键一一对应。
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager 负责签发、校验与吊销访问令牌。
// 令牌除签名校验外还要求 auth_tokens 表中存在对应记录，
// 因此注销后的令牌立即失效。
type TokenManager struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
}

// NewTokenManager 构造 TokenManager。
func NewTokenManager(gdb *gorm.DB, secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{db: gdb, secret: []byte(secret), ttl: ttl}
}

// Issue 为用户签发访问令牌并登记到 auth_tokens 表。
func (m *TokenManager) Issue(user *db.User) (string, error) {
	now := time.Now()
	jti := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Subject:   "access",
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", err
	}

	record := db.AuthToken{
		ID:        jti,
		UserID:    user.ID,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.db.Create(&record).Error; err != nil {
		return "", err
	}

	return signed, nil
}

// Verify 校验令牌签名与登记状态，返回载荷。
func (m *TokenManager) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.ID == "" {
		return nil, ErrTokenInvalid
	}

	var record db.AuthToken
	if err := m.db.First(&record, "id = ?", claims.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenRevoked
		}
		return nil, err
	}

	return claims, nil
}

// Revoke 删除令牌登记记录，令牌随之失效。
func (m *TokenManager) Revoke(jti string) error {
	return m.db.Delete(&db.AuthToken{}, "id = ?", jti).Error
}

// RevokeAllForUser 删除用户的全部令牌，用于账号删除等场景。
func (m *TokenManager) RevokeAllForUser(userID uint) error {
	return m.db.Delete(&db.AuthToken{}, "user_id = ?", userID).Error
}
