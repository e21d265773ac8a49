package testutil

import (
	"fmt"
	"testing"
	"time"

	"alerta_social/model"
	"alerta_social/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TestSecret signs tokens in tests.
const TestSecret = "test-secret"

// MustOpenTestDB opens a private in-memory sqlite database with the schema applied.
// The connection is closed via t.Cleanup.
func MustOpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := utils.OpenDB("sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, utils.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

// MustCreateUser inserts a usuarios row.
func MustCreateUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()

	user := &model.User{
		Name:     name,
		Username: "@" + name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// MustCreatePost inserts a postagens row owned by userID.
func MustCreatePost(t *testing.T, db *gorm.DB, userID uint, content string) *model.Post {
	t.Helper()

	post := &model.Post{UserID: userID, Content: content, Type: "alerta"}
	require.NoError(t, db.Create(post).Error)
	return post
}

// SignToken builds an HS256 token with the claims the verifier expects.
func SignToken(t *testing.T, secret string, user *model.User, ttl time.Duration) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    user.ID,
		"email": user.Email,
		"nome":  user.Name,
		"exp":   time.Now().Add(ttl).Unix(),
		"iat":   time.Now().Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}
