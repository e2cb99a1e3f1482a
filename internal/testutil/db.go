// Package testutil provides an in-memory database for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/pkg/config"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB opens a migrated in-memory SQLite database. A single connection
// keeps every query on the same in-memory schema.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), config.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.Tables()...))
	return db
}

// CreateUser inserts a user with the given name and role.
func CreateUser(t testing.TB, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "x",
		Role:     role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreatePost inserts a published post by the author.
func CreatePost(t testing.TB, db *gorm.DB, author *models.User, title string) *models.Post {
	t.Helper()
	p := &models.Post{AuthorID: author.ID, Title: title, Content: "body of " + title}
	p.ApplyStatus(models.PostPublished, time.Now().UTC())
	require.NoError(t, db.Omit("Author").Create(p).Error)
	return p
}
