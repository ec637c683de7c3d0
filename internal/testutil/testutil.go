// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"hangspot/internal/config"
	"hangspot/internal/db"
	"hangspot/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens a migrated sqlite database in a temp dir owned by t.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	conn, err := db.Open(config.Database{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "hangspot_test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	t.Cleanup(func() { _ = db.Close(conn) })
	return conn
}

// CreateUser inserts a user with a throwaway password hash.
func CreateUser(t testing.TB, conn *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "not-a-real-hash",
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}
