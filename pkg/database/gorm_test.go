package database

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGormDBFromDSN_Missing(t *testing.T) {
	_, err := NewGormDBFromDSN("", false)
	assert.ErrorIs(t, err, ErrMissingDSN)
}

// Runs only against a real database.
func TestNewGormDBFromDSN_Live(t *testing.T) {
	dsn := os.Getenv("TEST_DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("TEST_DB_CONNECTION_STRING not set")
	}

	db, err := NewGormDBFromDSN(dsn, true)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	assert.NoError(t, sqlDB.Ping())
	assert.Equal(t, 100, sqlDB.Stats().MaxOpenConnections)
}
