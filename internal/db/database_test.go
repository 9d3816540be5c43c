package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLite(t *testing.T) {
	gdb, err := Open(context.Background(), Options{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	assert.NoError(t, Ping(context.Background(), gdb))
}

func TestOpen_Rejects(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Options{Driver: "postgres"})
	assert.ErrorContains(t, err, "DATABASE_URL")

	_, err = Open(context.Background(), Options{Driver: "mysql", DSN: "x"})
	assert.ErrorContains(t, err, "unsupported driver")
}
