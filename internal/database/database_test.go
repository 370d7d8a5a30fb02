package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndMigrate(t *testing.T) {
	ctx := context.Background()
	db, err := New(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(ctx, db))
	// Migrations are idempotent.
	require.NoError(t, Migrate(ctx, db))

	for _, table := range []string{"users", "activities", "revoked_tokens"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestNew_ForeignKeysEnabled(t *testing.T) {
	ctx := context.Background()
	db, err := New(ctx, filepath.Join(t.TempDir(), "fk.db"))
	require.NoError(t, err)
	defer db.Close()

	var on int
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&on))
	assert.Equal(t, 1, on)
}

func TestNew_UnreachablePath(t *testing.T) {
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "missing-dir", "x.db"))
	require.Error(t, err)
}

func TestNew_DSNWithQuery(t *testing.T) {
	ctx := context.Background()
	db, err := New(ctx, "file:"+filepath.Join(t.TempDir(), "query.db")+"?mode=rwc")
	require.NoError(t, err)
	defer db.Close()

	var on int
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&on))
	assert.Equal(t, 1, on)

	var timeout int
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, 5000, timeout)
}
