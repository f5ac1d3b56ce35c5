package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const migrationsDir = "../../migrations"

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "routines.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()

	applied, err := db.RunMigrations(ctx, migrationsDir)
	require.NoError(t, err)
	assert.Positive(t, applied)

	tables := []string{
		"families", "child_profiles", "routines", "routine_tasks",
		"routine_sessions", "session_steps", "routine_performance",
		"achievements", "child_achievements",
	}
	for _, table := range tables {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}

	again, err := db.RunMigrations(ctx, migrationsDir)
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestRunMigrationsMissingDir(t *testing.T) {
	db := openTestDB(t)
	_, err := db.RunMigrations(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestWithTx(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()
	_, err := db.RunMigrations(ctx, migrationsDir)
	require.NoError(t, err)

	insert := "INSERT INTO families (id, name, timezone) VALUES (?, ?, ?)"
	count := func() int {
		var n int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM families").Scan(&n))
		return n
	}

	err = db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecContext(ctx, insert, "fam-1", "Kowalscy", "Europe/Warsaw")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count())

	boom := errors.New("boom")
	err = db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, insert, "fam-2", "Nowakowie", "Europe/Warsaw"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, count())
}

func TestForeignKeysEnforced(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()
	_, err := db.RunMigrations(ctx, migrationsDir)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		"INSERT INTO child_profiles (id, family_id, name, pin_hash) VALUES (?, ?, ?, ?)",
		"kid-1", "no-such-family", "Ola", "x")
	assert.Error(t, err)
}

func TestSplitStatements(t *testing.T) {
	content := `-- header
CREATE TABLE a (id TEXT);

-- only a comment;
CREATE INDEX idx_a ON a(id);
`
	got := splitStatements(content)
	assert.Equal(t, []string{"CREATE TABLE a (id TEXT)", "CREATE INDEX idx_a ON a(id)"}, got)
}
