// Package testdb opens the Postgres database used by integration tests.
// Tests that use it are built with the integration tag and skip themselves
// when MONTAGE_TEST_DATABASE_URL is not set.
package testdb

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/montage-api/internal/platform/postgres"
)

// EnvDatabaseURL names the variable holding the test database URL.
const EnvDatabaseURL = "MONTAGE_TEST_DATABASE_URL"

// TestTimeout bounds setup and cleanup statements.
const TestTimeout = 5 * time.Second

// DatabaseURL returns the test database URL, or "".
func DatabaseURL() string {
	return os.Getenv(EnvDatabaseURL)
}

// Open connects to the test database and applies the embedded migrations.
// The connection is closed when the test ends. It skips t when no database
// is configured.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	url := DatabaseURL()
	if url == "" {
		t.Skipf("%s not set", EnvDatabaseURL)
	}

	db, err := sql.Open("pgx", url)
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "test database unreachable")

	require.NoError(t, postgres.Migrate(context.Background(), db, "up", nil), "failed to migrate test database")
	return db
}

// DeleteTaskOnCleanup removes the task row id when the test ends.
func DeleteTaskOnCleanup(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
		defer cancel()
		if _, err := db.ExecContext(ctx, `DELETE FROM video_tasks WHERE id = $1`, id); err != nil {
			t.Logf("failed to delete task %s: %v", id, err)
		}
	})
}
