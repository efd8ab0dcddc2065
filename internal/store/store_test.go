package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio-backend/internal/config"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := New(ctx, config.DatabaseConfig{
		Driver: "sqlite",
		Path:   t.TempDir(),
		Name:   "test",
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Bootstrap(ctx))
	return s
}

func TestBootstrapIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	require.NoError(t, s.Bootstrap(ctx))
}

func TestQueryRowNotFound(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	_, err := QueryRow(ctx, s.DB, "SELECT id FROM curated_presets WHERE id = ?1", 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTimestampsNormalize(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	_, err := Exec(ctx, s.DB,
		"INSERT INTO curated_presets (name, category) VALUES (?1, ?2)", "p", "c")
	require.NoError(t, err)

	row, err := QueryRow(ctx, s.DB, "SELECT created_at FROM curated_presets")
	require.NoError(t, err)

	created := Time(row["created_at"])
	assert.False(t, created.IsZero())
	assert.WithinDuration(t, time.Now().UTC(), created, time.Minute)
}

func TestTextColumnsKeepTimestampShapedValues(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	_, err := Exec(ctx, s.DB,
		"INSERT INTO curated_presets (name, category, description) VALUES (?1, ?2, ?3)",
		"p", "c", "2026-08-28 10:00:00")
	require.NoError(t, err)

	row, err := QueryRow(ctx, s.DB, "SELECT description, created_at FROM curated_presets")
	require.NoError(t, err)

	// The description is text and must read back verbatim, while the
	// timestamp column still parses.
	assert.Equal(t, "2026-08-28 10:00:00", String(row["description"]))
	assert.False(t, Time(row["created_at"]).IsZero())
}

func TestTimeHelperParsesTextForms(t *testing.T) {
	parsed := Time("2026-08-28 10:00:00")
	assert.Equal(t, 2026, parsed.Year())

	parsed = Time("2026-08-28T10:00:00Z")
	assert.Equal(t, 2026, parsed.Year())

	assert.True(t, Time("not a time").IsZero())
	assert.Nil(t, TimePtr(nil))
	assert.Nil(t, TimePtr("not a time"))
}

func TestForeignKeysEnforced(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	_, err := Exec(ctx, s.DB,
		"INSERT INTO layout_breakpoints (project_id, name, min_width) VALUES (?1, ?2, ?3)",
		999, "orphan", 0)
	assert.Error(t, err)
}
