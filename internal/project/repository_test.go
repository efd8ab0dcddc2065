package project

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio-backend/internal/config"
	"studio-backend/internal/preset"
	"studio-backend/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.New(ctx, config.DatabaseConfig{
		Driver: "sqlite",
		Path:   t.TempDir(),
		Name:   "test",
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Bootstrap(ctx))
	return s
}

func TestCreateAddsDefaultBreakpoints(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestStore(t))

	created, err := repo.Create(ctx, &Project{Name: "Site"})
	require.NoError(t, err)
	require.Len(t, created.Breakpoints, 3)

	type want struct {
		name     string
		minWidth int64
		maxWidth *int64
		order    int64
	}
	wants := []want{
		{"mobile", 0, intPtr(389), 0},
		{"tablet", 390, intPtr(809), 1},
		{"desktop", 810, nil, 2},
	}
	for i, w := range wants {
		bp := created.Breakpoints[i]
		assert.Equal(t, w.name, bp.Name)
		assert.Equal(t, w.minWidth, bp.MinWidth)
		assert.Equal(t, w.order, bp.DisplayOrder)
		if w.maxWidth == nil {
			assert.Nil(t, bp.MaxWidth)
		} else {
			require.NotNil(t, bp.MaxWidth)
			assert.Equal(t, *w.maxWidth, *bp.MaxWidth)
		}
	}
}

func TestCreateCopiesTemplateConfig(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	presets := preset.NewRepository(s)
	repo := NewRepository(s)

	tpl, err := presets.Create(ctx, &preset.Preset{
		Name:     "Template",
		Category: "business",
		Config:   map[string]any{"primary": "#333"},
	})
	require.NoError(t, err)

	created, err := repo.Create(ctx, &Project{
		Name:             "From template",
		ActiveTemplateID: &tpl.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, "#333", created.TokenConfig["primary"])
	require.NotNil(t, created.ActiveTemplate)
	assert.Equal(t, tpl.ID, created.ActiveTemplate.ID)
}

func TestExplicitTokenConfigWins(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	presets := preset.NewRepository(s)
	repo := NewRepository(s)

	tpl, err := presets.Create(ctx, &preset.Preset{
		Name:     "Template",
		Category: "business",
		Config:   map[string]any{"primary": "#333"},
	})
	require.NoError(t, err)

	created, err := repo.Create(ctx, &Project{
		Name:             "Custom",
		ActiveTemplateID: &tpl.ID,
		TokenConfig:      map[string]any{"primary": "#f00"},
	})
	require.NoError(t, err)
	assert.Equal(t, "#f00", created.TokenConfig["primary"])
}

func TestArchiveHidesProject(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestStore(t))

	created, err := repo.Create(ctx, &Project{Name: "Old"})
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, created.ID, false)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repo.Get(ctx, created.ID, false)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	archived, err := repo.Get(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, archived.IsArchived)

	// Archived projects reject updates via the not-found path.
	_, err = repo.Update(ctx, created.ID, map[string]any{"name": "Renamed"})
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestHardDeleteCascadesBreakpoints(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	repo := NewRepository(s)

	created, err := repo.Create(ctx, &Project{Name: "Doomed"})
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repo.Get(ctx, created.ID, true)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	row, err := store.QueryRow(ctx, s.DB,
		"SELECT COUNT(*) AS total FROM layout_breakpoints WHERE project_id = "+s.Dialect.Placeholder(1),
		created.ID)
	require.NoError(t, err)
	assert.Zero(t, store.Int64(row["total"]))
}

func TestDeleteMissingProject(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestStore(t))

	deleted, err := repo.Delete(ctx, 999, false)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestBreakpointCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestStore(t))

	created, err := repo.Create(ctx, &Project{Name: "Site"})
	require.NoError(t, err)

	bp, err := repo.AddBreakpoint(ctx, created.ID, &Breakpoint{
		Name:         "wide",
		MinWidth:     1440,
		Config:       map[string]any{"columns": float64(16)},
		DisplayOrder: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, bp.ProjectID)
	assert.Nil(t, bp.MaxWidth)

	updated, err := repo.UpdateBreakpoint(ctx, bp.ID, map[string]any{
		"max_width": int64(1920),
	})
	require.NoError(t, err)
	assert.Equal(t, "wide", updated.Name)
	require.NotNil(t, updated.MaxWidth)
	assert.EqualValues(t, 1920, *updated.MaxWidth)

	got, err := repo.Get(ctx, created.ID, false)
	require.NoError(t, err)
	assert.Len(t, got.Breakpoints, 4)

	deleted, err := repo.DeleteBreakpoint(ctx, bp.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err = repo.Get(ctx, created.ID, false)
	require.NoError(t, err)
	assert.Len(t, got.Breakpoints, 3)
}

func TestListExcludesArchived(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestStore(t))

	kept, err := repo.Create(ctx, &Project{Name: "Kept"})
	require.NoError(t, err)
	gone, err := repo.Create(ctx, &Project{Name: "Gone"})
	require.NoError(t, err)

	_, err = repo.Delete(ctx, gone.ID, false)
	require.NoError(t, err)

	items, total, err := repo.List(ctx, 0, 100, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, kept.ID, items[0].ID)

	_, total, err = repo.List(ctx, 0, 100, true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}
