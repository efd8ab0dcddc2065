package settings

import (
	"context"
	"errors"
	"fmt"

	"studio-backend/internal/preset"
	"studio-backend/internal/store"
)

const columns = "id, project_path, active_preset_id, framework_type, framework_detected_at, created_at, updated_at"

type Repository struct {
	s       *store.Store
	presets *preset.Repository
}

func NewRepository(s *store.Store) *Repository {
	return &Repository{s: s, presets: preset.NewRepository(s)}
}

// GetByPath returns the settings row for a path with its active preset
// resolved, or store.ErrNotFound when the path has never been written.
func (r *Repository) GetByPath(ctx context.Context, projectPath string) (*Settings, error) {
	d := r.s.Dialect
	row, err := store.QueryRow(ctx, r.s.DB,
		"SELECT "+columns+" FROM project_settings WHERE project_path = "+d.Placeholder(1), projectPath)
	if err != nil {
		return nil, err
	}

	s := fromRow(row)
	if err := r.resolvePreset(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// GetOrCreate returns the settings row for a path, inserting an empty
// one on first use.
func (r *Repository) GetOrCreate(ctx context.Context, projectPath string) (*Settings, error) {
	s, err := r.GetByPath(ctx, projectPath)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return r.createOrReread(ctx, projectPath)
}

// createOrReread inserts a settings row for the path. When a concurrent
// writer got there first the insert reports a unique violation and the
// winner's row is read back instead of failing.
func (r *Repository) createOrReread(ctx context.Context, projectPath string) (*Settings, error) {
	d := r.s.Dialect
	pb := d.NewParamBuilder()
	_, err := store.Exec(ctx, r.s.DB,
		"INSERT INTO project_settings (project_path) VALUES ("+pb.Add(projectPath)+")", pb.Params()...)
	if err != nil {
		if errors.Is(r.s.MapError(err), store.ErrUniqueViolation) {
			return r.GetByPath(ctx, projectPath)
		}
		return nil, fmt.Errorf("create settings for %s: %w", projectPath, err)
	}
	return r.GetByPath(ctx, projectPath)
}

// SetActivePreset binds a preset to a path, creating the settings row
// if needed. The preset must exist and be active.
func (r *Repository) SetActivePreset(ctx context.Context, projectPath string, presetID int64) (*Settings, error) {
	if _, err := r.presets.Get(ctx, presetID); err != nil {
		return nil, err
	}
	s, err := r.GetOrCreate(ctx, projectPath)
	if err != nil {
		return nil, err
	}

	d := r.s.Dialect
	pb := d.NewParamBuilder()
	sqlStr := "UPDATE project_settings SET active_preset_id = " + pb.Add(presetID) +
		", updated_at = " + d.NowExpr() + " WHERE id = " + pb.Add(s.ID)
	if _, err := store.Exec(ctx, r.s.DB, sqlStr, pb.Params()...); err != nil {
		return nil, fmt.Errorf("set active preset for %s: %w", projectPath, err)
	}
	return r.GetByPath(ctx, projectPath)
}

// GetActivePreset returns the active preset for a path, or nil when the
// path has no settings row, no binding, or the bound preset has been
// deactivated. A missing preset is not an error here.
func (r *Repository) GetActivePreset(ctx context.Context, projectPath string) (*preset.Preset, error) {
	s, err := r.GetByPath(ctx, projectPath)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.ActivePreset, nil
}

// UpdateFrameworkType records the detected framework for a path and
// stamps the detection time, creating the settings row if needed.
func (r *Repository) UpdateFrameworkType(ctx context.Context, projectPath, frameworkType string) (*Settings, error) {
	s, err := r.GetOrCreate(ctx, projectPath)
	if err != nil {
		return nil, err
	}

	d := r.s.Dialect
	pb := d.NewParamBuilder()
	sqlStr := "UPDATE project_settings SET framework_type = " + pb.Add(frameworkType) +
		", framework_detected_at = " + d.NowExpr() +
		", updated_at = " + d.NowExpr() + " WHERE id = " + pb.Add(s.ID)
	if _, err := store.Exec(ctx, r.s.DB, sqlStr, pb.Params()...); err != nil {
		return nil, fmt.Errorf("update framework for %s: %w", projectPath, err)
	}
	return r.GetByPath(ctx, projectPath)
}

// resolvePreset loads the bound preset, treating a deactivated or
// deleted one as no binding.
func (r *Repository) resolvePreset(ctx context.Context, s *Settings) error {
	if s.ActivePresetID == nil {
		return nil
	}
	p, err := r.presets.Get(ctx, *s.ActivePresetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load active preset %d: %w", *s.ActivePresetID, err)
	}
	s.ActivePreset = p
	return nil
}
