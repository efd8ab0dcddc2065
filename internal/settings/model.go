package settings

import (
	"time"

	"studio-backend/internal/preset"
	"studio-backend/internal/store"
)

// Settings is the per-path configuration row. Rows come into existence
// lazily the first time a path is written to.
type Settings struct {
	ID                  int64
	ProjectPath         string
	ActivePresetID      *int64
	FrameworkType       *string
	FrameworkDetectedAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time

	ActivePreset *preset.Preset
}

type Response struct {
	ID                  int64            `json:"id"`
	ProjectPath         string           `json:"project_path"`
	ActivePresetID      *int64           `json:"active_theme_id"`
	ActivePreset        *preset.Response `json:"active_theme"`
	FrameworkType       *string          `json:"framework_type"`
	FrameworkDetectedAt *time.Time       `json:"framework_detected_at"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

func (s *Settings) Response() *Response {
	resp := &Response{
		ID:                  s.ID,
		ProjectPath:         s.ProjectPath,
		ActivePresetID:      s.ActivePresetID,
		FrameworkType:       s.FrameworkType,
		FrameworkDetectedAt: s.FrameworkDetectedAt,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
	if s.ActivePreset != nil {
		resp.ActivePreset = s.ActivePreset.Response()
	}
	return resp
}

func fromRow(row map[string]any) *Settings {
	return &Settings{
		ID:                  store.Int64(row["id"]),
		ProjectPath:         store.String(row["project_path"]),
		ActivePresetID:      store.Int64Ptr(row["active_preset_id"]),
		FrameworkType:       store.StringPtr(row["framework_type"]),
		FrameworkDetectedAt: store.TimePtr(row["framework_detected_at"]),
		CreatedAt:           store.Time(row["created_at"]),
		UpdatedAt:           store.Time(row["updated_at"]),
	}
}
