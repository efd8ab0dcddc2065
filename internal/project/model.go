package project

import (
	"time"

	"studio-backend/internal/preset"
	"studio-backend/internal/store"
)

// Project is a user workspace. It may reference one active preset as its
// template and owns an ordered list of layout breakpoints.
type Project struct {
	ID               int64
	Name             string
	Description      *string
	Thumbnail        *string
	ActiveTemplateID *int64
	TokenConfig      map[string]any
	Settings         map[string]any
	IsArchived       bool
	CreatedAt        time.Time
	UpdatedAt        time.Time

	ActiveTemplate *preset.Preset
	Breakpoints    []*Breakpoint
}

// Breakpoint is a named width range owned by exactly one project.
// MaxWidth is nil only on the open-ended last breakpoint.
type Breakpoint struct {
	ID           int64
	ProjectID    int64
	Name         string
	MinWidth     int64
	MaxWidth     *int64
	Config       map[string]any
	DisplayOrder int64
}

type Response struct {
	ID               int64                 `json:"id"`
	Name             string                `json:"name"`
	Description      *string               `json:"description"`
	Thumbnail        *string               `json:"thumbnail"`
	ActiveTemplateID *int64                `json:"active_template_id"`
	ActiveTemplate   *preset.Response      `json:"active_template"`
	TokenConfig      map[string]any        `json:"token_config"`
	Settings         map[string]any        `json:"settings"`
	IsArchived       bool                  `json:"is_archived"`
	Breakpoints      []*BreakpointResponse `json:"breakpoints"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

type BreakpointResponse struct {
	ID           int64          `json:"id"`
	ProjectID    int64          `json:"project_id"`
	Name         string         `json:"name"`
	MinWidth     int64          `json:"min_width"`
	MaxWidth     *int64         `json:"max_width"`
	Config       map[string]any `json:"config"`
	DisplayOrder int64          `json:"display_order"`
}

func (p *Project) Response() *Response {
	resp := &Response{
		ID:               p.ID,
		Name:             p.Name,
		Description:      p.Description,
		Thumbnail:        p.Thumbnail,
		ActiveTemplateID: p.ActiveTemplateID,
		TokenConfig:      p.TokenConfig,
		Settings:         p.Settings,
		IsArchived:       p.IsArchived,
		Breakpoints:      make([]*BreakpointResponse, 0, len(p.Breakpoints)),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.ActiveTemplate != nil {
		resp.ActiveTemplate = p.ActiveTemplate.Response()
	}
	for _, bp := range p.Breakpoints {
		resp.Breakpoints = append(resp.Breakpoints, bp.Response())
	}
	return resp
}

func (b *Breakpoint) Response() *BreakpointResponse {
	return &BreakpointResponse{
		ID:           b.ID,
		ProjectID:    b.ProjectID,
		Name:         b.Name,
		MinWidth:     b.MinWidth,
		MaxWidth:     b.MaxWidth,
		Config:       b.Config,
		DisplayOrder: b.DisplayOrder,
	}
}

func fromRow(row map[string]any) *Project {
	return &Project{
		ID:               store.Int64(row["id"]),
		Name:             store.String(row["name"]),
		Description:      store.StringPtr(row["description"]),
		Thumbnail:        store.StringPtr(row["thumbnail"]),
		ActiveTemplateID: store.Int64Ptr(row["active_template_id"]),
		TokenConfig:      store.Doc(row["token_config"]),
		Settings:         store.Doc(row["settings"]),
		IsArchived:       store.Bool(row["is_archived"]),
		CreatedAt:        store.Time(row["created_at"]),
		UpdatedAt:        store.Time(row["updated_at"]),
	}
}

func breakpointFromRow(row map[string]any) *Breakpoint {
	return &Breakpoint{
		ID:           store.Int64(row["id"]),
		ProjectID:    store.Int64(row["project_id"]),
		Name:         store.String(row["name"]),
		MinWidth:     store.Int64(row["min_width"]),
		MaxWidth:     store.Int64Ptr(row["max_width"]),
		Config:       store.Doc(row["config"]),
		DisplayOrder: store.Int64(row["display_order"]),
	}
}
