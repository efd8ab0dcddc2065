package preset

import (
	"time"

	"studio-backend/internal/store"
)

// Preset is a curated design-system configuration bundle. The definition,
// reference name, principles, component rules and forbidden patterns are
// internal guidance fields: they are persisted and writable but never
// serialized in responses.
type Preset struct {
	ID                int64
	Name              string
	Category          string
	Description       *string
	Config            map[string]any
	Tags              []string
	Definition        *string
	ReferenceName     *string
	Principles        []string
	ComponentRules    map[string]any
	ForbiddenPatterns []string
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Response is the serialized form of a Preset. Internal guidance fields
// are deliberately absent.
type Response struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Description *string        `json:"description"`
	Config      map[string]any `json:"config"`
	Tags        []string       `json:"tags"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (p *Preset) Response() *Response {
	return &Response{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Description: p.Description,
		Config:      p.Config,
		Tags:        p.Tags,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromRow(d store.Dialect, row map[string]any) (*Preset, error) {
	tags, err := d.ScanArray(row["tags"])
	if err != nil {
		return nil, err
	}
	principles, err := d.ScanArray(row["principles"])
	if err != nil {
		return nil, err
	}
	forbidden, err := d.ScanArray(row["forbidden_patterns"])
	if err != nil {
		return nil, err
	}

	return &Preset{
		ID:                store.Int64(row["id"]),
		Name:              store.String(row["name"]),
		Category:          store.String(row["category"]),
		Description:       store.StringPtr(row["description"]),
		Config:            store.Doc(row["config"]),
		Tags:              tags,
		Definition:        store.StringPtr(row["definition"]),
		ReferenceName:     store.StringPtr(row["reference_name"]),
		Principles:        principles,
		ComponentRules:    store.Doc(row["component_rules"]),
		ForbiddenPatterns: forbidden,
		IsActive:          store.Bool(row["is_active"]),
		CreatedAt:         store.Time(row["created_at"]),
		UpdatedAt:         store.Time(row["updated_at"]),
	}, nil
}
