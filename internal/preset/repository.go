package preset

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"studio-backend/internal/store"
)

const columns = "id, name, category, description, config, tags, definition, reference_name, principles, component_rules, forbidden_patterns, is_active, created_at, updated_at"

// Repository manages curated preset persistence. Inactive presets are
// invisible to every read path.
type Repository struct {
	s *store.Store
}

func NewRepository(s *store.Store) *Repository {
	return &Repository{s: s}
}

// Get returns the preset if it exists and is active.
func (r *Repository) Get(ctx context.Context, id int64) (*Preset, error) {
	d := r.s.Dialect
	row, err := store.QueryRow(ctx, r.s.DB,
		"SELECT "+columns+" FROM curated_presets WHERE id = "+d.Placeholder(1)+" AND is_active", id)
	if err != nil {
		return nil, err
	}
	return fromRow(d, row)
}

// List returns active presets matching the optional category and tag
// filters, paginated by skip/limit. The total counts the filtered set
// before pagination; ordering is by id so pages are stable.
func (r *Repository) List(ctx context.Context, skip, limit int, category, tag string) ([]*Preset, int64, error) {
	d := r.s.Dialect
	pb := d.NewParamBuilder()

	where := "is_active"
	if category != "" {
		where += " AND category = " + pb.Add(category)
	}
	if tag != "" {
		where += " AND " + d.TagContainsExpr("tags", pb, tag)
	}

	countRow, err := store.QueryRow(ctx, r.s.DB,
		"SELECT COUNT(*) AS total FROM curated_presets WHERE "+where, pb.Params()...)
	if err != nil {
		return nil, 0, fmt.Errorf("count presets: %w", err)
	}
	total := store.Int64(countRow["total"])

	sel := "SELECT " + columns + " FROM curated_presets WHERE " + where +
		" ORDER BY id LIMIT " + pb.Add(limit) + " OFFSET " + pb.Add(skip)
	rows, err := store.QueryRows(ctx, r.s.DB, sel, pb.Params()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list presets: %w", err)
	}

	items := make([]*Preset, 0, len(rows))
	for _, row := range rows {
		p, err := fromRow(d, row)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

// Create inserts a new active preset and returns it with server-assigned
// id and timestamps.
func (r *Repository) Create(ctx context.Context, p *Preset) (*Preset, error) {
	d := r.s.Dialect
	pb := d.NewParamBuilder()

	sqlStr := fmt.Sprintf(`INSERT INTO curated_presets
		(name, category, description, config, tags, definition, reference_name, principles, component_rules, forbidden_patterns)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s) RETURNING id`,
		pb.Add(p.Name),
		pb.Add(p.Category),
		pb.Add(p.Description),
		pb.Add(store.DocParam(p.Config)),
		pb.Add(d.ArrayParam(p.Tags)),
		pb.Add(p.Definition),
		pb.Add(p.ReferenceName),
		pb.Add(d.ArrayParam(p.Principles)),
		pb.Add(store.DocParam(p.ComponentRules)),
		pb.Add(d.ArrayParam(p.ForbiddenPatterns)),
	)

	row, err := store.QueryRow(ctx, r.s.DB, sqlStr, pb.Params()...)
	if err != nil {
		return nil, r.s.MapError(err)
	}
	return r.Get(ctx, store.Int64(row["id"]))
}

// Update overwrites only the given columns on an active preset and bumps
// updated_at. Returns ErrNotFound for missing or inactive presets.
func (r *Repository) Update(ctx context.Context, id int64, changes map[string]any) (*Preset, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return r.Get(ctx, id)
	}

	d := r.s.Dialect
	pb := d.NewParamBuilder()

	cols := make([]string, 0, len(changes))
	for col := range changes {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols)+1)
	for _, col := range cols {
		sets = append(sets, col+" = "+pb.Add(encodeColumn(d, col, changes[col])))
	}
	sets = append(sets, "updated_at = "+d.NowExpr())

	sqlStr := "UPDATE curated_presets SET " + strings.Join(sets, ", ") + " WHERE id = " + pb.Add(id)
	if _, err := store.Exec(ctx, r.s.DB, sqlStr, pb.Params()...); err != nil {
		return nil, r.s.MapError(err)
	}
	return r.Get(ctx, id)
}

// Delete deactivates a preset. The second delete of the same id reports
// false: the row is already invisible.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	d := r.s.Dialect
	n, err := store.Exec(ctx, r.s.DB,
		"UPDATE curated_presets SET is_active = FALSE, updated_at = "+d.NowExpr()+
			" WHERE id = "+d.Placeholder(1)+" AND is_active", id)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func encodeColumn(d store.Dialect, col string, v any) any {
	switch col {
	case "config", "component_rules":
		doc, _ := v.(map[string]any)
		return store.DocParam(doc)
	case "tags", "principles", "forbidden_patterns":
		values, _ := v.([]string)
		return d.ArrayParam(values)
	default:
		return v
	}
}
