package project

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"studio-backend/internal/preset"
	"studio-backend/internal/store"
)

const columns = "id, name, description, thumbnail, active_template_id, token_config, settings, is_archived, created_at, updated_at"
const breakpointColumns = "id, project_id, name, min_width, max_width, config, display_order"

// Every new project starts with these three breakpoints.
var defaultBreakpoints = []Breakpoint{
	{Name: "mobile", MinWidth: 0, MaxWidth: intPtr(389), DisplayOrder: 0},
	{Name: "tablet", MinWidth: 390, MaxWidth: intPtr(809), DisplayOrder: 1},
	{Name: "desktop", MinWidth: 810, MaxWidth: nil, DisplayOrder: 2},
}

func intPtr(n int64) *int64 { return &n }

type Repository struct {
	s       *store.Store
	presets *preset.Repository
}

func NewRepository(s *store.Store) *Repository {
	return &Repository{s: s, presets: preset.NewRepository(s)}
}

// Get returns a project with its template and ordered breakpoints
// resolved. Archived projects are excluded unless includeArchived is set.
func (r *Repository) Get(ctx context.Context, id int64, includeArchived bool) (*Project, error) {
	d := r.s.Dialect
	sqlStr := "SELECT " + columns + " FROM projects WHERE id = " + d.Placeholder(1)
	if !includeArchived {
		sqlStr += " AND NOT is_archived"
	}
	row, err := store.QueryRow(ctx, r.s.DB, sqlStr, id)
	if err != nil {
		return nil, err
	}

	p := fromRow(row)
	if err := r.loadRelations(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns projects ordered most-recently-updated first, with the
// total counted before pagination.
func (r *Repository) List(ctx context.Context, skip, limit int, includeArchived bool) ([]*Project, int64, error) {
	d := r.s.Dialect

	where := "1=1"
	if !includeArchived {
		where = "NOT is_archived"
	}

	countRow, err := store.QueryRow(ctx, r.s.DB, "SELECT COUNT(*) AS total FROM projects WHERE "+where)
	if err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}
	total := store.Int64(countRow["total"])

	pb := d.NewParamBuilder()
	sel := "SELECT " + columns + " FROM projects WHERE " + where +
		" ORDER BY updated_at DESC, id DESC LIMIT " + pb.Add(limit) + " OFFSET " + pb.Add(skip)
	rows, err := store.QueryRows(ctx, r.s.DB, sel, pb.Params()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}

	items := make([]*Project, 0, len(rows))
	for _, row := range rows {
		p := fromRow(row)
		if err := r.loadRelations(ctx, p); err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

// Create inserts the project and its three default breakpoints in one
// transaction: a successfully created project is never observable with
// zero breakpoints.
func (r *Repository) Create(ctx context.Context, p *Project) (*Project, error) {
	// Copy the template's token config before opening the transaction
	// (the SQLite store is limited to a single connection).
	if p.ActiveTemplateID != nil && len(p.TokenConfig) == 0 {
		tpl, err := r.presets.Get(ctx, *p.ActiveTemplateID)
		if err == nil {
			p.TokenConfig = tpl.Config
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("resolve template %d: %w", *p.ActiveTemplateID, err)
		}
	}

	tx, err := r.s.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	d := r.s.Dialect
	pb := d.NewParamBuilder()
	sqlStr := fmt.Sprintf(`INSERT INTO projects
		(name, description, thumbnail, active_template_id, token_config, settings)
		VALUES (%s, %s, %s, %s, %s, %s) RETURNING id`,
		pb.Add(p.Name),
		pb.Add(p.Description),
		pb.Add(p.Thumbnail),
		pb.Add(p.ActiveTemplateID),
		pb.Add(store.DocParam(p.TokenConfig)),
		pb.Add(store.DocParam(p.Settings)),
	)
	row, err := store.QueryRow(ctx, tx, sqlStr, pb.Params()...)
	if err != nil {
		return nil, r.s.MapError(err)
	}
	id := store.Int64(row["id"])

	for _, bp := range defaultBreakpoints {
		bpb := d.NewParamBuilder()
		insert := fmt.Sprintf(`INSERT INTO layout_breakpoints
			(project_id, name, min_width, max_width, config, display_order)
			VALUES (%s, %s, %s, %s, %s, %s)`,
			bpb.Add(id),
			bpb.Add(bp.Name),
			bpb.Add(bp.MinWidth),
			bpb.Add(bp.MaxWidth),
			bpb.Add("{}"),
			bpb.Add(bp.DisplayOrder),
		)
		if _, err := store.Exec(ctx, tx, insert, bpb.Params()...); err != nil {
			return nil, fmt.Errorf("create default breakpoint %s: %w", bp.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return r.Get(ctx, id, false)
}

// Update overwrites only the given columns. Archived projects report
// not-found: the read behind the update excludes them.
func (r *Repository) Update(ctx context.Context, id int64, changes map[string]any) (*Project, error) {
	if _, err := r.Get(ctx, id, false); err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return r.Get(ctx, id, false)
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
		sets = append(sets, col+" = "+pb.Add(encodeColumn(col, changes[col])))
	}
	sets = append(sets, "updated_at = "+d.NowExpr())

	sqlStr := "UPDATE projects SET " + strings.Join(sets, ", ") + " WHERE id = " + pb.Add(id)
	if _, err := store.Exec(ctx, r.s.DB, sqlStr, pb.Params()...); err != nil {
		return nil, r.s.MapError(err)
	}
	return r.Get(ctx, id, false)
}

// Delete archives the project, or physically removes it (with its
// breakpoints, via the cascading foreign key) when hard is set.
func (r *Repository) Delete(ctx context.Context, id int64, hard bool) (bool, error) {
	if _, err := r.Get(ctx, id, true); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	d := r.s.Dialect
	var sqlStr string
	if hard {
		sqlStr = "DELETE FROM projects WHERE id = " + d.Placeholder(1)
	} else {
		sqlStr = "UPDATE projects SET is_archived = TRUE, updated_at = " + d.NowExpr() +
			" WHERE id = " + d.Placeholder(1)
	}
	if _, err := store.Exec(ctx, r.s.DB, sqlStr, id); err != nil {
		return false, err
	}
	return true, nil
}

// --- breakpoint operations ---

// GetBreakpoint returns a single breakpoint by id. Parent-project checks
// belong to the handler layer.
func (r *Repository) GetBreakpoint(ctx context.Context, id int64) (*Breakpoint, error) {
	d := r.s.Dialect
	row, err := store.QueryRow(ctx, r.s.DB,
		"SELECT "+breakpointColumns+" FROM layout_breakpoints WHERE id = "+d.Placeholder(1), id)
	if err != nil {
		return nil, err
	}
	return breakpointFromRow(row), nil
}

// AddBreakpoint appends a breakpoint to an existing non-archived project.
func (r *Repository) AddBreakpoint(ctx context.Context, projectID int64, bp *Breakpoint) (*Breakpoint, error) {
	if _, err := r.Get(ctx, projectID, false); err != nil {
		return nil, err
	}

	d := r.s.Dialect
	pb := d.NewParamBuilder()
	sqlStr := fmt.Sprintf(`INSERT INTO layout_breakpoints
		(project_id, name, min_width, max_width, config, display_order)
		VALUES (%s, %s, %s, %s, %s, %s) RETURNING id`,
		pb.Add(projectID),
		pb.Add(bp.Name),
		pb.Add(bp.MinWidth),
		pb.Add(bp.MaxWidth),
		pb.Add(store.DocParam(bp.Config)),
		pb.Add(bp.DisplayOrder),
	)
	row, err := store.QueryRow(ctx, r.s.DB, sqlStr, pb.Params()...)
	if err != nil {
		return nil, r.s.MapError(err)
	}
	return r.GetBreakpoint(ctx, store.Int64(row["id"]))
}

// UpdateBreakpoint overwrites only the given columns.
func (r *Repository) UpdateBreakpoint(ctx context.Context, id int64, changes map[string]any) (*Breakpoint, error) {
	if _, err := r.GetBreakpoint(ctx, id); err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return r.GetBreakpoint(ctx, id)
	}

	d := r.s.Dialect
	pb := d.NewParamBuilder()

	cols := make([]string, 0, len(changes))
	for col := range changes {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols))
	for _, col := range cols {
		sets = append(sets, col+" = "+pb.Add(encodeColumn(col, changes[col])))
	}

	sqlStr := "UPDATE layout_breakpoints SET " + strings.Join(sets, ", ") + " WHERE id = " + pb.Add(id)
	if _, err := store.Exec(ctx, r.s.DB, sqlStr, pb.Params()...); err != nil {
		return nil, err
	}
	return r.GetBreakpoint(ctx, id)
}

// DeleteBreakpoint removes a breakpoint by id.
func (r *Repository) DeleteBreakpoint(ctx context.Context, id int64) (bool, error) {
	d := r.s.Dialect
	n, err := store.Exec(ctx, r.s.DB,
		"DELETE FROM layout_breakpoints WHERE id = "+d.Placeholder(1), id)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repository) loadRelations(ctx context.Context, p *Project) error {
	if p.ActiveTemplateID != nil {
		tpl, err := r.presets.Get(ctx, *p.ActiveTemplateID)
		if err == nil {
			p.ActiveTemplate = tpl
		} else if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("load template %d: %w", *p.ActiveTemplateID, err)
		}
	}

	d := r.s.Dialect
	rows, err := store.QueryRows(ctx, r.s.DB,
		"SELECT "+breakpointColumns+" FROM layout_breakpoints WHERE project_id = "+d.Placeholder(1)+
			" ORDER BY display_order, id", p.ID)
	if err != nil {
		return fmt.Errorf("load breakpoints: %w", err)
	}

	p.Breakpoints = make([]*Breakpoint, 0, len(rows))
	for _, row := range rows {
		p.Breakpoints = append(p.Breakpoints, breakpointFromRow(row))
	}
	return nil
}

func encodeColumn(col string, v any) any {
	switch col {
	case "token_config", "settings", "config":
		doc, _ := v.(map[string]any)
		return store.DocParam(doc)
	default:
		return v
	}
}
