package project

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"studio-backend/internal/api"
	"studio-backend/internal/preset"
	"studio-backend/internal/store"
)

type Handler struct {
	repo    *Repository
	presets *preset.Repository
}

func NewHandler(repo *Repository, presets *preset.Repository) *Handler {
	return &Handler{repo: repo, presets: presets}
}

// RegisterRoutes mounts the project API. writeMW, when given, guards the
// mutating routes; deleteMW guards deletes.
func RegisterRoutes(app *fiber.App, h *Handler, writeMW, deleteMW []fiber.Handler) {
	g := app.Group("/api/v2/projects")

	g.Get("/", h.List)
	g.Get("/:id", h.Get)
	g.Post("/", api.Chain(writeMW, h.Create)...)
	g.Patch("/:id", api.Chain(writeMW, h.Update)...)
	g.Delete("/:id", api.Chain(deleteMW, h.Delete)...)

	g.Post("/:id/breakpoints", api.Chain(writeMW, h.AddBreakpoint)...)
	g.Patch("/:id/breakpoints/:breakpointId", api.Chain(writeMW, h.UpdateBreakpoint)...)
	g.Delete("/:id/breakpoints/:breakpointId", api.Chain(deleteMW, h.DeleteBreakpoint)...)
}

// List handles GET /api/v2/projects.
func (h *Handler) List(c *fiber.Ctx) error {
	pg, details := api.ParsePagination(c)
	if details != nil {
		return api.ValidationError(details)
	}

	items, total, err := h.repo.List(c.Context(), pg.Skip, pg.Limit, c.QueryBool("include_archived"))
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}

	resp := make([]*Response, len(items))
	for i, p := range items {
		resp[i] = p.Response()
	}
	return c.JSON(fiber.Map{
		"items": resp,
		"total": total,
		"skip":  pg.Skip,
		"limit": pg.Limit,
	})
}

// Get handles GET /api/v2/projects/:id.
func (h *Handler) Get(c *fiber.Ctx) error {
	id, appErr := api.ParseID(c, "id")
	if appErr != nil {
		return appErr
	}

	p, err := h.repo.Get(c.Context(), id, c.QueryBool("include_archived"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return api.NotFoundError("Project", id)
		}
		return fmt.Errorf("get project %d: %w", id, err)
	}
	return c.JSON(p.Response())
}

// Create handles POST /api/v2/projects. The created project carries the
// three default breakpoints.
func (h *Handler) Create(c *fiber.Ctx) error {
	body, appErr := api.DecodeBody(c)
	if appErr != nil {
		return appErr
	}

	p, details := h.parseCreate(c, body)
	if len(details) > 0 {
		return api.ValidationError(details)
	}

	created, err := h.repo.Create(c.Context(), p)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return c.Status(201).JSON(created.Response())
}

// Update handles PATCH /api/v2/projects/:id.
func (h *Handler) Update(c *fiber.Ctx) error {
	id, appErr := api.ParseID(c, "id")
	if appErr != nil {
		return appErr
	}

	body, appErr := api.DecodeBody(c)
	if appErr != nil {
		return appErr
	}

	changes, details := parseUpdate(body)
	if tpl, ok := changes["active_template_id"].(*int64); ok && tpl != nil {
		if _, err := h.presets.Get(c.Context(), *tpl); err != nil {
			details = append(details, api.ErrorDetail{
				Field:   "active_template_id",
				Rule:    "exists",
				Message: fmt.Sprintf("no active preset with id %d", *tpl),
			})
		}
	}
	if len(details) > 0 {
		return api.ValidationError(details)
	}

	p, err := h.repo.Update(c.Context(), id, changes)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return api.NotFoundError("Project", id)
		}
		return fmt.Errorf("update project %d: %w", id, err)
	}
	return c.JSON(p.Response())
}

// Delete handles DELETE /api/v2/projects/:id. Soft delete by default;
// ?hard_delete=true removes the project and its breakpoints.
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, appErr := api.ParseID(c, "id")
	if appErr != nil {
		return appErr
	}

	deleted, err := h.repo.Delete(c.Context(), id, c.QueryBool("hard_delete"))
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	if !deleted {
		return api.NotFoundError("Project", id)
	}
	return c.SendStatus(204)
}

// AddBreakpoint handles POST /api/v2/projects/:id/breakpoints.
func (h *Handler) AddBreakpoint(c *fiber.Ctx) error {
	projectID, appErr := api.ParseID(c, "id")
	if appErr != nil {
		return appErr
	}

	body, appErr := api.DecodeBody(c)
	if appErr != nil {
		return appErr
	}

	bp, details := parseBreakpointCreate(body)
	if len(details) > 0 {
		return api.ValidationError(details)
	}

	created, err := h.repo.AddBreakpoint(c.Context(), projectID, bp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return api.NotFoundError("Project", projectID)
		}
		return fmt.Errorf("add breakpoint to project %d: %w", projectID, err)
	}
	return c.Status(201).JSON(created.Response())
}

// UpdateBreakpoint handles PATCH /api/v2/projects/:id/breakpoints/:breakpointId.
func (h *Handler) UpdateBreakpoint(c *fiber.Ctx) error {
	projectID, breakpointID, appErr := h.resolveBreakpoint(c)
	if appErr != nil {
		return appErr
	}

	body, decodeErr := api.DecodeBody(c)
	if decodeErr != nil {
		return decodeErr
	}

	changes, details := parseBreakpointUpdate(body)
	if len(details) > 0 {
		return api.ValidationError(details)
	}

	updated, err := h.repo.UpdateBreakpoint(c.Context(), breakpointID, changes)
	if err != nil {
		return fmt.Errorf("update breakpoint %d in project %d: %w", breakpointID, projectID, err)
	}
	return c.JSON(updated.Response())
}

// DeleteBreakpoint handles DELETE /api/v2/projects/:id/breakpoints/:breakpointId.
func (h *Handler) DeleteBreakpoint(c *fiber.Ctx) error {
	_, breakpointID, appErr := h.resolveBreakpoint(c)
	if appErr != nil {
		return appErr
	}

	if _, err := h.repo.DeleteBreakpoint(c.Context(), breakpointID); err != nil {
		return fmt.Errorf("delete breakpoint %d: %w", breakpointID, err)
	}
	return c.SendStatus(204)
}

// resolveBreakpoint validates the project exists and the breakpoint
// belongs to it. The repository does not enforce the parent match.
func (h *Handler) resolveBreakpoint(c *fiber.Ctx) (int64, int64, error) {
	projectID, appErr := api.ParseID(c, "id")
	if appErr != nil {
		return 0, 0, appErr
	}
	breakpointID, appErr := api.ParseID(c, "breakpointId")
	if appErr != nil {
		return 0, 0, appErr
	}

	if _, err := h.repo.Get(c.Context(), projectID, false); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, 0, api.NotFoundError("Project", projectID)
		}
		return 0, 0, fmt.Errorf("get project %d: %w", projectID, err)
	}

	bp, err := h.repo.GetBreakpoint(c.Context(), breakpointID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return 0, 0, fmt.Errorf("get breakpoint %d: %w", breakpointID, err)
	}
	if err != nil || bp.ProjectID != projectID {
		return 0, 0, api.NewAppError("NOT_FOUND", 404,
			fmt.Sprintf("Breakpoint with id %d not found in project %d", breakpointID, projectID))
	}
	return projectID, breakpointID, nil
}

func (h *Handler) parseCreate(c *fiber.Ctx, body map[string]any) (*Project, []api.ErrorDetail) {
	var details []api.ErrorDetail
	p := &Project{
		TokenConfig: map[string]any{},
		Settings:    map[string]any{},
	}

	name, detail := api.RequiredString(body, "name", 255)
	if detail != nil {
		details = append(details, *detail)
	}
	p.Name = name

	if v, _, d := api.StringField(body, "description", 0); d != nil {
		details = append(details, *d)
	} else {
		p.Description = v
	}
	if v, _, d := api.StringField(body, "thumbnail", 0); d != nil {
		details = append(details, *d)
	} else {
		p.Thumbnail = v
	}
	if v, present, d := api.DocField(body, "token_config"); d != nil {
		details = append(details, *d)
	} else if present {
		p.TokenConfig = v
	}
	if v, present, d := api.DocField(body, "settings"); d != nil {
		details = append(details, *d)
	} else if present {
		p.Settings = v
	}

	if v, present, d := api.IntField(body, "active_template_id"); d != nil {
		details = append(details, *d)
	} else if present && v != nil {
		if _, err := h.presets.Get(c.Context(), *v); err != nil {
			details = append(details, api.ErrorDetail{
				Field:   "active_template_id",
				Rule:    "exists",
				Message: fmt.Sprintf("no active preset with id %d", *v),
			})
		} else {
			p.ActiveTemplateID = v
		}
	}

	return p, details
}

func parseUpdate(body map[string]any) (map[string]any, []api.ErrorDetail) {
	var details []api.ErrorDetail
	changes := map[string]any{}

	if _, present := body["name"]; present {
		val, detail := api.RequiredString(body, "name", 255)
		if detail != nil {
			details = append(details, *detail)
		} else {
			changes["name"] = val
		}
	}

	for _, key := range []string{"description", "thumbnail"} {
		val, present, detail := api.StringField(body, key, 0)
		if detail != nil {
			details = append(details, *detail)
			continue
		}
		if present {
			changes[key] = val
		}
	}

	for _, key := range []string{"token_config", "settings"} {
		val, present, detail := api.DocField(body, key)
		if detail != nil {
			details = append(details, *detail)
			continue
		}
		if present {
			changes[key] = val
		}
	}

	if val, present, detail := api.IntField(body, "active_template_id"); detail != nil {
		details = append(details, *detail)
	} else if present {
		changes["active_template_id"] = val
	}

	return changes, details
}

func parseBreakpointCreate(body map[string]any) (*Breakpoint, []api.ErrorDetail) {
	var details []api.ErrorDetail
	bp := &Breakpoint{Config: map[string]any{}}

	name, detail := api.RequiredString(body, "name", 100)
	if detail != nil {
		details = append(details, *detail)
	}
	bp.Name = name

	if v, present, d := api.IntField(body, "min_width"); d != nil {
		details = append(details, *d)
	} else if !present || v == nil {
		details = append(details, api.ErrorDetail{Field: "min_width", Rule: "required", Message: "min_width is required"})
	} else if *v < 0 {
		details = append(details, api.ErrorDetail{Field: "min_width", Rule: "min", Message: "min_width must be >= 0"})
	} else {
		bp.MinWidth = *v
	}

	if v, _, d := api.IntField(body, "max_width"); d != nil {
		details = append(details, *d)
	} else {
		bp.MaxWidth = v
	}
	if v, present, d := api.DocField(body, "config"); d != nil {
		details = append(details, *d)
	} else if present {
		bp.Config = v
	}
	if v, present, d := api.IntField(body, "display_order"); d != nil {
		details = append(details, *d)
	} else if present && v != nil {
		bp.DisplayOrder = *v
	}

	return bp, details
}

func parseBreakpointUpdate(body map[string]any) (map[string]any, []api.ErrorDetail) {
	var details []api.ErrorDetail
	changes := map[string]any{}

	if _, present := body["name"]; present {
		val, detail := api.RequiredString(body, "name", 100)
		if detail != nil {
			details = append(details, *detail)
		} else {
			changes["name"] = val
		}
	}

	if v, present, d := api.IntField(body, "min_width"); d != nil {
		details = append(details, *d)
	} else if present {
		if v == nil || *v < 0 {
			details = append(details, api.ErrorDetail{Field: "min_width", Rule: "min", Message: "min_width must be >= 0"})
		} else {
			changes["min_width"] = *v
		}
	}

	if v, present, d := api.IntField(body, "max_width"); d != nil {
		details = append(details, *d)
	} else if present {
		changes["max_width"] = v
	}
	if v, present, d := api.DocField(body, "config"); d != nil {
		details = append(details, *d)
	} else if present {
		changes["config"] = v
	}
	if v, present, d := api.IntField(body, "display_order"); d != nil {
		details = append(details, *d)
	} else if present && v != nil {
		changes["display_order"] = *v
	}

	return changes, details
}
