package preset

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"studio-backend/internal/api"
	"studio-backend/internal/store"
	"studio-backend/internal/suggest"
)

type Handler struct {
	repo        *Repository
	suggestions *suggest.Client
}

func NewHandler(repo *Repository, suggestions *suggest.Client) *Handler {
	return &Handler{repo: repo, suggestions: suggestions}
}

// RegisterRoutes mounts the preset API. writeMW, when given, guards the
// mutating routes; deleteMW guards deletes.
func RegisterRoutes(app *fiber.App, h *Handler, writeMW, deleteMW []fiber.Handler) {
	g := app.Group("/api/v2/presets")

	// Literal route must precede /:id
	g.Get("/suggestions", h.Suggestions)

	g.Get("/", h.List)
	g.Get("/:id", h.Get)
	g.Post("/", api.Chain(writeMW, h.Create)...)
	g.Patch("/:id", api.Chain(writeMW, h.Update)...)
	g.Delete("/:id", api.Chain(deleteMW, h.Delete)...)
}

// Suggestions handles GET /api/v2/presets/suggestions. It never fails:
// the gateway degrades to a static catalog on any upstream problem.
func (h *Handler) Suggestions(c *fiber.Ctx) error {
	return c.JSON(h.suggestions.GetSuggestions(c.Context(), c.Query("context")))
}

// List handles GET /api/v2/presets.
func (h *Handler) List(c *fiber.Ctx) error {
	pg, details := api.ParsePagination(c)
	if details != nil {
		return api.ValidationError(details)
	}

	items, total, err := h.repo.List(c.Context(), pg.Skip, pg.Limit, c.Query("category"), c.Query("tags"))
	if err != nil {
		return fmt.Errorf("list presets: %w", err)
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

// Get handles GET /api/v2/presets/:id.
func (h *Handler) Get(c *fiber.Ctx) error {
	id, appErr := api.ParseID(c, "id")
	if appErr != nil {
		return appErr
	}

	p, err := h.repo.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return api.NotFoundError("Preset", id)
		}
		return fmt.Errorf("get preset %d: %w", id, err)
	}
	return c.JSON(p.Response())
}

// Create handles POST /api/v2/presets.
func (h *Handler) Create(c *fiber.Ctx) error {
	body, appErr := api.DecodeBody(c)
	if appErr != nil {
		return appErr
	}

	p, details := parseCreate(body)
	if len(details) > 0 {
		return api.ValidationError(details)
	}

	created, err := h.repo.Create(c.Context(), p)
	if err != nil {
		return fmt.Errorf("create preset: %w", err)
	}
	return c.Status(201).JSON(created.Response())
}

// Update handles PATCH /api/v2/presets/:id. Only fields present in the
// body change.
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
	if len(details) > 0 {
		return api.ValidationError(details)
	}

	p, err := h.repo.Update(c.Context(), id, changes)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return api.NotFoundError("Preset", id)
		}
		return fmt.Errorf("update preset %d: %w", id, err)
	}
	return c.JSON(p.Response())
}

// Delete handles DELETE /api/v2/presets/:id (soft delete).
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, appErr := api.ParseID(c, "id")
	if appErr != nil {
		return appErr
	}

	deleted, err := h.repo.Delete(c.Context(), id)
	if err != nil {
		return fmt.Errorf("delete preset %d: %w", id, err)
	}
	if !deleted {
		return api.NotFoundError("Preset", id)
	}
	return c.SendStatus(204)
}

func parseCreate(body map[string]any) (*Preset, []api.ErrorDetail) {
	var details []api.ErrorDetail
	p := &Preset{
		Config:            map[string]any{},
		Tags:              []string{},
		Principles:        []string{},
		ComponentRules:    map[string]any{},
		ForbiddenPatterns: []string{},
	}

	name, detail := api.RequiredString(body, "name", 255)
	if detail != nil {
		details = append(details, *detail)
	}
	p.Name = name

	category, detail := api.RequiredString(body, "category", 100)
	if detail != nil {
		details = append(details, *detail)
	}
	p.Category = category

	if v, _, d := api.StringField(body, "description", 0); d != nil {
		details = append(details, *d)
	} else {
		p.Description = v
	}
	if v, present, d := api.DocField(body, "config"); d != nil {
		details = append(details, *d)
	} else if present {
		p.Config = v
	}
	if v, present, d := api.StringSliceField(body, "tags"); d != nil {
		details = append(details, *d)
	} else if present {
		p.Tags = v
	}
	if v, _, d := api.StringField(body, "definition", 0); d != nil {
		details = append(details, *d)
	} else {
		p.Definition = v
	}
	if v, _, d := api.StringField(body, "reference_name", 255); d != nil {
		details = append(details, *d)
	} else {
		p.ReferenceName = v
	}
	if v, present, d := api.StringSliceField(body, "principles"); d != nil {
		details = append(details, *d)
	} else if present {
		p.Principles = v
	}
	if v, present, d := api.DocField(body, "component_rules"); d != nil {
		details = append(details, *d)
	} else if present {
		p.ComponentRules = v
	}
	if v, present, d := api.StringSliceField(body, "forbidden_patterns"); d != nil {
		details = append(details, *d)
	} else if present {
		p.ForbiddenPatterns = v
	}

	return p, details
}

func parseUpdate(body map[string]any) (map[string]any, []api.ErrorDetail) {
	var details []api.ErrorDetail
	changes := map[string]any{}

	for _, key := range []string{"name", "category"} {
		if _, present := body[key]; !present {
			continue
		}
		maxLen := 255
		if key == "category" {
			maxLen = 100
		}
		val, detail := api.RequiredString(body, key, maxLen)
		if detail != nil {
			details = append(details, *detail)
			continue
		}
		changes[key] = val
	}

	for _, key := range []string{"description", "definition", "reference_name"} {
		val, present, detail := api.StringField(body, key, 0)
		if detail != nil {
			details = append(details, *detail)
			continue
		}
		if present {
			changes[key] = val
		}
	}

	for _, key := range []string{"config", "component_rules"} {
		val, present, detail := api.DocField(body, key)
		if detail != nil {
			details = append(details, *detail)
			continue
		}
		if present {
			changes[key] = val
		}
	}

	for _, key := range []string{"tags", "principles", "forbidden_patterns"} {
		val, present, detail := api.StringSliceField(body, key)
		if detail != nil {
			details = append(details, *detail)
			continue
		}
		if present {
			changes[key] = val
		}
	}

	return changes, details
}
