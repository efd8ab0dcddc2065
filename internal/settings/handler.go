package settings

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"studio-backend/internal/api"
	"studio-backend/internal/store"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

func RegisterRoutes(app *fiber.App, h *Handler, writeMW ...fiber.Handler) {
	g := app.Group("/api/v2/settings")

	g.Get("/active-preset", h.GetActivePreset)
	g.Put("/active-preset", api.Chain(writeMW, h.SetActivePreset)...)
	g.Get("/project", h.GetProjectSettings)
	g.Put("/framework", api.Chain(writeMW, h.UpdateFramework)...)
}

// GetActivePreset handles GET /api/v2/settings/active-preset. A path
// with no binding yields active_theme: null, not an error.
func (h *Handler) GetActivePreset(c *fiber.Ctx) error {
	projectPath := c.Query("project_path")
	if projectPath == "" {
		return api.ValidationError([]api.ErrorDetail{
			{Field: "project_path", Rule: "required", Message: "project_path is required"},
		})
	}

	p, err := h.repo.GetActivePreset(c.Context(), projectPath)
	if err != nil {
		return fmt.Errorf("get active preset for %s: %w", projectPath, err)
	}

	resp := fiber.Map{"success": true, "active_theme": nil}
	if p != nil {
		resp["active_theme"] = p.Response()
	}
	return c.JSON(resp)
}

// SetActivePreset handles PUT /api/v2/settings/active-preset.
func (h *Handler) SetActivePreset(c *fiber.Ctx) error {
	body, appErr := api.DecodeBody(c)
	if appErr != nil {
		return appErr
	}

	var details []api.ErrorDetail
	projectPath, detail := api.RequiredString(body, "project_path", 0)
	if detail != nil {
		details = append(details, *detail)
	}
	themeID, present, intDetail := api.IntField(body, "theme_id")
	if intDetail != nil {
		details = append(details, *intDetail)
	} else if !present || themeID == nil {
		details = append(details, api.ErrorDetail{Field: "theme_id", Rule: "required", Message: "theme_id is required"})
	}
	if len(details) > 0 {
		return api.ValidationError(details)
	}

	s, err := h.repo.SetActivePreset(c.Context(), projectPath, *themeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return api.NotFoundError("Theme", *themeID)
		}
		return fmt.Errorf("set active preset: %w", err)
	}

	resp := fiber.Map{"success": true, "active_theme": nil}
	if s.ActivePreset != nil {
		resp["active_theme"] = s.ActivePreset.Response()
	}
	return c.JSON(resp)
}

// GetProjectSettings handles GET /api/v2/settings/project. Unknown
// paths yield settings: null.
func (h *Handler) GetProjectSettings(c *fiber.Ctx) error {
	projectPath := c.Query("project_path")
	if projectPath == "" {
		return api.ValidationError([]api.ErrorDetail{
			{Field: "project_path", Rule: "required", Message: "project_path is required"},
		})
	}

	s, err := h.repo.GetByPath(c.Context(), projectPath)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(fiber.Map{"success": true, "settings": nil})
		}
		return fmt.Errorf("get settings for %s: %w", projectPath, err)
	}
	return c.JSON(fiber.Map{"success": true, "settings": s.Response()})
}

// UpdateFramework handles PUT /api/v2/settings/framework. Every call
// re-stamps the detection time, even for an unchanged framework.
func (h *Handler) UpdateFramework(c *fiber.Ctx) error {
	body, appErr := api.DecodeBody(c)
	if appErr != nil {
		return appErr
	}

	var details []api.ErrorDetail
	projectPath, detail := api.RequiredString(body, "project_path", 0)
	if detail != nil {
		details = append(details, *detail)
	}
	frameworkType, detail := api.RequiredString(body, "framework_type", 100)
	if detail != nil {
		details = append(details, *detail)
	}
	if len(details) > 0 {
		return api.ValidationError(details)
	}

	s, err := h.repo.UpdateFrameworkType(c.Context(), projectPath, frameworkType)
	if err != nil {
		return fmt.Errorf("update framework: %w", err)
	}
	return c.JSON(fiber.Map{"success": true, "settings": s.Response()})
}
