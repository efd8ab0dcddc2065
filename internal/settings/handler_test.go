package settings

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"studio-backend/internal/api"
	"studio-backend/internal/preset"
)

func newTestApp(t *testing.T) (*fiber.App, *preset.Repository) {
	t.Helper()
	s := newTestStore(t)
	presets := preset.NewRepository(s)

	app := fiber.New(fiber.Config{ErrorHandler: api.ErrorHandler})
	RegisterRoutes(app, NewHandler(NewRepository(s)))
	return app, presets
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, _ := http.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	return resp, raw
}

func TestActivePresetRequiresProjectPath(t *testing.T) {
	app, _ := newTestApp(t)

	resp, raw := doJSON(t, app, "GET", "/api/v2/settings/active-preset", nil)
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422 without project_path, got %d: %s", resp.StatusCode, raw)
	}
}

func TestActivePresetNullForUnknownPath(t *testing.T) {
	app, _ := newTestApp(t)

	path := url.QueryEscape("/never/seen")
	resp, raw := doJSON(t, app, "GET", "/api/v2/settings/active-preset?project_path="+path, nil)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	var envelope struct {
		Success     bool            `json:"success"`
		ActiveTheme json.RawMessage `json:"active_theme"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("parse envelope: %v", err)
	}
	if !envelope.Success || string(envelope.ActiveTheme) != "null" {
		t.Fatalf("expected success with null active_theme, got: %s", raw)
	}
}

func TestSetAndGetActivePreset(t *testing.T) {
	app, presets := newTestApp(t)

	p, err := presets.Create(t.Context(), &preset.Preset{Name: "Theme", Category: "business"})
	if err != nil {
		t.Fatalf("seed preset: %v", err)
	}

	resp, raw := doJSON(t, app, "PUT", "/api/v2/settings/active-preset", map[string]any{
		"project_path": "/home/user/site",
		"theme_id":     p.ID,
	})
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	if !strings.Contains(string(raw), `"Theme"`) {
		t.Fatalf("expected bound theme in response, got: %s", raw)
	}

	path := url.QueryEscape("/home/user/site")
	resp, raw = doJSON(t, app, "GET", "/api/v2/settings/active-preset?project_path="+path, nil)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var envelope struct {
		Success     bool           `json:"success"`
		ActiveTheme map[string]any `json:"active_theme"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("parse envelope: %v", err)
	}
	if envelope.ActiveTheme == nil || envelope.ActiveTheme["name"] != "Theme" {
		t.Fatalf("expected bound theme, got: %s", raw)
	}
}

func TestSetActivePresetUnknownTheme(t *testing.T) {
	app, _ := newTestApp(t)

	resp, raw := doJSON(t, app, "PUT", "/api/v2/settings/active-preset", map[string]any{
		"project_path": "/home/user/site",
		"theme_id":     999,
	})
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d: %s", resp.StatusCode, raw)
	}
	var errResp api.ErrorResponse
	if err := json.Unmarshal(raw, &errResp); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if errResp.Error.Message != "Theme with id 999 not found" {
		t.Fatalf("unexpected message: %q", errResp.Error.Message)
	}
}

func TestSetActivePresetValidation(t *testing.T) {
	app, _ := newTestApp(t)

	resp, raw := doJSON(t, app, "PUT", "/api/v2/settings/active-preset", map[string]any{
		"project_path": "/home/user/site",
	})
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422 without theme_id, got %d: %s", resp.StatusCode, raw)
	}
}

func TestProjectSettingsNullForUnknownPath(t *testing.T) {
	app, _ := newTestApp(t)

	path := url.QueryEscape("/never/seen")
	resp, raw := doJSON(t, app, "GET", "/api/v2/settings/project?project_path="+path, nil)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	var envelope struct {
		Success  bool            `json:"success"`
		Settings json.RawMessage `json:"settings"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("parse envelope: %v", err)
	}
	if !envelope.Success || string(envelope.Settings) != "null" {
		t.Fatalf("expected success with null settings, got: %s", raw)
	}
}

func TestUpdateFramework(t *testing.T) {
	app, _ := newTestApp(t)

	resp, raw := doJSON(t, app, "PUT", "/api/v2/settings/framework", map[string]any{
		"project_path":   "/app",
		"framework_type": "nextjs",
	})
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	var envelope struct {
		Success  bool           `json:"success"`
		Settings map[string]any `json:"settings"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("parse envelope: %v", err)
	}
	if envelope.Settings["framework_type"] != "nextjs" {
		t.Fatalf("expected framework_type nextjs, got: %s", raw)
	}
	if envelope.Settings["framework_detected_at"] == nil {
		t.Fatalf("expected framework_detected_at to be stamped, got: %s", raw)
	}

	// The settings row is now visible through the project endpoint.
	path := url.QueryEscape("/app")
	resp, raw = doJSON(t, app, "GET", "/api/v2/settings/project?project_path="+path, nil)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(raw), "nextjs") {
		t.Fatalf("expected settings row for /app, got: %s", raw)
	}
}
