package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio-backend/internal/api"
	"studio-backend/internal/config"
	"studio-backend/internal/store"
)

const testSecret = "test-secret"

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.New(ctx, config.DatabaseConfig{
		Driver: "sqlite",
		Path:   t.TempDir(),
		Name:   "test",
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Bootstrap(ctx))
	return s
}

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken("user-1", []string{"admin"}, testSecret)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, []string{"admin"}, claims.Roles)

	_, err = ParseAccessToken(token, "wrong-secret")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckPassword("s3cret", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestEnsureAdminUserIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, EnsureAdminUser(ctx, s, "admin@localhost", "admin"))
	require.NoError(t, EnsureAdminUser(ctx, s, "admin@localhost", "admin"))

	row, err := store.QueryRow(ctx, s.DB, "SELECT COUNT(*) AS total FROM users")
	require.NoError(t, err)
	assert.EqualValues(t, 1, store.Int64(row["total"]))
}

func newAuthApp(t *testing.T) *fiber.App {
	t.Helper()
	s := newTestStore(t)
	require.NoError(t, EnsureAdminUser(context.Background(), s, "admin@localhost", "admin"))

	app := fiber.New(fiber.Config{ErrorHandler: api.ErrorHandler})
	RegisterRoutes(app, NewHandler(s, testSecret))
	app.Get("/protected", Middleware(testSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user": GetUser(c).ID})
	})
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) (*http.Response, []byte) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	req, _ := http.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp, body
}

func login(t *testing.T, app *fiber.App, email, password string) (*http.Response, *TokenPair) {
	t.Helper()
	resp, body := postJSON(t, app, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if resp.StatusCode != 200 {
		return resp, nil
	}
	var envelope struct {
		Data TokenPair `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return resp, &envelope.Data
}

func TestLoginFlow(t *testing.T) {
	app := newAuthApp(t)

	resp, pair := login(t, app, "admin@localhost", "admin")
	require.Equal(t, 200, resp.StatusCode)
	require.NotNil(t, pair)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	resp, _ = login(t, app, "admin@localhost", "wrong")
	assert.Equal(t, 401, resp.StatusCode)

	resp, _ = login(t, app, "nobody@localhost", "admin")
	assert.Equal(t, 401, resp.StatusCode)
}

func TestRefreshRotatesToken(t *testing.T) {
	app := newAuthApp(t)

	_, pair := login(t, app, "admin@localhost", "admin")
	require.NotNil(t, pair)

	resp, body := postJSON(t, app, "/api/auth/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	require.Equal(t, 200, resp.StatusCode, string(body))

	var envelope struct {
		Data TokenPair `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.NotEqual(t, pair.RefreshToken, envelope.Data.RefreshToken)

	// The spent token cannot be replayed.
	resp, _ = postJSON(t, app, "/api/auth/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	assert.Equal(t, 401, resp.StatusCode)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	app := newAuthApp(t)

	_, pair := login(t, app, "admin@localhost", "admin")
	require.NotNil(t, pair)

	resp, _ := postJSON(t, app, "/api/auth/logout", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	require.Equal(t, 200, resp.StatusCode)

	resp, _ = postJSON(t, app, "/api/auth/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	assert.Equal(t, 401, resp.StatusCode)
}

func TestRequireAdmin(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: api.ErrorHandler})
	app.Delete("/thing", Middleware(testSecret), RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(204)
	})

	req, _ := http.NewRequest("DELETE", "/thing", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	userToken, err := GenerateAccessToken("user-1", []string{"user"}, testSecret)
	require.NoError(t, err)
	req, _ = http.NewRequest("DELETE", "/thing", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)

	adminToken, err := GenerateAccessToken("admin-1", []string{"admin"}, testSecret)
	require.NoError(t, err)
	req, _ = http.NewRequest("DELETE", "/thing", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)
}

func TestMiddleware(t *testing.T) {
	app := newAuthApp(t)

	req, _ := http.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	req, _ = http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	_, pair := login(t, app, "admin@localhost", "admin")
	require.NotNil(t, pair)

	req, _ = http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
