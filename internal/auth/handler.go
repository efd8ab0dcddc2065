package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"studio-backend/internal/api"
	"studio-backend/internal/store"
)

// timeFormat keeps expires_at readable by both dialects.
const timeFormat = "2006-01-02 15:04:05"

type Handler struct {
	store     *store.Store
	jwtSecret string
}

func NewHandler(s *store.Store, jwtSecret string) *Handler {
	return &Handler{store: s, jwtSecret: jwtSecret}
}

func RegisterRoutes(app *fiber.App, h *Handler) {
	g := app.Group("/api/auth")
	g.Post("/login", h.Login)
	g.Post("/refresh", h.Refresh)
	g.Post("/logout", h.Logout)
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return api.NewAppError("INVALID_PAYLOAD", 400, "Invalid request body")
	}
	if body.Email == "" || body.Password == "" {
		return api.UnauthorizedError("Email and password are required")
	}

	ctx := c.Context()
	d := h.store.Dialect

	user, err := store.QueryRow(ctx, h.store.DB,
		"SELECT id, email, password_hash, roles, active FROM users WHERE email = "+d.Placeholder(1),
		body.Email)
	if err != nil {
		return api.UnauthorizedError("Invalid email or password")
	}

	if !store.Bool(user["active"]) {
		return api.UnauthorizedError("Account is disabled")
	}
	if !CheckPassword(body.Password, store.String(user["password_hash"])) {
		return api.UnauthorizedError("Invalid email or password")
	}

	roles, err := d.ScanArray(user["roles"])
	if err != nil {
		return fmt.Errorf("scan roles: %w", err)
	}

	pair, err := h.generateTokenPair(ctx, store.String(user["id"]), roles)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": pair})
}

// Refresh handles POST /api/auth/refresh. Refresh tokens are single
// use: the presented token is deleted and a new pair issued.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&body); err != nil {
		return api.NewAppError("INVALID_PAYLOAD", 400, "Invalid request body")
	}
	if body.RefreshToken == "" {
		return api.UnauthorizedError("Refresh token is required")
	}

	ctx := c.Context()
	d := h.store.Dialect

	row, err := store.QueryRow(ctx, h.store.DB,
		`SELECT rt.id, rt.user_id, rt.expires_at, u.roles, u.active
		 FROM refresh_tokens rt
		 JOIN users u ON u.id = rt.user_id
		 WHERE rt.token = `+d.Placeholder(1), body.RefreshToken)
	if err != nil {
		return api.UnauthorizedError("Invalid refresh token")
	}

	if time.Now().UTC().After(store.Time(row["expires_at"])) {
		_, _ = store.Exec(ctx, h.store.DB,
			"DELETE FROM refresh_tokens WHERE token = "+d.Placeholder(1), body.RefreshToken)
		return api.UnauthorizedError("Refresh token expired")
	}
	if !store.Bool(row["active"]) {
		return api.UnauthorizedError("Account is disabled")
	}

	_, _ = store.Exec(ctx, h.store.DB,
		"DELETE FROM refresh_tokens WHERE id = "+d.Placeholder(1), store.String(row["id"]))

	roles, err := d.ScanArray(row["roles"])
	if err != nil {
		return fmt.Errorf("scan roles: %w", err)
	}

	pair, err := h.generateTokenPair(ctx, store.String(row["user_id"]), roles)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": pair})
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(c *fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&body); err != nil {
		return api.NewAppError("INVALID_PAYLOAD", 400, "Invalid request body")
	}
	if body.RefreshToken == "" {
		return api.UnauthorizedError("Refresh token is required")
	}

	_, _ = store.Exec(c.Context(), h.store.DB,
		"DELETE FROM refresh_tokens WHERE token = "+h.store.Dialect.Placeholder(1), body.RefreshToken)

	return c.JSON(fiber.Map{"message": "Logged out"})
}

func (h *Handler) generateTokenPair(ctx context.Context, userID string, roles []string) (*TokenPair, error) {
	accessToken, err := GenerateAccessToken(userID, roles, h.jwtSecret)
	if err != nil {
		return nil, api.NewAppError("INTERNAL_ERROR", 500, "Failed to generate access token")
	}

	// Refresh tokens are opaque UUIDs, stored alongside their expiry.
	refreshToken := uuid.New().String()
	expiresAt := time.Now().UTC().Add(RefreshTokenTTL).Format(timeFormat)

	d := h.store.Dialect
	pb := d.NewParamBuilder()
	sqlStr := fmt.Sprintf("INSERT INTO refresh_tokens (id, user_id, token, expires_at) VALUES (%s, %s, %s, %s)",
		pb.Add(uuid.New().String()), pb.Add(userID), pb.Add(refreshToken), pb.Add(expiresAt))
	if _, err := store.Exec(ctx, h.store.DB, sqlStr, pb.Params()...); err != nil {
		return nil, api.NewAppError("INTERNAL_ERROR", 500, "Failed to store refresh token")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// EnsureAdminUser seeds the admin account when the users table is
// empty, so an auth-enabled instance is usable out of the box.
func EnsureAdminUser(ctx context.Context, s *store.Store, email, password string) error {
	row, err := store.QueryRow(ctx, s.DB, "SELECT COUNT(*) AS total FROM users")
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("count users: %w", err)
	}
	if row != nil && store.Int64(row["total"]) > 0 {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	d := s.Dialect
	pb := d.NewParamBuilder()
	sqlStr := fmt.Sprintf("INSERT INTO users (id, email, password_hash, roles, active) VALUES (%s, %s, %s, %s, TRUE)",
		pb.Add(uuid.New().String()), pb.Add(email), pb.Add(hash), pb.Add(d.ArrayParam([]string{"admin"})))
	if _, err := store.Exec(ctx, s.DB, sqlStr, pb.Params()...); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	log.Info().Str("email", email).Msg("seeded initial admin user")
	return nil
}
