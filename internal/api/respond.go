package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"studio-backend/internal/store"
)

// ErrorHandler is the central Fiber error handler. AppErrors render with
// their status and envelope; unique violations become 409; anything else
// is logged and returned as a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
	}

	if errors.Is(err, store.ErrUniqueViolation) {
		conflict := ConflictError("A record with this value already exists")
		return c.Status(conflict.Status).JSON(ErrorResponse{Error: conflict})
	}

	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return c.Status(code).JSON(ErrorResponse{
		Error: &AppError{
			Code:    "INTERNAL_ERROR",
			Message: "Internal server error",
		},
	})
}
