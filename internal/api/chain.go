package api

import "github.com/gofiber/fiber/v2"

// Chain prepends middleware to a terminal handler without sharing the
// middleware slice between route registrations.
func Chain(mw []fiber.Handler, h fiber.Handler) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, len(mw)+1)
	handlers = append(handlers, mw...)
	return append(handlers, h)
}
