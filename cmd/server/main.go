package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"studio-backend/internal/api"
	"studio-backend/internal/auth"
	"studio-backend/internal/config"
	"studio-backend/internal/preset"
	"studio-backend/internal/project"
	"studio-backend/internal/settings"
	"studio-backend/internal/store"
	"studio-backend/internal/suggest"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.Log.Level)
	log.Info().
		Int("port", cfg.Server.Port).
		Str("driver", cfg.Database.Driver).
		Msg("config loaded")

	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer db.Close()

	if err := db.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("bootstrap schema")
	}
	log.Info().Msg("schema ready")

	if cfg.Auth.Enabled {
		if err := auth.EnsureAdminUser(ctx, db, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			log.Fatal().Err(err).Msg("seed admin user")
		}
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: api.ErrorHandler,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Write endpoints are open unless auth is enabled; deletes then
	// additionally require the admin role.
	var writeMW, deleteMW []fiber.Handler
	if cfg.Auth.Enabled {
		authHandler := auth.NewHandler(db, cfg.Auth.JWTSecret)
		auth.RegisterRoutes(app, authHandler)
		writeMW = []fiber.Handler{auth.Middleware(cfg.Auth.JWTSecret)}
		deleteMW = []fiber.Handler{auth.Middleware(cfg.Auth.JWTSecret), auth.RequireAdmin()}
	}

	suggestClient := suggest.New(
		cfg.Suggest.URL,
		time.Duration(cfg.Suggest.TimeoutMs)*time.Millisecond,
		log.Logger,
	)

	presetRepo := preset.NewRepository(db)
	preset.RegisterRoutes(app, preset.NewHandler(presetRepo, suggestClient), writeMW, deleteMW)

	projectRepo := project.NewRepository(db)
	project.RegisterRoutes(app, project.NewHandler(projectRepo, presetRepo), writeMW, deleteMW)

	settingsRepo := settings.NewRepository(db)
	settings.RegisterRoutes(app, settings.NewHandler(settingsRepo), writeMW...)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("starting server")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}
