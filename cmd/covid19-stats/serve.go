package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/covid19-stats/internal/api/http"
	"github.com/i474232898/covid19-stats/internal/config"
	"github.com/i474232898/covid19-stats/internal/covid"
	"github.com/i474232898/covid19-stats/internal/logger"
	"github.com/i474232898/covid19-stats/internal/scheduler"
	"github.com/i474232898/covid19-stats/internal/store"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the refresh scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if servePort != "" {
			cfg.Port = servePort
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Port to listen on (overrides PORT)")
}

func serve(parent context.Context, cfg *config.AppConfig) error {
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snapshots := store.NewSnapshotStore()
	fetcher := newFetcher(cfg, log)
	refresher := newRefresher(cfg, fetcher, snapshots, log)

	// Until a cycle succeeds every query answers 503.
	if cfg.ColdStartWait {
		if _, err := refresher.Run(ctx); err != nil {
			log.Warn().Err(err).Msg("cold start refresh failed; serving not-ready until the next cycle")
		}
	}

	sched := scheduler.New(refresher, cfg.RefreshInterval, cfg.RefreshSchedule, log)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	if !cfg.ColdStartWait {
		go func() {
			if _, err := refresher.Run(ctx); err != nil {
				log.Warn().Err(err).Msg("initial refresh failed")
			}
		}()
	}

	app := newApp(log)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "covid19-stats",
			"ready":   snapshots.Ready(),
		})
	})
	httpapi.RegisterRoutes(app, covid.NewService(snapshots), refresher)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func newApp(log zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "covid19-stats",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				log.Error().Err(err).Str("path", c.Path()).Int("status", code).Msg("request failed")
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(recover.New())
	return app
}
