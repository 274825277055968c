// File: /main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
	"raceday-api/config"
	"raceday-api/database"
	"raceday-api/jobs"
	"raceday-api/metrics"
	"raceday-api/repositories"
	"raceday-api/routes"
	"raceday-api/services"
	"raceday-api/sessions"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "raceday",
		Usage: "race events, runners and registrations API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the YAML configuration file",
				Value:   "config.yaml",
				EnvVars: []string{"RACEDAY_CONFIG"},
			},
		},
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database schema",
				Action: migrate,
			},
			{
				Name:  "seed",
				Usage: "create the standard distances, optionally with generated demo data",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "fake", Usage: "number of generated runners"},
					&cli.IntFlag{Name: "events", Usage: "number of generated events", Value: 20},
					&cli.Uint64Flag{Name: "seed", Usage: "random seed for generated data"},
				},
				Action: seed,
			},
			{
				Name:   "refresh-activity",
				Usage:  "recompute stored event activity flags once",
				Action: refreshActivity,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "raceday:", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if !cfg.IsProduction() {
		opts.Level = slog.LevelDebug
	}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// bootstrap loads configuration and opens the database with the schema applied
func bootstrap(c *cli.Context) (*config.Config, *slog.Logger, *gorm.DB, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := database.Initialize(cfg.DatabaseURL, !cfg.IsProduction(), logger)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return cfg, logger, db, nil
}

func migrate(c *cli.Context) error {
	_, logger, _, err := bootstrap(c)
	if err != nil {
		return err
	}
	logger.Info("Database schema is up to date")
	return nil
}

func seed(c *cli.Context) error {
	_, logger, db, err := bootstrap(c)
	if err != nil {
		return err
	}
	if n := c.Int("fake"); n > 0 {
		seedValue := c.Uint64("seed")
		if seedValue == 0 {
			seedValue = uint64(time.Now().UnixNano())
		}
		return database.SeedFake(db, logger, database.FakeOptions{
			Runners: n,
			Events:  c.Int("events"),
			Seed:    seedValue,
			Now:     services.SystemClock(),
		})
	}
	return database.SeedData(db, logger)
}

func refreshActivity(c *cli.Context) error {
	_, logger, db, err := bootstrap(c)
	if err != nil {
		return err
	}
	events := services.NewEventService(repositories.NewEventRepository(db), logger, services.SystemClock)
	changed, err := events.RefreshActivity(c.Context)
	if err != nil {
		return err
	}
	logger.Info("Activity flags refreshed", slog.Int64("updated", changed))
	return nil
}

func serve(c *cli.Context) error {
	cfg, logger, db, err := bootstrap(c)
	if err != nil {
		return err
	}
	if err := database.SeedData(db, logger); err != nil {
		logger.Warn("Failed to seed database", slog.Any("error", err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := sessions.New(cfg.SessionKey, cfg.IsProduction())
	if err != nil {
		return err
	}

	var mailer services.Mailer = services.LogMailer{Logger: logger}
	if cfg.MailEnabled() {
		mailer = services.NewEmailService(cfg, logger)
	}

	clock := services.Clock(services.SystemClock)
	m := metrics.New()

	eventRepo := repositories.NewEventRepository(db)
	runnerRepo := repositories.NewRunnerRepository(db)
	registrationRepo := repositories.NewRegistrationRepository(db)

	events := services.NewEventService(eventRepo, logger, clock)
	router := routes.NewRouter(routes.Dependencies{
		DB:            db,
		Config:        cfg,
		Logger:        logger,
		Metrics:       m,
		Sessions:      store,
		Tokens:        services.NewTokenService(cfg.JWTSecret, clock),
		Runners:       services.NewRunnerService(runnerRepo, registrationRepo, mailer, logger, clock),
		Distances:     services.NewDistanceService(repositories.NewDistanceRepository(db), logger),
		Events:        events,
		Registrations: services.NewRegistrationService(registrationRepo, eventRepo, runnerRepo, mailer, m, logger, clock),
	})

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ActivityRefreshInterval > 0 {
		job := jobs.NewActivityRefreshJob(events, cfg.ActivityRefreshInterval, logger)
		job.Start(ctx)
		defer job.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting Raceday API server", slog.String("port", cfg.Port), slog.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
