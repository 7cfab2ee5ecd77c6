package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/foodgram/backend/internal/fixtures"
	"github.com/anonto42/foodgram/backend/internal/metrics"
	"github.com/anonto42/foodgram/backend/internal/middleware"
	"github.com/anonto42/foodgram/backend/internal/repositories"
	"github.com/anonto42/foodgram/backend/internal/router"
	"github.com/anonto42/foodgram/backend/pkg/config"
	"github.com/anonto42/foodgram/backend/pkg/firebase"
	"github.com/anonto42/foodgram/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "foodgram",
		Short:        "Recipe sharing API server",
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run database migrations and start the HTTP server",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema",
			RunE:  runMigrate,
		},
		newLoadDataCmd(),
	)
	return root
}

// setup loads configuration, the logger and the database.
func setup() (*config.Config, *logger.Logger, *config.DB, error) {
	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.Sync()
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	_, log, db, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer db.CloseDB()

	if err := repositories.AutoMigrate(db.Gorm); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("Migrations completed")
	return nil
}

func newLoadDataCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "loaddata",
		Short: "Load tags and ingredients from a YAML or JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := fixtures.LoadFile(file)
			if err != nil {
				return err
			}
			_, log, db, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			defer db.CloseDB()

			if err := repositories.AutoMigrate(db.Gorm); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			res, err := catalog.Apply(cmd.Context(), repositories.NewStore(db.Gorm))
			if err != nil {
				return err
			}
			log.Info("Fixtures loaded", "file", file, "tags", res.Tags, "ingredients", res.Ingredients)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "data/fixtures.yaml", "fixture file (.yaml, .yml or .json)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, db, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer db.CloseDB()

	if err := repositories.AutoMigrate(db.Gorm); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Firebase is optional; without it only local accounts are available.
	var firebaseAuth middleware.IDTokenVerifier
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	switch {
	case err == nil:
		firebaseAuth = firebaseApp.AuthClient
	case errors.Is(err, firebase.ErrNotConfigured):
		log.Info("Firebase not configured, Firebase login disabled")
	default:
		return fmt.Errorf("init firebase: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	config.SetupMiddleware(e, cfg, log)
	if err := router.SetupRoutes(e, db.Gorm, cfg, log, firebaseAuth); err != nil {
		return err
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metricsMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Metrics server listening", "port", cfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "port", cfg.Port)
		errCh <- e.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	return e.Shutdown(shutdownCtx)
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return mux
}
