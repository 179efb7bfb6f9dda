package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mednet/mednet/internal/config"
	"github.com/mednet/mednet/internal/domain/clinical"
	"github.com/mednet/mednet/internal/domain/directory"
	"github.com/mednet/mednet/internal/domain/history"
	"github.com/mednet/mednet/internal/platform/auth"
	"github.com/mednet/mednet/internal/platform/cache"
	"github.com/mednet/mednet/internal/platform/db"
	"github.com/mednet/mednet/internal/platform/middleware"
	"github.com/mednet/mednet/internal/platform/registry"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mednet-server",
		Short: "Clinical records API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(facilityCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations on the directory and facility stores",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			directoryDir, _ := cmd.Flags().GetString("directory-dir")
			facilityDir, _ := cmd.Flags().GetString("facility-dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()

			return forEachStore(ctx, cfg, directoryDir, facilityDir,
				func(ctx context.Context, label string, migrator *db.Migrator) error {
					count, err := migrator.Up(ctx)
					if err != nil {
						return fmt.Errorf("%s: migration failed: %w", label, err)
					}
					fmt.Printf("%s: applied %d migration(s).\n", label, count)
					return nil
				})
		},
	}
	upCmd.Flags().String("directory-dir", "./migrations/directory", "Directory-store migrations path")
	upCmd.Flags().String("facility-dir", "./migrations/facility", "Facility-store migrations path")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status for every store",
		RunE: func(cmd *cobra.Command, args []string) error {
			directoryDir, _ := cmd.Flags().GetString("directory-dir")
			facilityDir, _ := cmd.Flags().GetString("facility-dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()

			return forEachStore(ctx, cfg, directoryDir, facilityDir,
				func(ctx context.Context, label string, migrator *db.Migrator) error {
					statuses, err := migrator.Status(ctx)
					if err != nil {
						return fmt.Errorf("%s: %w", label, err)
					}
					fmt.Printf("Migration status for %s:\n", label)
					fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
					for _, s := range statuses {
						status := "pending"
						appliedAt := ""
						if s.Applied {
							status = "applied"
							if s.AppliedAt != nil {
								appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
							}
						}
						fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
					}
					return nil
				})
		},
	}
	statusCmd.Flags().String("directory-dir", "./migrations/directory", "Directory-store migrations path")
	statusCmd.Flags().String("facility-dir", "./migrations/facility", "Facility-store migrations path")
	cmd.AddCommand(statusCmd)

	return cmd
}

// forEachStore runs fn against the shared directory database and then against
// every configured facility store, with the matching migrations directory.
func forEachStore(ctx context.Context, cfg *config.Config, directoryDir, facilityDir string,
	fn func(ctx context.Context, label string, migrator *db.Migrator) error) error {

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return fmt.Errorf("directory store: %w", err)
	}
	err = fn(ctx, "directory", db.NewMigrator(pool, directoryDir))
	pool.Close()
	if err != nil {
		return err
	}

	stores, err := cfg.FacilityStores()
	if err != nil {
		return err
	}
	for _, id := range cfg.FacilityIDs() {
		pool, err := db.NewPool(ctx, stores[id], cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return fmt.Errorf("facility %d: %w", id, err)
		}
		err = fn(ctx, fmt.Sprintf("facility %d", id), db.NewMigrator(pool, facilityDir))
		pool.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func facilityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facility",
		Short: "Inspect the facility store configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured facility stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			fmt.Printf("Administrative facility: %d (no local store)\n", cfg.AdminFacilityID)
			for _, id := range cfg.FacilityIDs() {
				fmt.Printf("Facility %d: local store configured\n", id)
			}
			return nil
		},
	})

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	zlog.Logger = logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Shared directory store. The server refuses to start without it: every
	// request path goes through identity or reference data.
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to directory database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to directory database")

	// Facility store registry. Pools open lazily so a facility that is down
	// at boot degrades to per-request failures instead of blocking startup.
	stores, err := cfg.FacilityStores()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid facility store configuration")
	}
	reg, err := registry.New(stores, cfg.AdminFacilityID, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build facility store registry")
	}
	defer reg.Close()

	// Optional Redis-backed reference cache.
	var kv cache.KV
	if cfg.RedisURL != "" {
		redisKV, err := cache.NewRedisKV(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisKV.Close()
		kv = redisKV
		logger.Info().Msg("reference cache enabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.JWTSigningKey),
		}))
	}

	e.GET("/health", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	apiV1.Use(middleware.RequestTimeout(30 * time.Second))

	// Directory domain
	facilityRepo := directory.NewFacilityRepoPG(pool)
	staffRepo := directory.NewStaffRepoPG(pool)
	specialtyRepo := directory.NewSpecialtyRepoPG(pool)
	physicianRepo := directory.NewPhysicianRepoPG(pool)
	patientRepo := directory.NewPatientRepoPG(pool)
	medicationRepo := directory.NewMedicationRepoPG(pool)
	dirSvc := directory.NewService(facilityRepo, staffRepo, specialtyRepo, physicianRepo, patientRepo, medicationRepo)
	directory.NewHandler(dirSvc).RegisterRoutes(apiV1)

	// Clinical domain, one store per facility
	storeFactory := clinical.NewStoreFactory(reg)
	validator := clinical.NewValidator(dirSvc, kv)
	clinSvc := clinical.NewService(storeFactory, validator, dirSvc)
	clinical.NewHandler(clinSvc).RegisterRoutes(apiV1)

	// Cross-facility history aggregation
	agg := history.NewAggregator(dirSvc, storeFactory, reg, cfg.FacilityFetchTimeout)
	history.NewHandler(agg).RegisterRoutes(apiV1)

	// Graceful shutdown
	addr := ":" + cfg.Port
	go func() {
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
