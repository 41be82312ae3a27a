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

	"code_arena/internal/api"
	"code_arena/internal/app/service"
	"code_arena/internal/catalog"
	"code_arena/internal/common/security"
	"code_arena/internal/domain/repository"
	"code_arena/internal/platform/cache"
	"code_arena/internal/platform/config"
	"code_arena/internal/platform/database"
	"code_arena/internal/platform/logger"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "code-arena",
		Usage: "problem catalog, auth and mock judge API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "optional dotenv file loaded before the environment",
				Value: ".env",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "migrate, optionally seed, and serve HTTP",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations and exit",
				Action: migrate,
			},
			{
				Name:   "seed",
				Usage:  "create the demo user and built-in problems",
				Action: seed,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("code-arena failed")
	}
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("env-file"))
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

// openStore connects the configured backend. The returned close func is
// never nil.
func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		return memoryStore(ctx, cfg)
	}

	db, err := database.Open(ctx, cfg.StoreDriver, cfg.DSN())
	if err == nil {
		err = db.Migrate(ctx)
		if err != nil {
			db.Close()
		}
	}
	if err != nil {
		if !cfg.MemoryFallback {
			return nil, func() {}, err
		}
		log.Warn().Err(err).Str("driver", cfg.StoreDriver).Msg("Database unavailable, falling back to in-memory store")
		return memoryStore(ctx, cfg)
	}

	store := repository.NewSQLStore(db)
	if cfg.SeedOnStart {
		if _, err := catalog.Seed(ctx, store, cfg.BcryptCost); err != nil {
			db.Close()
			return nil, func() {}, fmt.Errorf("seed: %w", err)
		}
	}
	return store, func() { db.Close() }, nil
}

func memoryStore(ctx context.Context, cfg *config.Config) (*repository.Store, func(), error) {
	store := repository.NewMemoryStore()
	if _, err := catalog.Seed(ctx, store, cfg.BcryptCost); err != nil {
		return nil, func() {}, fmt.Errorf("seed memory store: %w", err)
	}
	return store, func() {}, nil
}

func openCache(ctx context.Context, cfg *config.Config) (*cache.ProblemCache, func()) {
	if cfg.RedisAddr == "" {
		return nil, func() {}
	}
	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, problem cache disabled")
		return nil, func() {}
	}
	return cache.NewProblemCache(rdb, cfg.ProblemCacheTTL), func() {
		rdb.Close()
		log.Info().Msg("Redis connection closed")
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	problemCache, closeCache := openCache(ctx, cfg)
	defer closeCache()

	tokens := security.NewTokenIssuer([]byte(cfg.JWTKey), cfg.JWTExp())

	authService := service.NewAuthService(store.Users, tokens, cfg.BcryptCost)
	problemService := service.NewProblemService(store.Problems, problemCache)
	executionService := service.NewExecutionService(service.NewMockRunner(nil), problemService, 0)
	healthService := service.NewHealthService(store)

	router := api.NewRouter(tokens, cfg.CORSAllowedOrigins, authService, problemService, executionService, healthService)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.APIPort).Str("driver", store.Driver).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("could not listen on %s: %w", cfg.APIPort, err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info().Msg("Server stopped gracefully")
	return nil
}

func migrate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.StoreDriver == config.DriverMemory {
		color.Yellow("memory store has no schema, nothing to migrate")
		return nil
	}

	db, err := database.Open(ctx, cfg.StoreDriver, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	color.Green("migrations applied (%s)", cfg.StoreDriver)
	return nil
}

func seed(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.StoreDriver == config.DriverMemory {
		color.Yellow("memory store is seeded on every start, nothing to do")
		return nil
	}

	db, err := database.Open(ctx, cfg.StoreDriver, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	res, err := catalog.Seed(ctx, repository.NewSQLStore(db), cfg.BcryptCost)
	if err != nil {
		color.Red("seed failed: %v", err)
		return err
	}

	color.Green("demo user: %s (%s)", res.User.Username, res.User.Email)
	for _, title := range res.Created {
		color.Green("  created  %s", title)
	}
	for _, title := range res.Skipped {
		color.Yellow("  skipped  %s (already exists)", title)
	}
	color.Cyan("%d created, %d skipped", len(res.Created), len(res.Skipped))
	return nil
}
