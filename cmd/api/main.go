package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/Tomlord1122/todolist/internal/config"
	"github.com/Tomlord1122/todolist/internal/database"
	"github.com/Tomlord1122/todolist/internal/identity"
	"github.com/Tomlord1122/todolist/internal/logging"
	"github.com/Tomlord1122/todolist/internal/repository"
	"github.com/Tomlord1122/todolist/internal/server"
	"github.com/Tomlord1122/todolist/internal/service"
)

func gracefulShutdown(apiServer *http.Server, cfg config.Config, dbService database.Service, rdb *redis.Client, logger zerolog.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	ctxTimeout, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close redis client")
		}
	}

	logger.Info().Msg("closing database connection pool")
	if err := dbService.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close database connection pool")
	}

	done <- true
}

func setup() (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	return cfg, logging.New(cfg.Env, "todo-api"), nil
}

func serve(cCtx *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	dbService, err := database.New(cfg.Database, cfg.Env, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	if cCtx.Bool("migrate") {
		if err := dbService.Migrate(cCtx.Context, database.MigrateUp); err != nil {
			_ = dbService.Close()
			logger.Error().Err(err).Msg("failed to migrate database")
			return err
		}
	}
	gormDB := dbService.GetDB()

	var (
		sessions identity.SessionStore
		rdb      *redis.Client
	)
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		rdb, err = identity.OpenRedis(cCtx.Context, cfg.Redis.URL)
		if err != nil {
			_ = dbService.Close()
			logger.Error().Err(err).Msg("failed to connect to redis")
			return err
		}
		sessions = identity.NewRedisSessionStore(rdb)
	default:
		sessions = identity.NewPostgresSessionStore(repository.NewGormSessionRepository(gormDB), logger)
	}
	logger.Info().Str("store", cfg.Session.Store).Msg("session store ready")

	provider := identity.NewProvider(repository.NewGormUserRepository(gormDB), sessions, cfg.Session, logger)
	todoService := service.NewTodoService(repository.NewGormTodoRepository(gormDB), logger)

	apiServer := server.NewServer(cfg.HTTP, todoService, provider, dbService, logger)

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, cfg, dbService, rdb, logger, done)

	logger.Info().Str("addr", apiServer.Addr).Str("env", cfg.Env).Msg("starting server")
	err = apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("http server failed")
		return err
	}

	<-done
	logger.Info().Msg("graceful shutdown complete")
	return nil
}

func migrate(command string) cli.ActionFunc {
	return func(cCtx *cli.Context) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		dbService, err := database.New(cfg.Database, cfg.Env, logger)
		if err != nil {
			return err
		}
		defer dbService.Close()

		if err := dbService.Migrate(cCtx.Context, command); err != nil {
			return fmt.Errorf("migrate %s: %w", command, err)
		}
		return nil
	}
}

func main() {
	serveFlags := []cli.Flag{
		&cli.BoolFlag{
			Name:    "migrate",
			Value:   false,
			Usage:   "apply pending migrations before serving",
			EnvVars: []string{"MIGRATE_ON_START"},
		},
	}

	app := &cli.App{
		Name:   "todo-api",
		Usage:  "Serve the todo list API",
		Flags:  serveFlags,
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API (default)",
				Flags:  serveFlags,
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "manage the database schema",
				Subcommands: []*cli.Command{
					{Name: database.MigrateUp, Usage: "apply all pending migrations", Action: migrate(database.MigrateUp)},
					{Name: database.MigrateDown, Usage: "roll back the latest migration", Action: migrate(database.MigrateDown)},
					{Name: database.MigrateStatus, Usage: "print migration status", Action: migrate(database.MigrateStatus)},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
