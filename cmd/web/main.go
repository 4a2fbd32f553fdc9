package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/Tomlord1122/todolist/internal/config"
	"github.com/Tomlord1122/todolist/internal/logging"
	"github.com/Tomlord1122/todolist/internal/relay"
)

func run(cCtx *cli.Context) error {
	cfg, err := config.LoadRelay()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Env, "todo-web")

	webServer, err := relay.NewServer(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build relay")
		return err
	}

	ctx, stop := signal.NotifyContext(cCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", webServer.Addr).Str("backend", cfg.BackendURL).Msg("starting relay")
		if err := webServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("relay server failed")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down relay")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("relay forced to shutdown")
		return err
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:   "todo-web",
		Usage:  "Serve the browser pages and relay sessions to the todo API",
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
