// Package dbtest starts a throwaway Postgres for integration tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Tomlord1122/todolist/internal/config"
	"github.com/Tomlord1122/todolist/internal/database"
	"github.com/Tomlord1122/todolist/internal/logging"
)

const (
	dbName = "todolist"
	dbUser = "todolist"
	dbPwd  = "todolist"
)

// Config starts a postgres container and returns the settings pointing at it.
// The test is skipped in -short mode.
func Config(t *testing.T) config.DatabaseConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("could not start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("could not terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("could not get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("could not get container port: %v", err)
	}

	return config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		Username:        dbUser,
		Password:        dbPwd,
		Database:        dbName,
		Schema:          "public",
		SSLMode:         "disable",
		ConnectTimeout:  10 * time.Second,
		MaxIdleConns:    2,
		MaxOpenConns:    10,
		ConnMaxLifetime: time.Hour,
	}
}

// Start returns a migrated database service backed by a fresh container.
func Start(t *testing.T) database.Service {
	t.Helper()
	cfg := Config(t)

	svc, err := database.New(cfg, "test", logging.Discard())
	if err != nil {
		t.Fatalf("could not connect to postgres: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	if err := svc.Migrate(context.Background(), database.MigrateUp); err != nil {
		t.Fatalf("could not migrate: %v", err)
	}
	return svc
}
