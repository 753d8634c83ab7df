// Package pgtest starts a throwaway PostgreSQL for repository tests.
//
// One container is shared by every test in a package binary. PHOTOMAP_TEST_DATABASE_URL
// points the tests at an existing database instead; run with -p 1 then, since each
// test empties the tables. Tests are skipped in -short mode and when no Docker
// provider is reachable.
package pgtest

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/codezero/photomap/pkg/database"
)

const image = "postgres:16-alpine"

var (
	once    sync.Once
	shared  *pgxpool.Pool
	initErr error
)

// New returns a migrated pool with every table emptied.
func New(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres test in short mode")
	}
	dsn := os.Getenv("PHOTOMAP_TEST_DATABASE_URL")
	if dsn == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
	}

	once.Do(func() { shared, initErr = start(dsn) })
	if initErr != nil {
		t.Fatalf("start postgres: %v", initErr)
	}

	ctx := context.Background()
	if _, err := shared.Exec(ctx, `TRUNCATE photos, locations, group_invitations,
		member_group_mappings, member_groups, members CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return shared
}

func start(dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if dsn == "" {
		ctr, err := postgres.Run(ctx, image,
			postgres.WithDatabase("photomap"),
			postgres.WithUsername("photomap"),
			postgres.WithPassword("photomap"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(time.Minute),
			),
		)
		if err != nil {
			return nil, err
		}
		if dsn, err = ctr.ConnectionString(ctx, "sslmode=disable"); err != nil {
			return nil, err
		}
	}

	pool, err := database.NewPostgresPool(ctx, dsn, database.PoolOptions{MaxConns: 4}, zap.NewNop())
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, pool, zap.NewNop()); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
