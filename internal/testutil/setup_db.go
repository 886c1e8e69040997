package testutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"escrow_ledger/internal/repository"
)

// SetupTestDB starts a Postgres container, waits for it to accept
// connections, applies the ledger schema and returns the pool with a
// teardown func. Skipped under -short.
func SetupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres integration test in short mode")
	}

	ctx := context.Background()
	postgresC, err := tcpostgres.Run(ctx,
		"postgres:17-alpine",
		tcpostgres.WithDatabase("escrow_ledger"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("secret"),
	)
	require.NoError(t, err)

	dbURL, err := postgresC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var pool *pgxpool.Pool
	for i := 0; i < 20; i++ {
		pool, err = pgxpool.New(ctx, dbURL)
		if err == nil {
			err = pool.Ping(ctx)
			if err == nil {
				break
			}
			pool.Close()
		}
		time.Sleep(1 * time.Second)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "[testutil] Postgres did not become ready in time. Container logs:")
		logs, logErr := postgresC.Logs(ctx)
		if logErr == nil {
			io.Copy(os.Stderr, logs)
		} else {
			fmt.Fprintln(os.Stderr, "[testutil] Failed to get container logs:", logErr)
		}
	}
	require.NoError(t, err, "Postgres did not become ready in time")

	require.NoError(t, repository.Migrate(ctx, pool))

	return pool, func() {
		pool.Close()
		postgresC.Terminate(ctx)
	}
}
