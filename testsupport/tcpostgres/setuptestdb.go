//nolint:errcheck // testsetup
package tcpostgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/db/migrate"
	database "github.com/fwt-tools/fwt-dashboard-sync-go/pkg/db/postgres"
)

// SetupTestDb creates a pg connection pool for an ephemeral test database
func SetupTestDb() *pgxpool.Pool {
	ctx := context.Background()
	port, err := nat.NewPort("tcp", "5432")
	if err != nil {
		log.Fatal(err)
	}
	container, err := SetupPostgres(ctx,
		WithPort(port.Port()),
		WithInitialDatabase("postgres", "password", "postgres"),
		WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
		WithName("fwt-dashboard-sync-test"),
	)
	if err != nil {
		log.Fatal(err)
	}
	containerPort, _ := container.MappedPort(ctx, port)
	host, _ := container.Host(ctx)
	dbURL := fmt.Sprintf("postgresql://postgres:password@%s:%s/postgres",
		host, containerPort.Port())

	if err = migrate.MigrateDB(dbURL); err != nil {
		log.Fatal(err)
	}

	return database.InitWithURL(dbURL)
}

// SetupExternalTestDb connects to the database named by TESTDB_URL
func SetupExternalTestDb() *pgxpool.Pool {
	dbURL := os.Getenv("TESTDB_URL")
	if err := migrate.MigrateDB(dbURL); err != nil {
		log.Fatal(err)
	}
	return database.InitWithURL(dbURL)
}

func ClearSnapshotTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from snapshot")
}

func ClearCommentatorInfoTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from commentator_info")
}

func ClearResourceCacheTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from resource_cache")
}

func ClearAllTables(pool *pgxpool.Pool) {
	ClearSnapshotTable(pool)
	ClearCommentatorInfoTable(pool)
	ClearResourceCacheTable(pool)
}
