//go:build integration

// Package integration runs the repositories and the HTTP API against a real
// PostgreSQL started with testcontainers. Run with: go test -tags integration ./tests/integration/...
package integration

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cotiza/backend/internal/infrastructure/config"
	"github.com/cotiza/backend/internal/infrastructure/migration"
	"github.com/cotiza/backend/internal/infrastructure/persistence"
	"github.com/cotiza/backend/migrations"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// postgresOnce holds the container shared by every test in the package
var postgresOnce struct {
	sync.Mutex
	container *tcpostgres.PostgresContainer
	cfg       config.DatabaseConfig
}

// TestDB is a migrated, empty PostgreSQL database opened the way the server opens it
type TestDB struct {
	Database *persistence.Database
	DB       *gorm.DB
}

// NewSharedTestDB starts and migrates the container on first use, then
// truncates every table so each test starts empty.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()

	postgresOnce.Lock()
	defer postgresOnce.Unlock()
	if postgresOnce.container == nil {
		startPostgres(t)
	}

	var opts []persistence.Option
	if os.Getenv("TEST_DB_DEBUG") != "" {
		opts = append(opts, persistence.WithLogger(gormlogger.Default.LogMode(gormlogger.Info)))
	}
	database, err := persistence.NewDatabase(&postgresOnce.cfg, opts...)
	require.NoError(t, err, "connect to test database")
	t.Cleanup(func() { _ = database.Close() })

	tdb := &TestDB{Database: database, DB: database.DB}
	tdb.truncate(t)
	return tdb
}

func startPostgres(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("cotiza_test"),
		tcpostgres.WithUsername("cotiza"),
		tcpostgres.WithPassword("cotiza"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err, "start postgres container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	postgresOnce.container = container
	postgresOnce.cfg = config.DatabaseConfig{
		Driver:   persistence.DriverPostgres,
		Host:     host,
		Port:     port.Int(),
		User:     "cotiza",
		Password: "cotiza",
		DBName:   "cotiza_test",
		SSLMode:  "disable",
		// the numbering tests run 20 concurrent creations
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5,
	}

	database, err := persistence.NewDatabase(&postgresOnce.cfg)
	require.NoError(t, err, "connect for migrations")
	defer database.Close()
	sqlDB, err := database.DB.DB()
	require.NoError(t, err)

	m, err := migration.New(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up(), "apply migrations")
	require.NoError(t, m.Close())
}

// truncate empties every application table
func (tdb *TestDB) truncate(t *testing.T) {
	t.Helper()

	var tables []string
	require.NoError(t, tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public' AND tablename <> 'schema_migrations'
	`).Scan(&tables).Error)

	for _, table := range tables {
		require.NoError(t, tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %q CASCADE", table)).Error, "truncate %s", table)
	}
}

// terminatePostgres stops the shared container, if one was started
func terminatePostgres() {
	postgresOnce.Lock()
	defer postgresOnce.Unlock()
	if postgresOnce.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = postgresOnce.container.Terminate(ctx)
}
