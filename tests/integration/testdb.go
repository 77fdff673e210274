// Package integration runs the sales tax service end to end against a
// PostgreSQL started with testcontainers. Skipped under -short.
package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/erp/salestax/internal/infrastructure/config"
	"github.com/erp/salestax/internal/infrastructure/logger"
	"github.com/erp/salestax/internal/infrastructure/migration"
	"github.com/erp/salestax/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap/zaptest"
	gormlogger "gorm.io/gorm/logger"
)

const (
	testDatabase = "salestax_test"
	testUser     = "salestax"
	testPassword = "salestax"
)

// TestDB is a migrated database in a throwaway container, opened through
// the same persistence layer the server uses
type TestDB struct {
	*persistence.Database
}

func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase(testDatabase),
		tcpostgres.WithUsername(testUser),
		tcpostgres.WithPassword(testPassword),
		tcpostgres.BasicWaitStrategies(),
	)
	if container != nil {
		t.Cleanup(func() {
			if err := container.Terminate(context.Background()); err != nil {
				t.Logf("terminate postgres container: %v", err)
			}
		})
	}
	require.NoError(t, err, "start postgres container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	level := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = gormlogger.Info
	}
	db, err := persistence.Open(&config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            testUser,
		Password:        testPassword,
		DBName:          testDatabase,
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}, logger.NewGormLogger(zaptest.NewLogger(t), level))
	require.NoError(t, err, "open database")
	t.Cleanup(func() { _ = db.Close() })

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	// the migrator is not closed: closing it would close sqlDB too
	migrator, err := migration.New(sqlDB, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, migrator.Up(), "apply migrations")

	return &TestDB{Database: db}
}
