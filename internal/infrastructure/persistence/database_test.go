package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/salestax/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
)

var poolConfig = &config.DatabaseConfig{
	MaxOpenConns:    12,
	MaxIdleConns:    4,
	ConnMaxLifetime: 30 * time.Minute,
	ConnMaxIdleTime: 5 * time.Minute,
}

func newPingMock(t *testing.T) (postgres.Config, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	return postgres.Config{Conn: conn, DriverName: "postgres"}, mock
}

func TestOpen_PingsAndSizesPool(t *testing.T) {
	pgConfig, mock := newPingMock(t)
	mock.ExpectPing()

	db, err := openDialector(postgres.New(pgConfig), poolConfig, nil)
	require.NoError(t, err)
	assert.NotNil(t, db.DB)
	assert.Equal(t, 12, db.Stats().MaxOpenConnections)

	mock.ExpectPing()
	require.NoError(t, db.Ping(context.Background()))

	mock.ExpectClose()
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_UnreachableDatabase(t *testing.T) {
	pgConfig, mock := newPingMock(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	db, err := openDialector(postgres.New(pgConfig), poolConfig, nil)
	require.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "ping database")
	assert.Contains(t, err.Error(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_PingFailureAfterOpen(t *testing.T) {
	pgConfig, mock := newPingMock(t)
	mock.ExpectPing()
	db, err := openDialector(postgres.New(pgConfig), poolConfig, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectPing().WillReturnError(errors.New("server closed the connection unexpectedly"))
	err = db.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server closed the connection unexpectedly")
}
