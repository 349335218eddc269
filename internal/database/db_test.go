package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	dsn := Options{User: "app", Pass: "pw", Host: "db", Port: "3306", Name: "cashmais"}.DSN()
	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "cashmais", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, "UTC", cfg.Loc.String())
}

func TestWithTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, WithTx(context.Background(), db, func(*sql.Tx) error { return nil }))

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()
	assert.ErrorIs(t, WithTx(context.Background(), db, func(*sql.Tx) error { return boom }), boom)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, IsDuplicateKey(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.False(t, IsDuplicateKey(&mysql.MySQLError{Number: 1452}))
	assert.False(t, IsDuplicateKey(errors.New("1062")))
}
