package repository

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// newMock returns a sqlmock-backed pool whose expectations are verified
// when the test ends.
func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

// q turns a literal SQL fragment into a sqlmock pattern.
func q(s string) string { return regexp.QuoteMeta(s) }

func nowUTC() time.Time { return time.Now().UTC() }
