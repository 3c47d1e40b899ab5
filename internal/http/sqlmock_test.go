package http

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

type sqlmockDB struct {
	*sql.DB
	mock sqlmock.Sqlmock
}

func newSQLMockDB(t *testing.T) *sqlmockDB {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &sqlmockDB{DB: db, mock: mock}
}
