package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestConnect_UnsupportedDriver(t *testing.T) {
	db, err := Connect(Config{
		Driver:             "sqlite",
		ConnectionString:   "file::memory:",
		MaxOpenConnections: 10,
		MaxIdleConnections: 5,
		ConnMaxLifetime:    time.Hour,
	})
	assert.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"postgres unique violation", &pq.Error{Code: "23505"}, true},
		{"postgres wrapped", fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), true},
		{"postgres other code", &pq.Error{Code: "23503"}, false},
		{"mysql duplicate entry", &mysql.MySQLError{Number: 1062}, true},
		{"mysql other number", &mysql.MySQLError{Number: 1213}, false},
		{"plain error", assert.AnError, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&pq.Error{Code: "40001"}))
	assert.True(t, IsRetryable(&pq.Error{Code: "40P01"}))
	assert.True(t, IsRetryable(fmt.Errorf("failed to insert: %w", &mysql.MySQLError{Number: 1213})))
	assert.True(t, IsRetryable(&mysql.MySQLError{Number: 1213}))
	assert.False(t, IsRetryable(&pq.Error{Code: "23505"}))
	assert.False(t, IsRetryable(assert.AnError))
}
