package remote

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/dmitrijs2005/wheelvault/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	plain := errors.New("boom")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", sql.ErrNoRows, common.ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "cars_pkey"}, common.ErrAlreadyExists},
		{"raised not found", &pgconn.PgError{Code: "P0002", Message: "no pending trade"}, common.ErrNotFound},
		{"privilege", &pgconn.PgError{Code: "42501"}, common.ErrUnauthorized},
		{"bad password", &pgconn.PgError{Code: "28P01"}, common.ErrUnauthorized},
		{"bad conn", driver.ErrBadConn, common.ErrUnavailable},
		{"canceled", context.Canceled, context.Canceled},
		{"other pg error", &pgconn.PgError{Code: "42P01"}, nil},
		{"plain", plain, plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.in)
			assert.Error(t, got)
			if tt.want != nil {
				assert.ErrorIs(t, got, tt.want)
			}
		})
	}

	assert.NoError(t, mapError(nil))
}

func TestMapError_OtherPgErrorKeepsCause(t *testing.T) {
	in := &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}
	got := mapError(in)

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(got, &pgErr))
	assert.NotErrorIs(t, got, common.ErrNotFound)
	assert.NotErrorIs(t, got, common.ErrUnavailable)
}
