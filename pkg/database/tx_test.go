package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/codezero/photomap/pkg/apperrors"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert location: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestIsNoRows(t *testing.T) {
	assert.True(t, IsNoRows(fmt.Errorf("get member: %w", pgx.ErrNoRows)))
	assert.False(t, IsNoRows(errors.New("boom")))
}

func TestNoopTransactorPropagatesError(t *testing.T) {
	want := errors.New("abort")
	err := NoopTransactor{}.WithinTx(context.Background(), func(ctx context.Context) error { return want })
	assert.ErrorIs(t, err, want)
}

func TestMigrationNamesSorted(t *testing.T) {
	names, err := migrationNames()
	assert.NoError(t, err)
	assert.Equal(t, []string{"001_schema.sql"}, names)
}

func TestMapError(t *testing.T) {
	assert.NoError(t, MapError(nil, "member"))

	err := MapError(pgx.ErrNoRows, "member")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, "member not found", err.Error())

	err = MapError(&pgconn.PgError{Code: "23505"}, "location")
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	err = MapError(errors.New("conn refused"), "photo")
	assert.ErrorIs(t, err, apperrors.ErrInternal)
}
