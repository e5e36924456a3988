package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"apontamento/backend/pkg/models"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil, "order"))
	assert.ErrorIs(t, mapError(pgx.ErrNoRows, "order 1"), models.ErrNotFound)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: pgUniqueViolation}, "produto"), models.ErrConflict)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: pgForeignKeyViolation}, "etapa"), models.ErrValidation)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: pgCheckViolation}, "motivo"), models.ErrValidation)

	other := errors.New("boom")
	assert.ErrorIs(t, mapError(other, "order"), other)
}

func TestMapDeleteError(t *testing.T) {
	err := mapDeleteError(&pgconn.PgError{Code: pgForeignKeyViolation}, "setor", 3)
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.ErrorContains(t, err, "setor 3")
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(models.ErrConflict))
	assert.True(t, IsTransient(fmt.Errorf("query: %w", context.DeadlineExceeded)))
	assert.True(t, IsTransient(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsTransient(&pgconn.PgError{Code: "08006"}))
	assert.False(t, IsTransient(&pgconn.PgError{Code: pgUniqueViolation}))
}
