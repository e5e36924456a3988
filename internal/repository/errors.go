package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"apontamento/backend/pkg/models"
)

// Postgres SQLSTATE codes the store reacts to.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

func duplicateErr(field, value string) error {
	return fmt.Errorf("%w: %s %q already exists", models.ErrConflict, field, value)
}

func referencedErr(entity string, id int64) error {
	return fmt.Errorf("%w: %s %d is still referenced", models.ErrConflict, entity, id)
}

// mapError translates driver errors into the models error classes. what names
// the entity for the error detail.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NotFoundf("%s", what)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s: %s", models.ErrConflict, what, pgErr.Detail)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s references a missing row: %s", models.ErrValidation, what, pgErr.Detail)
		case pgCheckViolation:
			return fmt.Errorf("%w: %s: %s", models.ErrValidation, what, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// mapDeleteError is mapError for deletes, where a foreign key violation means
// the row is still referenced.
func mapDeleteError(err error, entity string, id int64) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return referencedErr(entity, id)
	}
	return mapError(err, fmt.Sprintf("%s %d", entity, id))
}

func isUnique(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// IsTransient reports whether err is a failure worth retrying: lost or
// refused connections, timeouts, serialization failures and deadlocks.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"), // connection exception
			pgErr.Code == "40001", // serialization_failure
			pgErr.Code == "40P01", // deadlock_detected
			pgErr.Code == "57P01", // admin_shutdown
			pgErr.Code == "53300": // too_many_connections
			return true
		}
	}
	return false
}
