// Package repository implements all database queries for the admission system.
// It uses pgx directly (no ORM) for transparency and performance.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrEventFull is returned when an event has no remaining capacity.
var ErrEventFull = errors.New("event is full")

// ErrAlreadyRegistered is returned when the same user registers twice.
var ErrAlreadyRegistered = errors.New("already registered for this event")

// ErrNotRegistered is returned when unregistering a user with no registration.
var ErrNotRegistered = errors.New("not registered for this event")

// ErrEmailTaken is returned when signing up with an email already in use.
var ErrEmailTaken = errors.New("email already registered")

// ErrCapacityBelowOccupancy is returned when an update would shrink an
// event below the number of seats already taken.
var ErrCapacityBelowOccupancy = errors.New("max attendees is below current registrations")

// SQLSTATE codes the repositories translate into domain errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == codeUniqueViolation
}
