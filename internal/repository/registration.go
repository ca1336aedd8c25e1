package repository

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegistrationRepository is the only writer of the registrations table.
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Book admits userID to eventID inside a single transaction.
//
// ─────────────────────────────────────────────────────────────────────────────
// RACE CONDITION
// ─────────────────────────────────────────────────────────────────────────────
//
// Naive read-then-write approach (BROKEN):
//
//	caller A: SELECT COUNT(*) FROM registrations WHERE event_id = X  → 9
//	caller B: SELECT COUNT(*) FROM registrations WHERE event_id = X  → 9
//	caller A: max_attendees=10, 9 < 10 → INSERT
//	caller B: max_attendees=10, 9 < 10 → INSERT
//	Result: 11 registrations for a 10-seat event.
//
// SELECT … FOR UPDATE on the event row serialises every admission for the
// same event: the second caller blocks until the first commits, and under
// READ COMMITTED its COUNT(*) then sees the committed insert.
//
// The (event_id, user_id) primary key is enforced independently of the
// lock, so a duplicate insert that somehow reaches the table is rejected by
// the store and reported as ErrAlreadyRegistered.
// ─────────────────────────────────────────────────────────────────────────────
func (r *RegistrationRepository) Book(ctx context.Context, eventID, userID int64) (*model.Registration, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// ── Step 1: lock the event row (ErrNotFound if absent). ────────────────
	maxAttendees, err := lockEvent(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}

	// ── Step 2: duplicate check, before capacity. ─────────────────────────
	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND user_id = $2)`,
		eventID, userID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if exists {
		return nil, ErrAlreadyRegistered
	}

	// ── Step 3: occupancy under the lock. ─────────────────────────────────
	occupancy, err := countRegistrations(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	if occupancy >= maxAttendees {
		return nil, ErrEventFull
	}

	// ── Step 4: insert; the primary key is the final arbiter. ─────────────
	reg := &model.Registration{EventID: eventID, UserID: userID}
	err = tx.QueryRow(ctx,
		`INSERT INTO registrations (event_id, user_id)
		 VALUES ($1, $2)
		 RETURNING registered_at`,
		eventID, userID,
	).Scan(&reg.RegisteredAt)
	if err != nil {
		switch pgErrorCode(err) {
		case codeUniqueViolation:
			return nil, ErrAlreadyRegistered
		case codeForeignKeyViolation:
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return reg, nil
}

// Cancel removes the registration for (eventID, userID). The single
// DELETE is atomic; no rows affected means there was nothing to remove.
func (r *RegistrationRepository) Cancel(ctx context.Context, eventID, userID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM registrations WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotRegistered
	}
	return nil
}

// ListByEvent returns the registrants of an event, most recent first.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID int64) ([]model.Registrant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT u.id, u.name, u.email, r.registered_at
		   FROM registrations r
		   JOIN users u ON u.id = r.user_id
		  WHERE r.event_id = $1
		  ORDER BY r.registered_at DESC, u.id DESC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registrant
	for rows.Next() {
		var reg model.Registrant
		if err := rows.Scan(&reg.UserID, &reg.Name, &reg.Email, &reg.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// CountByEvent returns the current occupancy of an event.
func (r *RegistrationRepository) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	return countRegistrations(ctx, r.db, eventID)
}
