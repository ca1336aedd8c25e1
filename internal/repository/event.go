package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

const eventSelect = `
SELECT e.id, e.title, e.description, e.date, e.location, e.max_attendees,
       e.created_by, u.name, u.email,
       (SELECT COUNT(*) FROM registrations r WHERE r.event_id = e.id),
       e.created_at, e.updated_at
  FROM events e
  LEFT JOIN users u ON u.id = e.created_by`

// Create inserts a new event owned by createdBy.
func (r *EventRepository) Create(ctx context.Context, req model.CreateEventRequest, createdBy int64) (*model.Event, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO events (title, description, date, location, max_attendees, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		req.Title, req.Description, req.Date.UTC(), req.Location, req.MaxAttendees, createdBy,
	).Scan(&id)
	if err != nil {
		if pgErrorCode(err) == codeCheckViolation {
			return nil, fmt.Errorf("insert event: max attendees must be positive: %w", err)
		}
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return r.GetByID(ctx, id)
}

// List returns all events ordered by date ascending.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	events, err := r.query(ctx, eventSelect+` ORDER BY e.date ASC, e.id ASC`)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].CreatorEmail = nil
	}
	return events, nil
}

// ListWithCreators returns all events newest first, including the
// creator's contact email. Administrative use only.
func (r *EventRepository) ListWithCreators(ctx context.Context) ([]model.Event, error) {
	return r.query(ctx, eventSelect+` ORDER BY e.created_at DESC, e.id DESC`)
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx, eventSelect+` WHERE e.id = $1`, id))
	if err != nil {
		return nil, err
	}
	e.CreatorEmail = nil
	return e, nil
}

// Update applies a partial update. The event row is locked for the
// duration so a concurrent registration cannot slip in between the
// occupancy check and a capacity reduction.
func (r *EventRepository) Update(ctx context.Context, id int64, req model.UpdateEventRequest) (*model.Event, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := lockEvent(ctx, tx, id); err != nil {
		return nil, err
	}

	if req.MaxAttendees != nil {
		occupancy, err := countRegistrations(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if *req.MaxAttendees < occupancy {
			return nil, ErrCapacityBelowOccupancy
		}
	}

	var date any
	if req.Date != nil {
		date = req.Date.UTC()
	}
	_, err = tx.Exec(ctx,
		`UPDATE events
		    SET title         = COALESCE($2, title),
		        description   = COALESCE($3, description),
		        date          = COALESCE($4, date),
		        location      = COALESCE($5, location),
		        max_attendees = COALESCE($6, max_attendees),
		        updated_at    = now()
		  WHERE id = $1`,
		id, req.Title, req.Description, date, req.Location, req.MaxAttendees,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	e, err := scanEvent(tx.QueryRow(ctx, eventSelect+` WHERE e.id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	e.CreatorEmail = nil
	return e, nil
}

// Delete removes an event; its registrations cascade.
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *EventRepository) query(ctx context.Context, sql string, args ...any) ([]model.Event, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Date, &e.Location, &e.MaxAttendees,
		&e.CreatedBy, &e.CreatorName, &e.CreatorEmail,
		&e.RegisteredCount,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	return &e, nil
}

// lockEvent takes a row-level exclusive lock on the event and returns its
// capacity. Every admission for the event serialises on this lock.
func lockEvent(ctx context.Context, q querier, eventID int64) (int, error) {
	var maxAttendees int
	err := q.QueryRow(ctx,
		`SELECT max_attendees FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&maxAttendees)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("lock event row: %w", err)
	}
	return maxAttendees, nil
}

func countRegistrations(ctx context.Context, q querier, eventID int64) (int, error) {
	var n int
	if err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`,
		eventID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}
