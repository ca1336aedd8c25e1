// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
)

// UserStore is the identity store.
type UserStore interface {
	Create(ctx context.Context, u model.User) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

// EventStore is the external event store.
type EventStore interface {
	Create(ctx context.Context, req model.CreateEventRequest, createdBy int64) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	ListWithCreators(ctx context.Context) ([]model.Event, error)
	GetByID(ctx context.Context, id int64) (*model.Event, error)
	Update(ctx context.Context, id int64, req model.UpdateEventRequest) (*model.Event, error)
	Delete(ctx context.Context, id int64) error
}

// RegistrationStore is the registration ledger. Book must be atomic with
// respect to concurrent calls for the same event.
type RegistrationStore interface {
	Book(ctx context.Context, eventID, userID int64) (*model.Registration, error)
	Cancel(ctx context.Context, eventID, userID int64) error
	ListByEvent(ctx context.Context, eventID int64) ([]model.Registrant, error)
}

// StatsStore aggregates dashboard figures.
type StatsStore interface {
	Statistics(ctx context.Context) (*model.Statistics, error)
}
