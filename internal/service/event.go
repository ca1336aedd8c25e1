package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/Shivanand-hulikatti/event-admission/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// EventService orchestrates event-related business operations.
type EventService struct {
	events              EventStore
	registrations       RegistrationStore
	defaultMaxAttendees int
	validator           *validator.Validate
	logger              zerolog.Logger
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(
	events EventStore,
	registrations RegistrationStore,
	defaultMaxAttendees int,
	logger zerolog.Logger,
) *EventService {
	return &EventService{
		events:              events,
		registrations:       registrations,
		defaultMaxAttendees: defaultMaxAttendees,
		validator:           newValidator(),
		logger:              logger.With().Str("component", "events").Logger(),
	}
}

// CreateEvent validates the request and records the caller as owner.
func (s *EventService) CreateEvent(ctx context.Context, caller model.Principal, req model.CreateEventRequest) (*model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Location = strings.TrimSpace(req.Location)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if req.MaxAttendees == 0 {
		req.MaxAttendees = s.defaultMaxAttendees
	}

	event, err := s.events.Create(ctx, req, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	event.RegisteredUsers = []model.Registrant{}
	s.logger.Info().Int64("event_id", event.ID).Int64("user_id", caller.UserID).Msg("event created")
	return event, nil
}

// ListEvents returns all events.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.events.List(ctx)
}

// GetEvent returns a single event with its registrants.
func (s *EventService) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	regs, err := s.registrations.ListByEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list registrants: %w", err)
	}
	if regs == nil {
		regs = []model.Registrant{}
	}
	event.RegisteredUsers = regs
	return event, nil
}

// UpdateEvent applies a partial update after the ownership check.
func (s *EventService) UpdateEvent(ctx context.Context, caller model.Principal, id int64, req model.UpdateEventRequest) (*model.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, &ValidationError{Field: "title", Message: "must not be blank"}
	}
	if req.Location != nil && strings.TrimSpace(*req.Location) == "" {
		return nil, &ValidationError{Field: "location", Message: "must not be blank"}
	}

	if err := s.authorizeOwner(ctx, caller, id, "edit"); err != nil {
		return nil, err
	}

	event, err := s.events.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrCapacityBelowOccupancy) {
			return nil, err
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	s.logger.Info().Int64("event_id", id).Int64("user_id", caller.UserID).Msg("event updated")
	return event, nil
}

// DeleteEvent removes an event after the ownership check.
func (s *EventService) DeleteEvent(ctx context.Context, caller model.Principal, id int64) error {
	if err := s.authorizeOwner(ctx, caller, id, "delete"); err != nil {
		return err
	}
	if err := s.events.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete event: %w", err)
	}
	s.logger.Info().Int64("event_id", id).Int64("user_id", caller.UserID).Msg("event deleted")
	return nil
}

// authorizeOwner loads the event and applies the ownership rule. Ownership
// is a property of the stored resource, so it is checked per mutation.
func (s *EventService) authorizeOwner(ctx context.Context, caller model.Principal, id int64, action string) error {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("get event: %w", err)
	}
	if err := AuthorizeMutation(caller.Role, event.CreatedBy, caller.UserID, action); err != nil {
		s.logger.Warn().
			Str("action", action).
			Int64("event_id", id).
			Int64("user_id", caller.UserID).
			Str("role", string(caller.Role)).
			Msg("ownership check denied")
		return err
	}
	return nil
}
