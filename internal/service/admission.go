package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/Shivanand-hulikatti/event-admission/internal/repository"
	"github.com/rs/zerolog"
)

// Admission outcomes, also used as metric labels.
const (
	OutcomeCreated           = "created"
	OutcomeAlreadyRegistered = "already_registered"
	OutcomeFull              = "full"
	OutcomeEventNotFound     = "event_not_found"
	OutcomeRemoved           = "removed"
	OutcomeNotRegistered     = "not_registered"
	OutcomeError             = "error"
)

// AdmissionRecorder observes admission outcomes.
type AdmissionRecorder interface {
	RecordRegister(outcome string)
	RecordUnregister(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordRegister(string)   {}
func (nopRecorder) RecordUnregister(string) {}

// AdmissionService implements register, unregister and list-registrations
// on top of the registration ledger.
type AdmissionService struct {
	registrations RegistrationStore
	recorder      AdmissionRecorder
	logger        zerolog.Logger
}

// NewAdmissionService constructs an AdmissionService. A nil recorder
// discards outcomes.
func NewAdmissionService(registrations RegistrationStore, recorder AdmissionRecorder, logger zerolog.Logger) *AdmissionService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &AdmissionService{
		registrations: registrations,
		recorder:      recorder,
		logger:        logger.With().Str("component", "admission").Logger(),
	}
}

// Register admits the caller to the event. A retried call from the same
// caller resolves to repository.ErrAlreadyRegistered.
func (s *AdmissionService) Register(ctx context.Context, caller model.Principal, eventID int64) (*model.Registration, error) {
	if eventID <= 0 {
		s.recorder.RecordRegister(OutcomeEventNotFound)
		return nil, repository.ErrNotFound
	}

	reg, err := s.registrations.Book(ctx, eventID, caller.UserID)
	outcome := registerOutcome(err)
	s.recorder.RecordRegister(outcome)
	if err != nil {
		if outcome != OutcomeError {
			s.logger.Debug().Int64("event_id", eventID).Int64("user_id", caller.UserID).Str("outcome", outcome).Msg("registration rejected")
			return nil, err
		}
		return nil, fmt.Errorf("register for event: %w", err)
	}

	s.logger.Info().Int64("event_id", eventID).Int64("user_id", caller.UserID).Msg("registered")
	return reg, nil
}

// Unregister removes the caller's registration.
func (s *AdmissionService) Unregister(ctx context.Context, caller model.Principal, eventID int64) error {
	err := s.registrations.Cancel(ctx, eventID, caller.UserID)
	switch {
	case err == nil:
		s.recorder.RecordUnregister(OutcomeRemoved)
		s.logger.Info().Int64("event_id", eventID).Int64("user_id", caller.UserID).Msg("unregistered")
		return nil
	case errors.Is(err, repository.ErrNotRegistered):
		s.recorder.RecordUnregister(OutcomeNotRegistered)
		return err
	default:
		s.recorder.RecordUnregister(OutcomeError)
		return fmt.Errorf("unregister from event: %w", err)
	}
}

// ListRegistrations returns the registrants of an event, most recent first.
// An unknown event simply has no registrants.
func (s *AdmissionService) ListRegistrations(ctx context.Context, eventID int64) ([]model.Registrant, error) {
	regs, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	if regs == nil {
		regs = []model.Registrant{}
	}
	return regs, nil
}

func registerOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeCreated
	case errors.Is(err, repository.ErrAlreadyRegistered):
		return OutcomeAlreadyRegistered
	case errors.Is(err, repository.ErrEventFull):
		return OutcomeFull
	case errors.Is(err, repository.ErrNotFound):
		return OutcomeEventNotFound
	default:
		return OutcomeError
	}
}

// AuthorizeMutation applies the ownership rule: administrators may mutate
// any event, organizers only the events they created. Everyone else is
// refused.
func AuthorizeMutation(role model.Role, ownerID *int64, callerID int64, action string) error {
	switch role {
	case model.RoleAdministrator:
		return nil
	case model.RoleOrganizer:
		if ownerID != nil && *ownerID == callerID {
			return nil
		}
	}
	return &OwnershipError{Action: action}
}
