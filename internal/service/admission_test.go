package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-admission/internal/auth"
	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/Shivanand-hulikatti/event-admission/internal/repository"
	"github.com/Shivanand-hulikatti/event-admission/internal/repository/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type admissionFixture struct {
	store    *memStore
	events   *memory.EventStore
	recorder *countingRecorder
	svc      *AdmissionService
}

func newAdmissionFixture(t *testing.T) *admissionFixture {
	t.Helper()
	store := newMemStore()
	recorder := newCountingRecorder()
	return &admissionFixture{
		store:    store,
		events:   store.events(),
		recorder: recorder,
		svc:      NewAdmissionService(store, recorder, zerolog.Nop()),
	}
}

func (f *admissionFixture) event(t *testing.T, maxAttendees int) int64 {
	t.Helper()
	owner := f.store.addUser(model.RoleOrganizer)
	e, err := f.events.Create(context.Background(), model.CreateEventRequest{
		Title:        "Meetup",
		Date:         time.Now().Add(24 * time.Hour),
		Location:     "Hall",
		MaxAttendees: maxAttendees,
	}, owner.UserID)
	require.NoError(t, err)
	return e.ID
}

func TestRegisterOutcomes(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()
	eventID := f.event(t, 1)
	alice := f.store.addUser(model.RoleMember)
	bob := f.store.addUser(model.RoleMember)

	reg, err := f.svc.Register(ctx, alice, eventID)
	require.NoError(t, err)
	assert.Equal(t, eventID, reg.EventID)
	assert.Equal(t, alice.UserID, reg.UserID)

	_, err = f.svc.Register(ctx, alice, eventID)
	require.ErrorIs(t, err, repository.ErrAlreadyRegistered)
	assert.Equal(t, 1, f.store.occupancy(eventID), "duplicate must not change occupancy")

	_, err = f.svc.Register(ctx, bob, eventID)
	require.ErrorIs(t, err, repository.ErrEventFull)

	_, err = f.svc.Register(ctx, bob, 9999)
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.svc.Register(ctx, bob, 0)
	require.ErrorIs(t, err, repository.ErrNotFound)

	assert.Equal(t, 1, f.recorder.register[OutcomeCreated])
	assert.Equal(t, 1, f.recorder.register[OutcomeAlreadyRegistered])
	assert.Equal(t, 1, f.recorder.register[OutcomeFull])
	assert.Equal(t, 2, f.recorder.register[OutcomeEventNotFound])
}

func TestDuplicateCheckedBeforeCapacity(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()
	eventID := f.event(t, 1)
	alice := f.store.addUser(model.RoleMember)

	_, err := f.svc.Register(ctx, alice, eventID)
	require.NoError(t, err)

	// The event is now full, but the same caller must hear "already registered".
	_, err = f.svc.Register(ctx, alice, eventID)
	require.ErrorIs(t, err, repository.ErrAlreadyRegistered)
}

func TestRegisterUnregisterRegister(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()
	eventID := f.event(t, 5)
	alice := f.store.addUser(model.RoleMember)

	_, err := f.svc.Register(ctx, alice, eventID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Unregister(ctx, alice, eventID))
	_, err = f.svc.Register(ctx, alice, eventID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.occupancy(eventID))
}

func TestUnregisterNotRegistered(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()
	eventID := f.event(t, 5)
	alice := f.store.addUser(model.RoleMember)
	bob := f.store.addUser(model.RoleMember)

	_, err := f.svc.Register(ctx, bob, eventID)
	require.NoError(t, err)

	err = f.svc.Unregister(ctx, alice, eventID)
	require.ErrorIs(t, err, repository.ErrNotRegistered)
	assert.Equal(t, 1, f.store.occupancy(eventID), "ledger must be unchanged")
	assert.Equal(t, 1, f.recorder.unregister[OutcomeNotRegistered])
}

func TestConcurrentRegisterNeverOverbooks(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()
	const capacity = 7
	eventID := f.event(t, capacity)

	var users []model.Principal
	for i := 0; i < 50; i++ {
		users = append(users, f.store.addUser(model.RoleMember))
	}

	var created, full atomic.Int32
	var g errgroup.Group
	for _, u := range users {
		u := u
		g.Go(func() error {
			_, err := f.svc.Register(ctx, u, eventID)
			switch {
			case err == nil:
				created.Add(1)
			case assert.ErrorIs(t, err, repository.ErrEventFull):
				full.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(capacity), created.Load())
	assert.Equal(t, int32(len(users)-capacity), full.Load())
	assert.Equal(t, capacity, f.store.occupancy(eventID))
}

func TestListRegistrationsMostRecentFirst(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()
	eventID := f.event(t, 5)
	alice := f.store.addUser(model.RoleMember)
	bob := f.store.addUser(model.RoleMember)

	_, err := f.svc.Register(ctx, alice, eventID)
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, bob, eventID)
	require.NoError(t, err)

	regs, err := f.svc.ListRegistrations(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, regs, 2)
	assert.Equal(t, bob.UserID, regs[0].UserID)
	assert.Equal(t, alice.UserID, regs[1].UserID)

	empty, err := f.svc.ListRegistrations(ctx, 424242)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestAuthorizeMutation(t *testing.T) {
	owner := int64(10)
	tests := []struct {
		name    string
		role    model.Role
		owner   *int64
		caller  int64
		allowed bool
	}{
		{"admin on any event", model.RoleAdministrator, &owner, 99, true},
		{"admin on ownerless event", model.RoleAdministrator, nil, 99, true},
		{"organizer on own event", model.RoleOrganizer, &owner, 10, true},
		{"organizer on other event", model.RoleOrganizer, &owner, 11, false},
		{"organizer on ownerless event", model.RoleOrganizer, nil, 10, false},
		{"member on own event", model.RoleMember, &owner, 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AuthorizeMutation(tt.role, tt.owner, tt.caller, "edit")
			if tt.allowed {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, auth.ErrForbidden)
			assert.Equal(t, "you can only edit your own events", err.Error())
		})
	}
}
