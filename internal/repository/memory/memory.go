// Package memory is an in-process implementation of the repository
// contracts for local development and tests. A single mutex serialises
// every operation, which gives Book the same atomicity the event row lock
// gives the PostgreSQL repository.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/Shivanand-hulikatti/event-admission/internal/repository"
)

type registration struct {
	at  time.Time
	seq int64
}

// Store holds users, events and registrations.
type Store struct {
	mu            sync.Mutex
	seq           int64
	nextUserID    int64
	nextEventID   int64
	users         map[int64]*model.User
	events        map[int64]*model.Event
	registrations map[int64]map[int64]registration
	now           func() time.Time
}

func New() *Store {
	return &Store{
		users:         map[int64]*model.User{},
		events:        map[int64]*model.Event{},
		registrations: map[int64]map[int64]registration{},
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Users() *UserStore                 { return &UserStore{s} }
func (s *Store) Events() *EventStore               { return &EventStore{s} }
func (s *Store) Registrations() *RegistrationStore { return &RegistrationStore{s} }
func (s *Store) Stats() *StatsStore                { return &StatsStore{s} }

// UserStore mirrors repository.UserRepository.
type UserStore struct{ s *Store }

func (u *UserStore) Create(_ context.Context, user model.User) (*model.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return nil, repository.ErrEmailTaken
		}
	}
	if user.Role == "" {
		user.Role = model.RoleMember
	}
	s.nextUserID++
	user.ID = s.nextUserID
	user.CreatedAt = s.now()
	s.users[user.ID] = &user
	cp := user
	return &cp, nil
}

func (u *UserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (u *UserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			cp := *user
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (u *UserStore) List(_ context.Context) ([]model.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// EventStore mirrors repository.EventRepository.
type EventStore struct{ s *Store }

func (e *EventStore) Create(_ context.Context, req model.CreateEventRequest, createdBy int64) (*model.Event, error) {
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEventID++
	owner := createdBy
	now := s.now()
	s.events[s.nextEventID] = &model.Event{
		ID:           s.nextEventID,
		Title:        req.Title,
		Description:  req.Description,
		Date:         req.Date.UTC(),
		Location:     req.Location,
		MaxAttendees: req.MaxAttendees,
		CreatedBy:    &owner,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return s.snapshot(s.nextEventID, false), nil
}

// snapshot copies an event with derived fields; callers hold the lock.
func (s *Store) snapshot(id int64, withEmail bool) *model.Event {
	cp := *s.events[id]
	cp.RegisteredCount = len(s.registrations[id])
	cp.CreatorName, cp.CreatorEmail = nil, nil
	if cp.CreatedBy != nil {
		if u, ok := s.users[*cp.CreatedBy]; ok {
			name := u.Name
			cp.CreatorName = &name
			if withEmail {
				email := u.Email
				cp.CreatorEmail = &email
			}
		}
	}
	return &cp
}

func (e *EventStore) List(_ context.Context) ([]model.Event, error) {
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Event, 0, len(s.events))
	for id := range s.events {
		out = append(out, *s.snapshot(id, false))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (e *EventStore) ListWithCreators(_ context.Context) ([]model.Event, error) {
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Event, 0, len(s.events))
	for id := range s.events {
		out = append(out, *s.snapshot(id, true))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (e *EventStore) GetByID(_ context.Context, id int64) (*model.Event, error) {
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return nil, repository.ErrNotFound
	}
	return s.snapshot(id, false), nil
}

func (e *EventStore) Update(_ context.Context, id int64, req model.UpdateEventRequest) (*model.Event, error) {
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if req.MaxAttendees != nil && *req.MaxAttendees < len(s.registrations[id]) {
		return nil, repository.ErrCapacityBelowOccupancy
	}
	if req.Title != nil {
		ev.Title = *req.Title
	}
	if req.Description != nil {
		ev.Description = *req.Description
	}
	if req.Date != nil {
		ev.Date = req.Date.UTC()
	}
	if req.Location != nil {
		ev.Location = *req.Location
	}
	if req.MaxAttendees != nil {
		ev.MaxAttendees = *req.MaxAttendees
	}
	ev.UpdatedAt = s.now()
	return s.snapshot(id, false), nil
}

func (e *EventStore) Delete(_ context.Context, id int64) error {
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.events, id)
	delete(s.registrations, id)
	return nil
}

// RegistrationStore mirrors repository.RegistrationRepository.
type RegistrationStore struct{ s *Store }

func (r *RegistrationStore) Book(_ context.Context, eventID, userID int64) (*model.Registration, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if _, ok := s.users[userID]; !ok {
		return nil, repository.ErrNotFound
	}
	regs := s.registrations[eventID]
	if _, dup := regs[userID]; dup {
		return nil, repository.ErrAlreadyRegistered
	}
	if len(regs) >= ev.MaxAttendees {
		return nil, repository.ErrEventFull
	}
	if regs == nil {
		regs = map[int64]registration{}
		s.registrations[eventID] = regs
	}
	s.seq++
	at := s.now()
	regs[userID] = registration{at: at, seq: s.seq}
	return &model.Registration{EventID: eventID, UserID: userID, RegisteredAt: at}, nil
}

func (r *RegistrationStore) Cancel(_ context.Context, eventID, userID int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registrations[eventID][userID]; !ok {
		return repository.ErrNotRegistered
	}
	delete(s.registrations[eventID], userID)
	return nil
}

// ListByEvent returns registrants most recent first.
func (r *RegistrationStore) ListByEvent(_ context.Context, eventID int64) ([]model.Registrant, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	type row struct {
		model.Registrant
		seq int64
	}
	rows := make([]row, 0, len(s.registrations[eventID]))
	for userID, reg := range s.registrations[eventID] {
		u := s.users[userID]
		rows = append(rows, row{
			Registrant: model.Registrant{UserID: userID, Name: u.Name, Email: u.Email, RegisteredAt: reg.at},
			seq:        reg.seq,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })
	out := make([]model.Registrant, len(rows))
	for i, rw := range rows {
		out[i] = rw.Registrant
	}
	return out, nil
}

func (r *RegistrationStore) CountByEvent(_ context.Context, eventID int64) (int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.registrations[eventID]), nil
}

// StatsStore mirrors repository.StatsRepository.
type StatsStore struct{ s *Store }

func (st *StatsStore) Statistics(_ context.Context) (*model.Statistics, error) {
	s := st.s
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &model.Statistics{
		TotalEvents: int64(len(s.events)),
		UsersByRole: map[model.Role]int64{},
	}
	today := s.now().Truncate(24 * time.Hour)
	for _, ev := range s.events {
		if !ev.Date.Before(today) {
			stats.UpcomingEvents++
		}
	}
	for _, regs := range s.registrations {
		stats.TotalRegistrations += int64(len(regs))
	}
	for _, u := range s.users {
		stats.UsersByRole[u.Role]++
	}
	return stats, nil
}
