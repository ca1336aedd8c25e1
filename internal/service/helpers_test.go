package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/Shivanand-hulikatti/event-admission/internal/repository/memory"
)

// memStore exposes the in-memory repositories under the service store
// interfaces, plus a few seeding helpers.
type memStore struct {
	*memory.UserStore
	*memory.RegistrationStore
	*memory.StatsStore
	db    *memory.Store
	users int
}

func newMemStore() *memStore {
	db := memory.New()
	return &memStore{
		UserStore:         db.Users(),
		RegistrationStore: db.Registrations(),
		StatsStore:        db.Stats(),
		db:                db,
	}
}

func (m *memStore) events() *memory.EventStore { return m.db.Events() }

func (m *memStore) addUser(role model.Role) model.Principal {
	m.users++
	u, err := m.UserStore.Create(context.Background(), model.User{
		Email:        fmt.Sprintf("user%d@example.com", m.users),
		Name:         fmt.Sprintf("User %d", m.users),
		PasswordHash: "unused",
		Role:         role,
	})
	if err != nil {
		panic(err)
	}
	return model.Principal{UserID: u.ID, Role: u.Role}
}

func (m *memStore) occupancy(eventID int64) int {
	n, _ := m.CountByEvent(context.Background(), eventID)
	return n
}

type countingRecorder struct {
	mu         sync.Mutex
	register   map[string]int
	unregister map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{register: map[string]int{}, unregister: map[string]int{}}
}

func (c *countingRecorder) RecordRegister(outcome string) {
	c.mu.Lock()
	c.register[outcome]++
	c.mu.Unlock()
}

func (c *countingRecorder) RecordUnregister(outcome string) {
	c.mu.Lock()
	c.unregister[outcome]++
	c.mu.Unlock()
}
