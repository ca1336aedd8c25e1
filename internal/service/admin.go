package service

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
)

// AdminService serves the administrator dashboard views.
type AdminService struct {
	users  UserStore
	events EventStore
	stats  StatsStore
}

func NewAdminService(users UserStore, events EventStore, stats StatsStore) *AdminService {
	return &AdminService{users: users, events: events, stats: stats}
}

func (s *AdminService) Statistics(ctx context.Context) (*model.Statistics, error) {
	stats, err := s.stats.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	return stats, nil
}

func (s *AdminService) Users(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func (s *AdminService) Events(ctx context.Context) ([]model.Event, error) {
	events, err := s.events.ListWithCreators(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}
