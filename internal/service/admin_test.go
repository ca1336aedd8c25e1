package service

import (
	"context"
	"testing"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminViews(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	svc := NewAdminService(store, store.events(), store)

	users, err := svc.Users(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	organizer := store.addUser(model.RoleOrganizer)
	store.addUser(model.RoleMember)
	store.addUser(model.RoleMember)
	_, err = store.events().Create(ctx, validEvent(), organizer.UserID)
	require.NoError(t, err)

	stats, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalEvents)
	assert.Equal(t, int64(2), stats.UsersByRole[model.RoleMember])
	assert.Equal(t, int64(1), stats.UsersByRole[model.RoleOrganizer])

	events, err := svc.Events(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
