package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-admission/internal/auth"
	"github.com/Shivanand-hulikatti/event-admission/internal/config"
	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/Shivanand-hulikatti/event-admission/internal/repository"
	"github.com/Shivanand-hulikatti/event-admission/internal/repository/memory"
	"github.com/Shivanand-hulikatti/event-admission/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	db      *memory.Store
	tokens  *auth.TokenManager
	handler http.Handler
	users   int
}

func newTestServer(t *testing.T, rl config.RateLimitConfig) *testServer {
	t.Helper()
	db := memory.New()
	tokens := auth.NewTokenManager("handler-test-secret", time.Hour, "test")
	logger := zerolog.Nop()
	users := db.Users()

	svc := Services{
		Verifier:  auth.NewVerifier(tokens, users),
		Auth:      service.NewAuthService(users, tokens, logger),
		Events:    service.NewEventService(db.Events(), db.Registrations(), 50, logger),
		Admission: service.NewAdmissionService(db.Registrations(), nil, logger),
		Admin:     service.NewAdminService(users, db.Events(), db.Stats()),
	}
	return &testServer{
		db:      db,
		tokens:  tokens,
		handler: NewRouter(svc, config.Config{RateLimit: rl}, logger),
	}
}

// user seeds an account and returns its principal and bearer token.
func (s *testServer) user(t *testing.T, role model.Role) (model.Principal, string) {
	t.Helper()
	s.users++
	u, err := s.db.Users().Create(context.Background(), model.User{
		Email:        fmt.Sprintf("u%d@example.com", s.users),
		Name:         fmt.Sprintf("User %d", s.users),
		PasswordHash: "unused",
		Role:         role,
	})
	require.NoError(t, err)
	token, _, err := s.tokens.Generate(u.ID, u.Role)
	require.NoError(t, err)
	return model.Principal{UserID: u.ID, Role: u.Role}, token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func eventBody(maxAttendees int) map[string]any {
	return map[string]any{
		"title":         "Go Meetup",
		"date":          time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"location":      "Hall A",
		"max_attendees": maxAttendees,
	}
}

func (s *testServer) createEvent(t *testing.T, token string, maxAttendees int) model.Event {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/events", token, eventBody(maxAttendees))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var event model.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))
	return event
}

func TestProtectedRoutesRequireCredential(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{})
	_, organizer := s.user(t, model.RoleOrganizer)
	event := s.createEvent(t, organizer, 5)
	eventPath := fmt.Sprintf("/events/%d", event.ID)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/auth/me"},
		{http.MethodPost, "/auth/logout"},
		{http.MethodPost, "/events"},
		{http.MethodPut, eventPath},
		{http.MethodDelete, eventPath},
		{http.MethodPost, eventPath + "/register"},
		{http.MethodDelete, eventPath + "/unregister"},
		{http.MethodGet, "/admin/statistics"},
		{http.MethodGet, "/admin/users"},
		{http.MethodGet, "/admin/events"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := s.do(t, rt.method, rt.path, "", eventBody(3))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "authentication required", errorMessage(t, rec))

			rec = s.do(t, rt.method, rt.path, "not-a-jwt", eventBody(3))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			forged, _, err := auth.NewTokenManager("some-other-secret", time.Hour, "test").Generate(1, model.RoleAdministrator)
			require.NoError(t, err)
			rec = s.do(t, rt.method, rt.path, forged, eventBody(3))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "invalid token", errorMessage(t, rec))
		})
	}

	// None of the rejected requests reached a handler.
	events, err := s.db.Events().List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Go Meetup", events[0].Title)
	assert.Equal(t, 0, events[0].RegisteredCount)
}

func TestTokenForUnknownUserIsRejected(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{})
	token, _, err := s.tokens.Generate(4242, model.RoleAdministrator)
	require.NoError(t, err)

	rec := s.do(t, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid token", errorMessage(t, rec))
}

func TestRoleRequirements(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{})
	_, member := s.user(t, model.RoleMember)
	_, organizer := s.user(t, model.RoleOrganizer)
	_, admin := s.user(t, model.RoleAdministrator)

	rec := s.do(t, http.MethodPost, "/events", member, eventBody(5))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "access denied", errorMessage(t, rec))

	rec = s.do(t, http.MethodGet, "/admin/users", organizer, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(t, http.MethodGet, "/admin/statistics", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats model.Statistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.UsersByRole[model.RoleMember])

	s.createEvent(t, admin, 5)
	rec = s.do(t, http.MethodGet, "/admin/events", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []model.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
	require.NotNil(t, events[0].CreatorEmail)
}

func TestEventOwnership(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{})
	_, owner := s.user(t, model.RoleOrganizer)
	_, other := s.user(t, model.RoleOrganizer)
	_, admin := s.user(t, model.RoleAdministrator)

	event := s.createEvent(t, owner, 10)
	path := fmt.Sprintf("/events/%d", event.ID)

	rec := s.do(t, http.MethodPut, path, other, map[string]any{"title": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "you can only edit your own events", errorMessage(t, rec))

	rec = s.do(t, http.MethodDelete, path, other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "you can only delete your own events", errorMessage(t, rec))

	rec = s.do(t, http.MethodPut, path, owner, map[string]any{"title": "Renamed"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, path, admin, map[string]any{"location": "Hall B"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated model.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "Hall B", updated.Location)

	rec = s.do(t, http.MethodDelete, path, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodDelete, path, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "event not found", errorMessage(t, rec))
}

func TestUpdateBelowOccupancyConflicts(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{})
	_, owner := s.user(t, model.RoleOrganizer)
	event := s.createEvent(t, owner, 5)
	path := fmt.Sprintf("/events/%d", event.ID)

	for i := 0; i < 2; i++ {
		_, token := s.user(t, model.RoleMember)
		require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, path+"/register", token, nil).Code)
	}

	rec := s.do(t, http.MethodPut, path, owner, map[string]any{"max_attendees": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPut, path, owner, map[string]any{"max_attendees": 2})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdmissionStatusMapping(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{})
	_, organizer := s.user(t, model.RoleOrganizer)
	alice, aliceToken := s.user(t, model.RoleMember)
	_, bobToken := s.user(t, model.RoleMember)

	event := s.createEvent(t, organizer, 1)
	path := fmt.Sprintf("/events/%d", event.ID)

	rec := s.do(t, http.MethodPost, path+"/register", aliceToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var reg model.Registration
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))
	assert.Equal(t, alice.UserID, reg.UserID)

	rec = s.do(t, http.MethodPost, path+"/register", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "you are already registered for this event", errorMessage(t, rec))

	rec = s.do(t, http.MethodPost, path+"/register", bobToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "event is full", errorMessage(t, rec))

	rec = s.do(t, http.MethodPost, "/events/99999/register", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "event not found", errorMessage(t, rec))

	rec = s.do(t, http.MethodPost, "/events/abc/register", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, path+"/unregister", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "you are not registered for this event", errorMessage(t, rec))

	// The registrant list is public.
	rec = s.do(t, http.MethodGet, path+"/registrations", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var regs []model.Registrant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &regs))
	require.Len(t, regs, 1)
	assert.Equal(t, alice.UserID, regs[0].UserID)

	rec = s.do(t, http.MethodDelete, path+"/unregister", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, path+"/register", bobToken, nil)
	assert.Equal(t, http.StatusCreated, rec.Code, "freed seat is available again")

	rec = s.do(t, http.MethodGet, "/events/99999/registrations", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestSignupLoginMe(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{})
	signup := map[string]any{"email": "Grace@Example.com", "password": "hopper1906", "name": "Grace"}

	rec := s.do(t, http.MethodPost, "/auth/signup", "", signup)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created model.SignupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Positive(t, created.UserID)

	rec = s.do(t, http.MethodPost, "/auth/signup", "", signup)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email already registered", errorMessage(t, rec))

	rec = s.do(t, http.MethodPost, "/auth/signup", "", map[string]any{"email": "x@example.com", "password": "hopper1906"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name is required", errorMessage(t, rec))

	rec = s.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "grace@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", errorMessage(t, rec))

	rec = s.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "grace@example.com", "password": "hopper1906"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login model.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)
	assert.Equal(t, model.RoleMember, login.User.Role)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(t, http.MethodGet, "/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, created.UserID, me.ID)
	assert.Equal(t, "grace@example.com", me.Email)

	rec = s.do(t, http.MethodPost, "/auth/logout", login.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRateLimit(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{LoginPer15Minutes: 2})
	body := map[string]any{}

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodPost, "/auth/login", "", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}

	rec := s.do(t, http.MethodPost, "/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "450", rec.Header().Get("Retry-After"))

	// Other routes do not share the login budget.
	rec = s.do(t, http.MethodGet, "/events", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestBodyRules(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{})
	_, organizer := s.user(t, model.RoleOrganizer)

	body := eventBody(5)
	body["price"] = 10
	rec := s.do(t, http.MethodPost, "/events", organizer, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "unknown field")

	huge := `{"title":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	rec = s.do(t, http.MethodPost, "/events", organizer, huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestListAndGetEvents(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{})

	rec := s.do(t, http.MethodGet, "/events", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	_, organizer := s.user(t, model.RoleOrganizer)
	event := s.createEvent(t, organizer, 0)
	assert.Equal(t, 50, event.MaxAttendees)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/events/%d", event.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, event.ID, got.ID)
	assert.Nil(t, got.CreatorEmail)

	rec = s.do(t, http.MethodGet, "/events/31337", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndCorrelationID(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{})

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{&service.ValidationError{Field: "title", Message: "is required"}, http.StatusBadRequest, "title is required"},
		{&service.OwnershipError{Action: "edit"}, http.StatusForbidden, "you can only edit your own events"},
		{auth.ErrForbidden, http.StatusForbidden, "access denied"},
		{auth.ErrUnauthenticated, http.StatusUnauthorized, "authentication required"},
		{fmt.Errorf("wrapped: %w", repository.ErrNotFound), http.StatusNotFound, "event not found"},
		{repository.ErrCapacityBelowOccupancy, http.StatusConflict, "max_attendees cannot be lower than the current number of registrations"},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			status, msg := errorStatus(tt.err, "event")
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.msg, msg)
		})
	}
}
