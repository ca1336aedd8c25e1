// Package model defines the core domain types for the event admission system.
package model

import "time"

// Role is the coarse privilege level held by a user.
type Role string

const (
	RoleMember        Role = "member"
	RoleOrganizer     Role = "organizer"
	RoleAdministrator Role = "administrator"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleOrganizer, RoleAdministrator:
		return true
	}
	return false
}

// User is a row of the identity store. PasswordHash never leaves the process.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal is the authenticated identity attached to a single request.
type Principal struct {
	UserID int64
	Role   Role
}

// Event represents a bookable event created by an organizer.
type Event struct {
	ID              int64        `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Date            time.Time    `json:"date"`
	Location        string       `json:"location"`
	MaxAttendees    int          `json:"max_attendees"`
	CreatedBy       *int64       `json:"created_by"`
	CreatorName     *string      `json:"creator_name,omitempty"`
	CreatorEmail    *string      `json:"creator_email,omitempty"`
	RegisteredCount int          `json:"registered_count"`
	RegisteredUsers []Registrant `json:"registered_users,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// Remaining returns the number of available seats.
func (e *Event) Remaining() int {
	if e.RegisteredCount >= e.MaxAttendees {
		return 0
	}
	return e.MaxAttendees - e.RegisteredCount
}

// IsFull returns true when no seats remain.
func (e *Event) IsFull() bool {
	return e.RegisteredCount >= e.MaxAttendees
}

// OwnedBy reports whether userID created the event. Events without a
// creator are owned by nobody.
func (e *Event) OwnedBy(userID int64) bool {
	return e.CreatedBy != nil && *e.CreatedBy == userID
}

// Registration is the enrollment fact for one (event, user) pair.
type Registration struct {
	EventID      int64     `json:"event_id"`
	UserID       int64     `json:"user_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Registrant is a registration joined with the registered user's profile.
type Registrant struct {
	UserID       int64     `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Statistics is the administrative dashboard summary.
type Statistics struct {
	TotalEvents        int64          `json:"total_events"`
	TotalRegistrations int64          `json:"total_registrations"`
	UpcomingEvents     int64          `json:"upcoming_events"`
	UsersByRole        map[Role]int64 `json:"users_by_role"`
}

// SignupRequest is the payload for creating an account.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=200"`
}

// LoginRequest is the payload for exchanging credentials for a token.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title        string    `json:"title" validate:"required,max=300"`
	Description  string    `json:"description" validate:"max=10000"`
	Date         time.Time `json:"date" validate:"required"`
	Location     string    `json:"location" validate:"required,max=300"`
	MaxAttendees int       `json:"max_attendees" validate:"gte=0,lte=100000"`
}

// UpdateEventRequest is a partial update; nil fields are left unchanged.
type UpdateEventRequest struct {
	Title        *string    `json:"title" validate:"omitempty,min=1,max=300"`
	Description  *string    `json:"description" validate:"omitempty,max=10000"`
	Date         *time.Time `json:"date"`
	Location     *string    `json:"location" validate:"omitempty,min=1,max=300"`
	MaxAttendees *int       `json:"max_attendees" validate:"omitempty,gt=0,lte=100000"`
}

// SignupResponse is returned after a successful signup.
type SignupResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
}

// LoginResponse carries the bearer token and the caller's profile.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
