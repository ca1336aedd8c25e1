package auth

import "github.com/Shivanand-hulikatti/event-admission/internal/model"

// RoleSet is the set of roles a route accepts.
type RoleSet map[model.Role]struct{}

func NewRoleSet(roles ...model.Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Contains reports whether role is in the set.
func (s RoleSet) Contains(role model.Role) bool {
	_, ok := s[role]
	return ok
}

var (
	AnyAuthenticated = NewRoleSet(model.RoleMember, model.RoleOrganizer, model.RoleAdministrator)
	EventManagers    = NewRoleSet(model.RoleOrganizer, model.RoleAdministrator)
	Administrators   = NewRoleSet(model.RoleAdministrator)
)

// Authorize checks a held role against a route's requirement. An empty
// requirement marks a public route and always passes.
func Authorize(role model.Role, required RoleSet) error {
	if len(required) == 0 {
		return nil
	}
	if role == "" {
		return ErrUnauthenticated
	}
	if !required.Contains(role) {
		return ErrForbidden
	}
	return nil
}
