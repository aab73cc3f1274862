package session

import (
	"strings"
	"time"
)

// Role is the platform role assigned to a user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleUser     Role = "user"
	RoleReviewer Role = "reviewer"
)

// Valid reports whether r is one of the roles the platform issues.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleReviewer:
		return true
	default:
		return false
	}
}

// Identity is the authenticated user's profile as returned by the backend.
type Identity struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Username   string     `json:"username,omitempty"`
	Theme      string     `json:"theme"`
	Role       Role       `json:"role"`
	IsActive   bool       `json:"is_active,omitempty"`
	IsStaff    bool       `json:"is_staff,omitempty"`
	DateJoined *time.Time `json:"date_joined,omitempty"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// DisplayName returns the best human-facing label for the identity.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	for _, candidate := range []string{i.Name, i.Username, i.Email} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func (i *Identity) clone() *Identity {
	if i == nil {
		return nil
	}
	cp := *i
	return &cp
}

// State is an immutable snapshot of the session.
type State struct {
	Identity      *Identity
	Credential    string
	Authenticated bool
}

func newState(identity *Identity, credential string) State {
	return State{
		Identity:      identity.clone(),
		Credential:    credential,
		Authenticated: credential != "",
	}
}

func (s State) anonymous() bool {
	return s.Credential == "" && s.Identity == nil
}
