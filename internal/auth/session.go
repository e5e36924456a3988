package auth

import (
	"context"

	"apontamento/backend/pkg/models"
)

// Session is the authenticated caller of a request.
type Session struct {
	Token      string      `json:"-"`
	Role       models.Role `json:"role"`
	EmployeeID int64       `json:"funcionarioId"`
	Email      string      `json:"email"`
}

// IsGestor reports whether the session carries the manager role.
func (s *Session) IsGestor() bool {
	return s != nil && s.Role == models.RoleGestor
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored by RequireAuth.
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

// EmployeeID returns the caller's employee id, or zero without a session.
func EmployeeID(ctx context.Context) int64 {
	if s, ok := SessionFrom(ctx); ok {
		return s.EmployeeID
	}
	return 0
}
