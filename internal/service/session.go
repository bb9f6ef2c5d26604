package service

import (
	"context"
	"time"

	"github.com/dom/bloghub/internal/domain"
	"github.com/google/uuid"
)

// Session is the authenticated state of one request. Views receive it
// through the request context and pass it to services explicitly.
type Session struct {
	ID        uuid.UUID
	Token     string
	User      *domain.User
	ExpiresAt time.Time
}

func (s *Session) UserID() uuid.UUID {
	if s == nil || s.User == nil {
		return uuid.Nil
	}
	return s.User.ID
}

type sessionKey struct{}

func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext returns the request's session, or nil for anonymous requests.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionKey{}).(*Session)
	return sess
}
