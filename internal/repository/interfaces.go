package repository

import (
	"context"
	"time"

	"github.com/dom/bloghub/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// UpdateFields writes only the given columns and returns the stored row.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	SetRole(ctx context.Context, email string, role domain.Role) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.UserSession) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.UserSession, error)
	// MarkLoggedOut sets logout_at on the matching session if it is still unset.
	MarkLoggedOut(ctx context.Context, tokenHash string, at time.Time) error
	// RevokeOthers logs out every active session of the user except keepID.
	RevokeOthers(ctx context.Context, userID, keepID uuid.UUID, at time.Time) (int64, error)
	// DeleteInactive removes sessions that expired or were logged out before cutoff.
	DeleteInactive(ctx context.Context, cutoff time.Time) (int64, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Post, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Post, error)
	// Delete removes the post together with its likes and comments.
	Delete(ctx context.Context, id uuid.UUID) error
	Totals(ctx context.Context) (*domain.FeedTotals, error)
}

type LikeRepository interface {
	// Create inserts the like unless the user already liked the post.
	// It reports whether a new row was written.
	Create(ctx context.Context, like *domain.Like) (bool, error)
	Delete(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	CountByPostIDs(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int, error)
	LikedPostIDs(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByPostID(ctx context.Context, postID uuid.UUID) ([]*domain.Comment, error)
	ListByPostIDs(ctx context.Context, postIDs []uuid.UUID) ([]*domain.Comment, error)
}

type Repositories struct {
	User    UserRepository
	Session SessionRepository
	Post    PostRepository
	Like    LikeRepository
	Comment CommentRepository
}
