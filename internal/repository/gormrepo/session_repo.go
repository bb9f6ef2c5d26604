package gormrepo

import (
	"context"
	"time"

	"github.com/dom/bloghub/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.UserSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(session).Error)
}

func (r *sessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.UserSession, error) {
	var session domain.UserSession
	err := r.db.WithContext(ctx).First(&session, "token_hash = ?", tokenHash).Error
	if err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (r *sessionRepository) MarkLoggedOut(ctx context.Context, tokenHash string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.UserSession{}).
		Where("token_hash = ? AND logout_at IS NULL", tokenHash).
		Update("logout_at", at).Error
}

func (r *sessionRepository) RevokeOthers(ctx context.Context, userID, keepID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.UserSession{}).
		Where("user_id = ? AND id <> ? AND logout_at IS NULL", userID, keepID).
		Update("logout_at", at)
	return res.RowsAffected, res.Error
}

func (r *sessionRepository) DeleteInactive(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR (logout_at IS NOT NULL AND logout_at < ?)", cutoff, cutoff).
		Delete(&domain.UserSession{})
	return res.RowsAffected, res.Error
}
