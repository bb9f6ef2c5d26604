package gormrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/bloghub/internal/domain"
	"github.com/dom/bloghub/internal/repository"
	"github.com/dom/bloghub/internal/repository/gormrepo"
	"github.com/dom/bloghub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newSession(user *domain.User, hash string, loginAt time.Time) *domain.UserSession {
	return &domain.UserSession{
		UserID:     user.ID,
		TokenHash:  hash,
		LoginAt:    loginAt,
		ExpiresAt:  loginAt.Add(24 * time.Hour),
		DeviceInfo: datatypes.NewJSONType(domain.DeviceInfo{UserAgent: "test-agent", Timestamp: loginAt}),
	}
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := gormrepo.NewSessionRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Create(ctx, newSession(user, "hash-1", now)))

	got, err := repo.GetByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
	assert.Nil(t, got.LogoutAt)
	assert.True(t, got.ExpiresAt.Equal(now.Add(24*time.Hour)))
	assert.Equal(t, "test-agent", got.DeviceInfo.Data().UserAgent)

	_, err = repo.GetByTokenHash(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionRepository_MarkLoggedOutIsIdempotent(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := gormrepo.NewSessionRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.Create(ctx, newSession(user, "hash-1", now)))

	first := now.Add(time.Minute)
	require.NoError(t, repo.MarkLoggedOut(ctx, "hash-1", first))
	require.NoError(t, repo.MarkLoggedOut(ctx, "hash-1", first.Add(time.Hour)))
	require.NoError(t, repo.MarkLoggedOut(ctx, "unknown", first))

	got, err := repo.GetByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	require.NotNil(t, got.LogoutAt)
	assert.True(t, got.LogoutAt.Equal(first), "second logout must not move logout_at")
}

func TestSessionRepository_RevokeOthers(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := gormrepo.NewSessionRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	other, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	now := time.Now().UTC()

	keep := newSession(user, "keep", now)
	require.NoError(t, repo.Create(ctx, keep))
	require.NoError(t, repo.Create(ctx, newSession(user, "drop-1", now)))
	require.NoError(t, repo.Create(ctx, newSession(user, "drop-2", now)))
	require.NoError(t, repo.Create(ctx, newSession(other, "other", now)))

	n, err := repo.RevokeOthers(ctx, user.ID, keep.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for hash, wantActive := range map[string]bool{"keep": true, "drop-1": false, "drop-2": false, "other": true} {
		got, err := repo.GetByTokenHash(ctx, hash)
		require.NoError(t, err)
		assert.Equal(t, wantActive, got.LogoutAt == nil, hash)
	}
}

func TestSessionRepository_DeleteInactive(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := gormrepo.NewSessionRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, newSession(user, "expired", now.Add(-72*time.Hour))))
	require.NoError(t, repo.Create(ctx, newSession(user, "active", now)))
	loggedOut := newSession(user, "logged-out", now.Add(-2*time.Hour))
	require.NoError(t, repo.Create(ctx, loggedOut))
	require.NoError(t, repo.MarkLoggedOut(ctx, "logged-out", now.Add(-time.Hour)))

	n, err := repo.DeleteInactive(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = repo.GetByTokenHash(ctx, "active")
	assert.NoError(t, err)
	_, err = repo.GetByTokenHash(ctx, "expired")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
