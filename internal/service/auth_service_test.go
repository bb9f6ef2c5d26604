package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dom/bloghub/internal/domain"
	"github.com/dom/bloghub/internal/service"
	"github.com/dom/bloghub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func TestAuthService_Register(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testutil.NewUserBuilder().WithEmail("taken@x.com").Build(t, f.db.DB)

	tests := []struct {
		name    string
		input   service.RegisterInput
		wantErr error
	}{
		{
			name:  "successful registration",
			input: service.RegisterInput{FullName: "Ann", Email: "ann@x.com", Password: "secret123"},
		},
		{
			name: "optional profile fields",
			input: service.RegisterInput{
				FullName: "Ben", Email: "ben@x.com", Password: "secret123",
				Gender: strPtr("male"), Age: intPtr(40),
			},
		},
		{
			name:    "duplicate email differing in case",
			input:   service.RegisterInput{FullName: "Dup", Email: "TAKEN@x.com", Password: "secret123"},
			wantErr: service.ErrEmailExists,
		},
		{
			name:    "missing full name",
			input:   service.RegisterInput{FullName: "  ", Email: "c@x.com", Password: "secret123"},
			wantErr: domain.ErrFullNameRequired,
		},
		{
			name:    "full name too long",
			input:   service.RegisterInput{FullName: strings.Repeat("n", domain.MaxFullNameLength+1), Email: "c@x.com", Password: "secret123"},
			wantErr: domain.ErrFullNameTooLong,
		},
		{
			name:    "gender too long",
			input:   service.RegisterInput{FullName: "C", Email: "c@x.com", Password: "secret123", Gender: strPtr(strings.Repeat("g", domain.MaxGenderLength+1))},
			wantErr: domain.ErrGenderTooLong,
		},
		{
			name:    "bad email",
			input:   service.RegisterInput{FullName: "C", Email: "not-an-email", Password: "secret123"},
			wantErr: domain.ErrInvalidEmail,
		},
		{
			name:    "short password",
			input:   service.RegisterInput{FullName: "C", Email: "c@x.com", Password: "short"},
			wantErr: domain.ErrPasswordTooShort,
		},
		{
			name:    "age out of range",
			input:   service.RegisterInput{FullName: "C", Email: "c@x.com", Password: "secret123", Age: intPtr(0)},
			wantErr: domain.ErrInvalidAge,
		},
		{
			name:    "unknown role",
			input:   service.RegisterInput{FullName: "C", Email: "c@x.com", Password: "secret123", Role: "OWNER"},
			wantErr: domain.ErrInvalidRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.db.Count(t, "users")

			result, err := f.services.Auth.Register(ctx, tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
				assert.Equal(t, before, f.db.Count(t, "users"), "failed registration must not create a user")
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, result.Token)
			assert.Empty(t, result.User.PasswordHash)
			assert.Equal(t, domain.RoleEditor, result.User.Role)
			assert.Equal(t, strings.ToLower(tt.input.Email), result.User.Email)
			assert.Equal(t, before+1, f.db.Count(t, "users"))
		})
	}
}

func TestAuthService_RegisterStoresDigest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.services.Auth.Register(ctx, service.RegisterInput{FullName: "Ann", Email: "ann@x.com", Password: "secret123"})
	require.NoError(t, err)

	stored, err := f.repos.User.GetByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"), "expected a bcrypt digest")
	assert.Equal(t, int64(1), f.db.Count(t, "user_sessions"), "register logs the user in")
}

func TestAuthService_Login(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, password := testutil.NewUserBuilder().WithEmail("ann@x.com").Build(t, f.db.DB)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid credentials", email: user.Email, password: password},
		{name: "email is case-insensitive", email: " ANN@X.COM ", password: password},
		{name: "wrong password", email: user.Email, password: "wrongpassword", wantErr: service.ErrInvalidCredentials},
		{name: "unknown email", email: "nobody@x.com", password: password, wantErr: service.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := f.services.Auth.Login(ctx, service.LoginInput{
				Email:    tt.email,
				Password: tt.password,
				Device:   domain.DeviceInfo{UserAgent: "test-agent"},
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Len(t, result.Token, 64)
			assert.Equal(t, user.ID, result.User.ID)
			assert.Empty(t, result.User.PasswordHash)
			assert.WithinDuration(t, time.Now().Add(time.Hour), result.ExpiresAt, time.Minute)
		})
	}
}

func TestAuthService_LoginRecordsDevice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, password := testutil.NewUserBuilder().Build(t, f.db.DB)
	_, err := f.services.Auth.Login(ctx, service.LoginInput{
		Email:    user.Email,
		Password: password,
		Device:   domain.DeviceInfo{UserAgent: "Mozilla/5.0", Platform: "macOS", Language: "en-US"},
	})
	require.NoError(t, err)

	var row domain.UserSession
	require.NoError(t, f.db.DB.First(&row, "user_id = ?", user.ID).Error)
	device := row.DeviceInfo.Data()
	assert.Equal(t, "Mozilla/5.0", device.UserAgent)
	assert.Equal(t, "macOS", device.Platform)
	assert.False(t, device.Timestamp.IsZero())
	assert.Len(t, row.TokenHash, 64)
}

func TestAuthService_CheckAuth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, password := testutil.NewUserBuilder().Build(t, f.db.DB)
	other, _ := testutil.NewUserBuilder().Build(t, f.db.DB)

	login := func(t *testing.T) *service.AuthResult {
		t.Helper()
		result, err := f.services.Auth.Login(ctx, service.LoginInput{Email: user.Email, Password: password})
		require.NoError(t, err)
		return result
	}

	t.Run("valid stored auth", func(t *testing.T) {
		result := login(t)
		sess, err := f.services.Auth.CheckAuth(ctx, service.StoredAuth{Token: result.Token, User: result.User})
		require.NoError(t, err)
		assert.Equal(t, user.ID, sess.UserID())
		assert.Equal(t, result.Token, sess.Token)
	})

	t.Run("nothing stored", func(t *testing.T) {
		_, err := f.services.Auth.CheckAuth(ctx, service.StoredAuth{})
		assert.ErrorIs(t, err, service.ErrNoSession)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := f.services.Auth.CheckAuth(ctx, service.StoredAuth{Token: "deadbeef", User: user})
		assert.ErrorIs(t, err, service.ErrSessionNotFound)
	})

	t.Run("token belongs to another user", func(t *testing.T) {
		result := login(t)
		_, err := f.services.Auth.CheckAuth(ctx, service.StoredAuth{Token: result.Token, User: other})
		assert.ErrorIs(t, err, service.ErrSessionNotFound)
	})

	t.Run("logged out", func(t *testing.T) {
		result := login(t)
		require.NoError(t, f.services.Auth.Logout(ctx, result.Token))
		_, err := f.services.Auth.CheckAuth(ctx, service.StoredAuth{Token: result.Token, User: result.User})
		assert.ErrorIs(t, err, service.ErrSessionLoggedOut)
		assert.True(t, service.IsAuthError(err))
	})
}

func TestAuthService_SessionExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := f.services.Auth

	now := time.Now().UTC()
	auth.SetClock(func() time.Time { return now })

	user, password := testutil.NewUserBuilder().Build(t, f.db.DB)
	result, err := auth.Login(ctx, service.LoginInput{Email: user.Email, Password: password})
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), result.ExpiresAt, time.Second)

	now = now.Add(59 * time.Minute)
	_, err = auth.ValidateToken(ctx, result.Token)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = auth.ValidateToken(ctx, result.Token)
	assert.ErrorIs(t, err, service.ErrSessionExpired)

	_, err = auth.CheckAuth(ctx, service.StoredAuth{Token: result.Token, User: result.User})
	assert.ErrorIs(t, err, service.ErrSessionExpired)
}

func TestAuthService_Logout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, password := testutil.NewUserBuilder().Build(t, f.db.DB)
	result, err := f.services.Auth.Login(ctx, service.LoginInput{Email: user.Email, Password: password})
	require.NoError(t, err)

	require.NoError(t, f.services.Auth.Logout(ctx, result.Token))
	require.NoError(t, f.services.Auth.Logout(ctx, result.Token), "second logout is a no-op")
	require.NoError(t, f.services.Auth.Logout(ctx, ""), "no token is a no-op")

	_, err = f.services.Auth.ValidateToken(ctx, result.Token)
	assert.ErrorIs(t, err, service.ErrSessionLoggedOut)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.signIn(t, "Before")

	tests := []struct {
		name    string
		update  service.ProfileUpdate
		check   func(t *testing.T, u *domain.User)
		wantErr error
	}{
		{
			name:   "rename",
			update: service.ProfileUpdate{FullName: strPtr("  After ")},
			check: func(t *testing.T, u *domain.User) {
				assert.Equal(t, "After", u.FullName)
			},
		},
		{
			name:   "set gender and age",
			update: service.ProfileUpdate{Gender: strPtr("female"), Age: intPtr(33)},
			check: func(t *testing.T, u *domain.User) {
				require.NotNil(t, u.Gender)
				assert.Equal(t, "female", *u.Gender)
				require.NotNil(t, u.Age)
				assert.Equal(t, 33, *u.Age)
				assert.Equal(t, "After", u.FullName, "unset fields are untouched")
			},
		},
		{
			name:   "empty gender clears it",
			update: service.ProfileUpdate{Gender: strPtr("")},
			check: func(t *testing.T, u *domain.User) {
				assert.Nil(t, u.Gender)
				require.NotNil(t, u.Age)
			},
		},
		{
			name:    "blank name rejected",
			update:  service.ProfileUpdate{FullName: strPtr(" ")},
			wantErr: domain.ErrFullNameRequired,
		},
		{
			name:    "long name rejected",
			update:  service.ProfileUpdate{FullName: strPtr(strings.Repeat("n", domain.MaxFullNameLength+1))},
			wantErr: domain.ErrFullNameTooLong,
		},
		{
			name:    "long gender rejected",
			update:  service.ProfileUpdate{Gender: strPtr(strings.Repeat("g", domain.MaxGenderLength+1))},
			wantErr: domain.ErrGenderTooLong,
		},
		{
			name:    "age out of range",
			update:  service.ProfileUpdate{Age: intPtr(151)},
			wantErr: domain.ErrInvalidAge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := f.services.Auth.UpdateProfile(ctx, sess, tt.update)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, user.PasswordHash)
			tt.check(t, user)
		})
	}

	_, err := f.services.Auth.UpdateProfile(ctx, nil, service.ProfileUpdate{})
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
}

func TestAuthService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := f.services.Auth

	user, password := testutil.NewUserBuilder().Build(t, f.db.DB)
	login := func() *service.AuthResult {
		result, err := auth.Login(ctx, service.LoginInput{Email: user.Email, Password: password})
		require.NoError(t, err)
		return result
	}
	current := login()
	otherDevice := login()

	sess, err := auth.ValidateToken(ctx, current.Token)
	require.NoError(t, err)

	assert.ErrorIs(t, auth.ChangePassword(ctx, sess, "wrong-password", "newpassword1"), service.ErrIncorrectPassword)
	assert.ErrorIs(t, auth.ChangePassword(ctx, sess, password, "short"), domain.ErrPasswordTooShort)

	require.NoError(t, auth.ChangePassword(ctx, sess, password, "newpassword1"))

	_, err = auth.ValidateToken(ctx, current.Token)
	assert.NoError(t, err, "calling session stays valid")
	_, err = auth.ValidateToken(ctx, otherDevice.Token)
	assert.ErrorIs(t, err, service.ErrSessionLoggedOut)

	_, err = auth.Login(ctx, service.LoginInput{Email: user.Email, Password: password})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = auth.Login(ctx, service.LoginInput{Email: user.Email, Password: "newpassword1"})
	assert.NoError(t, err)
}

func TestAuthService_PruneSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := f.services.Auth

	now := time.Now().UTC().Add(-48 * time.Hour)
	auth.SetClock(func() time.Time { return now })

	user, password := testutil.NewUserBuilder().Build(t, f.db.DB)
	_, err := auth.Login(ctx, service.LoginInput{Email: user.Email, Password: password})
	require.NoError(t, err)

	now = time.Now().UTC()
	fresh, err := auth.Login(ctx, service.LoginInput{Email: user.Email, Password: password})
	require.NoError(t, err)

	n, err := auth.PruneSessions(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = auth.ValidateToken(ctx, fresh.Token)
	assert.NoError(t, err)
}

func TestAuthService_PromoteToAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().WithEmail("boss@x.com").Build(t, f.db.DB)

	require.NoError(t, f.services.Auth.PromoteToAdmin(ctx, "Boss@X.com"))
	got, err := f.services.Auth.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())

	assert.ErrorIs(t, f.services.Auth.PromoteToAdmin(ctx, "ghost@x.com"), service.ErrUserNotFound)
}
