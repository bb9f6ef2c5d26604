package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dom/bloghub/internal/config"
	"github.com/dom/bloghub/internal/domain"
	"github.com/dom/bloghub/internal/metrics"
	"github.com/dom/bloghub/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

const tokenBytes = 32

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoSession          = errors.New("no session")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionLoggedOut   = errors.New("session logged out")
	ErrSessionExpired     = errors.New("session expired")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrIncorrectPassword  = errors.New("current password is incorrect")
	ErrUserNotFound       = errors.New("user not found")
)

// IsAuthError reports whether err means the caller has no valid session.
func IsAuthError(err error) bool {
	for _, target := range []error{
		ErrInvalidCredentials,
		ErrNoSession,
		ErrSessionNotFound,
		ErrSessionLoggedOut,
		ErrSessionExpired,
		ErrNotAuthenticated,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	ttl         time.Duration
	now         func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		ttl:         cfg.SessionTTL,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source. Tests use it to move past expiry.
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}

type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Gender   *string
	Age      *int
	Role     domain.Role
	Device   domain.DeviceInfo
}

type LoginInput struct {
	Email    string
	Password string
	Device   domain.DeviceInfo
}

// AuthResult is what a successful login hands back. User never carries the
// password digest.
type AuthResult struct {
	Token     string
	User      *domain.User
	ExpiresAt time.Time
}

// StoredAuth is the browser-side copy of a login: the token plus the user
// snapshot taken at login time.
type StoredAuth struct {
	Token string
	User  *domain.User
}

type ProfileUpdate struct {
	FullName *string
	Gender   *string
	Age      *int
}

func (in *RegisterInput) validate() error {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = domain.NormalizeEmail(in.Email)
	if err := domain.ValidateFullName(in.FullName); err != nil {
		return err
	}
	if err := domain.ValidateEmail(in.Email); err != nil {
		return err
	}
	if err := domain.ValidatePassword(in.Password); err != nil {
		return err
	}
	if err := domain.ValidateAge(in.Age); err != nil {
		return err
	}
	if in.Role == "" {
		in.Role = domain.RoleEditor
	}
	if !in.Role.IsValid() {
		return domain.ErrInvalidRole
	}
	if in.Gender != nil {
		gender := strings.TrimSpace(*in.Gender)
		if err := domain.ValidateGender(gender); err != nil {
			return err
		}
		in.Gender = &gender
		if gender == "" {
			in.Gender = nil
		}
	}
	return nil
}

// Register creates the account and logs it in with the same credentials.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	result, err := s.register(ctx, input)
	metrics.AuthEvents.WithLabelValues("register", metrics.Outcome(err)).Inc()
	return result, err
}

func (s *AuthService) register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		FullName:     input.FullName,
		Gender:       input.Gender,
		Age:          input.Age,
		Role:         input.Role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.Login(ctx, LoginInput{
		Email:    input.Email,
		Password: input.Password,
		Device:   input.Device,
	})
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	result, err := s.login(ctx, input)
	metrics.AuthEvents.WithLabelValues("login", metrics.Outcome(err)).Inc()
	return result, err
}

func (s *AuthService) login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, domain.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	device := input.Device
	if device.Timestamp.IsZero() {
		device.Timestamp = now
	}
	session := &domain.UserSession{
		ID:         uuid.New(),
		UserID:     user.ID,
		TokenHash:  hashToken(token),
		LoginAt:    now,
		ExpiresAt:  now.Add(s.ttl),
		DeviceInfo: datatypes.NewJSONType(device),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &AuthResult{
		Token:     token,
		User:      user.Sanitized(),
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Logout marks the token's session as logged out. Unknown or already
// logged-out tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := s.sessionRepo.MarkLoggedOut(ctx, hashToken(token), s.now())
	metrics.AuthEvents.WithLabelValues("logout", metrics.Outcome(err)).Inc()
	return err
}

// CheckAuth validates the stored token against the session table and
// restores the session from the stored user snapshot.
func (s *AuthService) CheckAuth(ctx context.Context, stored StoredAuth) (*Session, error) {
	if stored.Token == "" || stored.User == nil {
		return nil, ErrNoSession
	}

	row, err := s.activeSession(ctx, stored.Token)
	if err != nil {
		return nil, err
	}
	if row.UserID != stored.User.ID {
		return nil, ErrSessionNotFound
	}

	return &Session{
		ID:        row.ID,
		Token:     stored.Token,
		User:      stored.User.Sanitized(),
		ExpiresAt: row.ExpiresAt,
	}, nil
}

// ValidateToken resolves a bearer token to a session with a freshly loaded user.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	row, err := s.activeSession(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return &Session{
		ID:        row.ID,
		Token:     token,
		User:      user.Sanitized(),
		ExpiresAt: row.ExpiresAt,
	}, nil
}

func (s *AuthService) activeSession(ctx context.Context, token string) (*domain.UserSession, error) {
	row, err := s.sessionRepo.GetByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if row.LogoutAt != nil {
		return nil, ErrSessionLoggedOut
	}
	if !s.now().Before(row.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	return row, nil
}

// UpdateProfile writes only the provided fields. An empty gender clears it.
func (s *AuthService) UpdateProfile(ctx context.Context, sess *Session, update ProfileUpdate) (*domain.User, error) {
	if sess == nil || sess.User == nil {
		return nil, ErrNotAuthenticated
	}

	fields := map[string]interface{}{}
	if update.FullName != nil {
		name := strings.TrimSpace(*update.FullName)
		if err := domain.ValidateFullName(name); err != nil {
			return nil, err
		}
		fields["full_name"] = name
	}
	if update.Gender != nil {
		gender := strings.TrimSpace(*update.Gender)
		switch {
		case gender == "":
			fields["gender"] = nil
		case domain.ValidateGender(gender) != nil:
			return nil, domain.ErrGenderTooLong
		default:
			fields["gender"] = gender
		}
	}
	if update.Age != nil {
		if err := domain.ValidateAge(update.Age); err != nil {
			return nil, err
		}
		fields["age"] = *update.Age
	}

	user, err := s.userRepo.UpdateFields(ctx, sess.User.ID, fields)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user.Sanitized(), nil
}

// ChangePassword replaces the password digest and logs out the user's other
// sessions. The calling session stays valid.
func (s *AuthService) ChangePassword(ctx context.Context, sess *Session, oldPassword, newPassword string) error {
	if sess == nil || sess.User == nil {
		return ErrNotAuthenticated
	}

	user, err := s.userRepo.GetByID(ctx, sess.User.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrIncorrectPassword
	}
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, user.ID, string(hashed)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if _, err := s.sessionRepo.RevokeOthers(ctx, user.ID, sess.ID, s.now()); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	metrics.AuthEvents.WithLabelValues("password_change", "success").Inc()
	return nil
}

// PruneSessions deletes sessions that ended more than retention ago.
func (s *AuthService) PruneSessions(ctx context.Context, retention time.Duration) (int64, error) {
	return s.sessionRepo.DeleteInactive(ctx, s.now().Add(-retention))
}

func (s *AuthService) PromoteToAdmin(ctx context.Context, email string) error {
	err := s.userRepo.SetRole(ctx, domain.NormalizeEmail(email), domain.RoleAdmin)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user.Sanitized(), nil
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
