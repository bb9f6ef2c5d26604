package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	FullName     string    `json:"fullName" gorm:"not null"`
	Gender       *string   `json:"gender,omitempty"`
	Age          *int      `json:"age,omitempty"`
	Role         Role      `json:"role" gorm:"type:varchar(16);not null;default:'EDITOR'"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Sanitized returns a copy of the user without the password digest.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.PasswordHash = ""
	return &cp
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// DeviceInfo is the client metadata recorded with each login.
type DeviceInfo struct {
	UserAgent string    `json:"userAgent"`
	Platform  string    `json:"platform,omitempty"`
	Language  string    `json:"language,omitempty"`
	IP        string    `json:"ip,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type UserSession struct {
	ID         uuid.UUID                      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID                      `json:"userId" gorm:"type:uuid;not null;index"`
	TokenHash  string                         `json:"-" gorm:"uniqueIndex;not null"`
	LoginAt    time.Time                      `json:"loginAt" gorm:"not null"`
	ExpiresAt  time.Time                      `json:"expiresAt" gorm:"not null;index"`
	LogoutAt   *time.Time                     `json:"logoutAt,omitempty" gorm:"index"`
	DeviceInfo datatypes.JSONType[DeviceInfo] `json:"deviceInfo"`
	CreatedAt  time.Time                      `json:"createdAt"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// IsActive reports whether the session has not been logged out and has not expired at now.
func (s *UserSession) IsActive(now time.Time) bool {
	return s.LogoutAt == nil && now.Before(s.ExpiresAt)
}
