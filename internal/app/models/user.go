package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID                        int64      `json:"id" db:"id" example:"1"`
	Email                     string     `json:"email" db:"email" example:"student@leeds.ac.uk"`
	Password                  string     `json:"-" db:"password"`
	FirstName                 string     `json:"firstName" db:"first_name" example:"Ada"`
	LastName                  string     `json:"lastName" db:"last_name" example:"Lovelace"`
	IsStaff                   bool       `json:"isStaff" db:"is_staff"`
	IsSuperuser               bool       `json:"isSuperuser" db:"is_superuser"`
	IsActive                  bool       `json:"isActive" db:"is_active"`
	EmailVerifiedAt           *time.Time `json:"emailVerifiedAt,omitempty" db:"email_verified_at"`
	LastVerifiedAt            *time.Time `json:"lastVerifiedAt,omitempty" db:"last_verified_at"`
	ReverificationRequestedAt *time.Time `json:"reverificationRequestedAt,omitempty" db:"reverification_requested_at"`
	DeactivatedAt             *time.Time `json:"deactivatedAt,omitempty" db:"deactivated_at"`
	LastLoginAt               *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt                 time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt                 time.Time  `json:"updatedAt" db:"updated_at"`
}

// FullName returns "First Last"
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// TokenPurpose separates account activation tokens from periodic re-verification tokens
type TokenPurpose string

const (
	TokenPurposeActivation     TokenPurpose = "ACTIVATION"
	TokenPurposeReverification TokenPurpose = "REVERIFICATION"
)

// VerificationToken is a single-use email token
type VerificationToken struct {
	ID        int64        `db:"id"`
	Token     string       `db:"token"`
	UserID    int64        `db:"user_id"`
	Purpose   TokenPurpose `db:"purpose"`
	ExpiresAt time.Time    `db:"expires_at"`
	UsedAt    *time.Time   `db:"used_at"`
	CreatedAt time.Time    `db:"created_at"`
}

// SweepResult counts what one verification sweep did
type SweepResult struct {
	DeletedUnactivated int `json:"deletedUnactivated"`
	ReverifyRequested  int `json:"reverifyRequested"`
	Deactivated        int `json:"deactivated"`
	Deleted            int `json:"deleted"`
	RetainedManagers   int `json:"retainedManagers"`
}
