// Package seed creates the data a fresh installation needs
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/societyhub/internal/app/models"
	appRepos "github.com/yigit/societyhub/internal/app/repositories"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/auth"
)

// AdminAccount is the staff account created on first start
type AdminAccount struct {
	Email    string
	Password string
}

// CreateDefaultData creates the staff administrator if it does not exist yet.
// An empty email disables seeding.
func CreateDefaultData(ctx context.Context, userRepo appRepos.IUserRepository, admin AdminAccount, lgr zerolog.Logger) error {
	if admin.Email == "" {
		lgr.Info().Msg("No admin account configured, skipping seed")
		return nil
	}

	_, err := userRepo.GetByEmail(ctx, admin.Email)
	if err == nil {
		lgr.Info().Str("email", admin.Email).Msg("Admin user already exists, skipping creation")
		return nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		lgr.Error().Err(err).Msg("Error checking if admin user exists")
		return err
	}

	if admin.Password == "" {
		return errors.New("admin password is required to seed the admin account")
	}
	hashed, err := auth.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := time.Now().UTC()
	user := &appModels.User{
		Email:           admin.Email,
		Password:        hashed,
		FirstName:       "System",
		LastName:        "Administrator",
		IsStaff:         true,
		IsSuperuser:     true,
		IsActive:        true,
		EmailVerifiedAt: &now,
		LastVerifiedAt:  &now,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		// Another instance may have seeded concurrently
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			return nil
		}
		lgr.Error().Err(err).Msg("Error creating admin user")
		return err
	}

	lgr.Info().Int64("adminID", user.ID).Msg("Default admin user created successfully")
	return nil
}
