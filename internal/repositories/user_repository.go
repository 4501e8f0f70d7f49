package repositories

import (
	"context"

	"github.com/musihub/backend/internal/models"
)

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	Update(ctx context.Context, user models.User) error
}

// ProfileRepository defines the data access contract for musician profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile models.Profile) error
	FindByID(ctx context.Context, id string) (models.Profile, error)
	FindByUserID(ctx context.Context, userID string) (models.Profile, error)
	SearchByName(ctx context.Context, name string, limit int) ([]models.Profile, error)
	Update(ctx context.Context, profile models.Profile) error
}
