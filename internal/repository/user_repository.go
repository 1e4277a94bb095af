package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/civicworks/idlewatch/internal/database"
	"github.com/civicworks/idlewatch/internal/models"
)

// UserRepository defines the interface for user data access. Account
// creation and authentication live in the external auth service; this
// repository only resolves identities and supports seeding.
type UserRepository interface {
	// FindByID returns one user with Role and Agency loaded, or nil, nil
	// when absent.
	FindByID(ctx context.Context, id uint) (*models.User, error)

	// FindByEmail returns one user by email, or nil, nil when absent.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type userRepository struct {
	db *database.Database
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *database.Database) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.Gorm.WithContext(ctx).
		Preload("Role").
		Preload("Agency").
		First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user %d: %w", id, err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.Gorm.WithContext(ctx).
		Preload("Role").
		Preload("Agency").
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user %q: %w", email, err)
	}
	return &user, nil
}
