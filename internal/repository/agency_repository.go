package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/civicworks/idlewatch/internal/database"
	"github.com/civicworks/idlewatch/internal/models"
)

// AgencyRepository defines the interface for agency reference data access.
type AgencyRepository interface {
	// List returns every agency ordered by name.
	List(ctx context.Context) ([]models.Agency, error)

	// FindByID returns one agency, or nil, nil when absent.
	FindByID(ctx context.Context, id uint) (*models.Agency, error)

	// FindByName returns one agency by exact name, or nil, nil when absent.
	FindByName(ctx context.Context, name string) (*models.Agency, error)
}

type agencyRepository struct {
	db *database.Database
}

// NewAgencyRepository creates a new instance of AgencyRepository.
func NewAgencyRepository(db *database.Database) AgencyRepository {
	return &agencyRepository{db: db}
}

func (r *agencyRepository) List(ctx context.Context) ([]models.Agency, error) {
	var agencies []models.Agency
	err := r.db.Gorm.WithContext(ctx).Order("name").Find(&agencies).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query agencies: %w", err)
	}
	if agencies == nil {
		agencies = []models.Agency{}
	}
	return agencies, nil
}

func (r *agencyRepository) FindByID(ctx context.Context, id uint) (*models.Agency, error) {
	var agency models.Agency
	err := r.db.Gorm.WithContext(ctx).First(&agency, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query agency %d: %w", id, err)
	}
	return &agency, nil
}

func (r *agencyRepository) FindByName(ctx context.Context, name string) (*models.Agency, error) {
	var agency models.Agency
	err := r.db.Gorm.WithContext(ctx).Where("name = ?", name).First(&agency).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query agency %q: %w", name, err)
	}
	return &agency, nil
}
