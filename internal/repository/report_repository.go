package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/civicworks/idlewatch/internal/database"
	"github.com/civicworks/idlewatch/internal/models"
)

// ReportRepository defines the interface for incident report data access.
type ReportRepository interface {
	// Create persists a report together with its owned Location in a
	// single transaction. Both rows succeed or neither is kept.
	Create(ctx context.Context, report *models.IncidentReport) error

	// FindAll returns every report, newest first.
	FindAll(ctx context.Context) ([]models.IncidentReport, error)

	// FindByAgency returns the reports belonging to one agency, newest first.
	FindByAgency(ctx context.Context, agencyID uint) ([]models.IncidentReport, error)

	// FindByUser returns the reports a user personally submitted, newest first.
	FindByUser(ctx context.Context, userID uint) ([]models.IncidentReport, error)

	// FindByID returns one report with its Location and Agency loaded.
	// Returns nil, nil if no report exists (not an error).
	FindByID(ctx context.Context, id uint) (*models.IncidentReport, error)

	// Update persists edits to a report and its Location.
	Update(ctx context.Context, report *models.IncidentReport) error
}

// reportRepository is the concrete implementation of ReportRepository.
type reportRepository struct {
	db *database.Database
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *database.Database) ReportRepository {
	return &reportRepository{db: db}
}

// Create inserts the report and its Location as one transactional unit.
// GORM persists the owned association inside the same transaction, so a
// failure on either row rolls back both.
func (r *reportRepository) Create(ctx context.Context, report *models.IncidentReport) error {
	err := r.db.Gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(report).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create incident report: %w", err)
	}
	return nil
}

func (r *reportRepository) FindAll(ctx context.Context) ([]models.IncidentReport, error) {
	var reports []models.IncidentReport
	err := r.scope(ctx).
		Order("date DESC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query all reports: %w", err)
	}
	return emptyIfNil(reports), nil
}

func (r *reportRepository) FindByAgency(ctx context.Context, agencyID uint) ([]models.IncidentReport, error) {
	var reports []models.IncidentReport
	err := r.scope(ctx).
		Where("agency_id = ?", agencyID).
		Order("date DESC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query reports for agency %d: %w", agencyID, err)
	}
	return emptyIfNil(reports), nil
}

func (r *reportRepository) FindByUser(ctx context.Context, userID uint) ([]models.IncidentReport, error) {
	var reports []models.IncidentReport
	err := r.scope(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query reports for user %d: %w", userID, err)
	}
	return emptyIfNil(reports), nil
}

func (r *reportRepository) FindByID(ctx context.Context, id uint) (*models.IncidentReport, error) {
	var report models.IncidentReport
	err := r.scope(ctx).First(&report, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query report %d: %w", id, err)
	}
	return &report, nil
}

// Update saves the report and its owned Location in one transaction.
func (r *reportRepository) Update(ctx context.Context, report *models.IncidentReport) error {
	err := r.db.Gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(report).Error; err != nil {
			return err
		}
		return tx.Save(&report.Location).Error
	})
	if err != nil {
		return fmt.Errorf("failed to update report %d: %w", report.ID, err)
	}
	return nil
}

// scope returns the base query with the owned Location and the Agency
// eagerly loaded, matching how every read path uses reports.
func (r *reportRepository) scope(ctx context.Context) *gorm.DB {
	return r.db.Gorm.WithContext(ctx).
		Preload("Location").
		Preload("Agency")
}

func emptyIfNil(reports []models.IncidentReport) []models.IncidentReport {
	if reports == nil {
		return []models.IncidentReport{}
	}
	return reports
}
