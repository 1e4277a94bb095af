// Package seed inserts reference data and development fixtures:
// the role registry, the agency list, default users, and bulk fake
// reports for local testing.
package seed

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/civicworks/idlewatch/internal/models"
)

// DefaultAgencies is the initial agency registry.
var DefaultAgencies = []string{"SEPTA", "PECO", "Streets Department"}

// InsertRoles upserts the role registry. Safe to run repeatedly.
func InsertRoles(db *gorm.DB) error {
	for _, role := range models.DefaultRoles() {
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"permissions", "default"}),
		}).Create(&role)
		if result.Error != nil {
			return fmt.Errorf("seed role %q: %w", role.Name, result.Error)
		}
	}
	return nil
}

// InsertAgencies upserts the agency registry. Safe to run repeatedly.
func InsertAgencies(db *gorm.DB) error {
	for _, name := range DefaultAgencies {
		agency := models.Agency{Name: name}
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&agency)
		if result.Error != nil {
			return fmt.Errorf("seed agency %q: %w", name, result.Error)
		}
	}
	return nil
}

// SetupGeneral runs the seeding needed for both development and
// production: the role registry and the agency list.
func SetupGeneral(db *gorm.DB) error {
	if err := InsertRoles(db); err != nil {
		return err
	}
	return InsertAgencies(db)
}

// SetupProd runs the seeding needed for production.
func SetupProd(db *gorm.DB) error {
	return SetupGeneral(db)
}

// SetupDev runs SetupGeneral plus one default user per role. The agency
// worker is assigned to the first default agency.
func SetupDev(db *gorm.DB) error {
	if err := SetupGeneral(db); err != nil {
		return err
	}

	var admin, worker, general models.Role
	if err := db.Where("permissions = ?", models.PermAdminister).First(&admin).Error; err != nil {
		return fmt.Errorf("load administrator role: %w", err)
	}
	if err := db.Where("permissions = ?", models.PermAgencyWorker).First(&worker).Error; err != nil {
		return fmt.Errorf("load agency worker role: %w", err)
	}
	if err := db.Where("permissions = ?", models.PermGeneral).First(&general).Error; err != nil {
		return fmt.Errorf("load general role: %w", err)
	}

	var agency models.Agency
	if err := db.Where("name = ?", DefaultAgencies[0]).First(&agency).Error; err != nil {
		return fmt.Errorf("load default agency: %w", err)
	}

	users := []models.User{
		{Email: "admin@user.com", FirstName: "Admin", LastName: "User", RoleID: admin.ID},
		{Email: "agency@user.com", FirstName: "AgencyWorker", LastName: "User", RoleID: worker.ID, AgencyID: &agency.ID},
		{Email: "general@user.com", FirstName: "General", LastName: "User", RoleID: general.ID},
	}

	for _, user := range users {
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).Create(&user)
		if result.Error != nil {
			return fmt.Errorf("seed user %q: %w", user.Email, result.Error)
		}
	}
	return nil
}
