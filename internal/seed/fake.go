package seed

import (
	"fmt"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"gorm.io/gorm"

	"github.com/civicworks/idlewatch/internal/models"
	"github.com/civicworks/idlewatch/internal/textutil"
)

// Fake coordinates cluster around Center City Philadelphia.
const (
	fakeCenterLat = 39.951021
	fakeCenterLng = -75.197243
	fakeRadius    = 0.001
)

// GenerateFakeUsers inserts count fake general users and returns how many
// were actually created. A conflicting row (duplicate email) rolls back
// just that record; generation continues.
func GenerateFakeUsers(db *gorm.DB, count int) (int, error) {
	var role models.Role
	if err := db.Where("permissions = ?", models.PermGeneral).First(&role).Error; err != nil {
		return 0, fmt.Errorf("load general role: %w", err)
	}

	created := 0
	for i := 0; i < count; i++ {
		user := models.User{
			Email:       gofakeit.Email(),
			FirstName:   gofakeit.FirstName(),
			LastName:    gofakeit.LastName(),
			PhoneNumber: textutil.ParsePhoneNumber(gofakeit.Phone()),
			RoleID:      role.ID,
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&user).Error
		})
		if err != nil {
			// Duplicate emails happen with enough fake rows; skip and move on.
			continue
		}
		created++
	}
	return created, nil
}

// GenerateFakeReports inserts count fake incident reports, each with an
// owned Location near the city center, attributed to random existing
// users and agencies. A failed record rolls back alone; generation
// continues with the next.
func GenerateFakeReports(db *gorm.DB, count int) (int, error) {
	var agencies []models.Agency
	if err := db.Find(&agencies).Error; err != nil {
		return 0, fmt.Errorf("load agencies: %w", err)
	}
	if len(agencies) == 0 {
		return 0, fmt.Errorf("no agencies seeded; run setup first")
	}

	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		return 0, fmt.Errorf("load users: %w", err)
	}
	if len(users) == 0 {
		return 0, fmt.Errorf("no users seeded; run setup first")
	}

	created := 0
	for i := 0; i < count; i++ {
		lat := strconv.FormatFloat(gofakeit.Float64Range(fakeCenterLat-fakeRadius, fakeCenterLat+fakeRadius), 'f', 6, 64)
		lng := strconv.FormatFloat(gofakeit.Float64Range(fakeCenterLng-fakeRadius, fakeCenterLng+fakeRadius), 'f', 6, 64)

		licensePlate := ""
		if gofakeit.Bool() {
			licensePlate = gofakeit.Password(false, true, true, false, false, 6)
		}

		report := models.IncidentReport{
			VehicleID:    gofakeit.Password(false, true, true, false, false, 6),
			LicensePlate: licensePlate,
			Location: models.Location{
				Latitude:         &lat,
				Longitude:        &lng,
				OriginalUserText: gofakeit.Address().Address,
			},
			Date:        gofakeit.DateRange(time.Now().AddDate(-1, 0, 0), time.Now()),
			Duration:    textutil.MinutesToDuration(gofakeit.Number(1, 30)),
			AgencyID:    agencies[gofakeit.Number(0, len(agencies)-1)].ID,
			UserID:      users[gofakeit.Number(0, len(users)-1)].ID,
			PictureURL:  gofakeit.ImageURL(640, 480),
			Description: gofakeit.Paragraph(1, 3, 10, " "),
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&report).Error
		})
		if err != nil {
			continue
		}
		created++
	}
	return created, nil
}
