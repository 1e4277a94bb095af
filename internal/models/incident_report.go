package models

import "time"

// IncidentReport is a single idling-vehicle observation record. Every
// report owns exactly one Location, created with it in the same
// transaction and cascade-deleted with it.
type IncidentReport struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	VehicleID    string        `gorm:"size:10;not null" json:"vehicle_id"`
	LicensePlate string        `gorm:"size:7" json:"license_plate,omitempty"`
	Location     Location      `gorm:"foreignKey:IncidentReportID;constraint:OnDelete:CASCADE" json:"location"`
	Date         time.Time     `gorm:"not null" json:"date"`
	Duration     time.Duration `gorm:"not null" json:"duration"`
	AgencyID     uint          `gorm:"not null;index" json:"agency_id"`
	Agency       Agency        `gorm:"foreignKey:AgencyID" json:"agency"`
	UserID       uint          `gorm:"index" json:"user_id"`
	PictureURL   string        `gorm:"type:text" json:"picture_url,omitempty"`
	Description  string        `gorm:"type:text" json:"description,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (IncidentReport) TableName() string {
	return "incident_reports"
}

// HasCoordinates reports whether the owned Location carries a geocoded point.
func (r *IncidentReport) HasCoordinates() bool {
	return r.Location.HasCoordinates()
}

// AllModels returns every GORM model in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&Role{},
		&Agency{},
		&User{},
		&IncidentReport{},
		&Location{},
	}
}
