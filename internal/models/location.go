package models

// Location is a geocoded point plus the raw address text it was derived
// from. Created exactly once, as a side effect of report creation, and
// owned exclusively by its IncidentReport: the report holds the Location,
// and the back-link exists only as the FK column. Latitude and longitude
// are nil when geocoding produced no result.
type Location struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	Latitude         *string `gorm:"size:50" json:"latitude"`
	Longitude        *string `gorm:"size:50" json:"longitude"`
	OriginalUserText string  `gorm:"type:text" json:"original_user_text"`
	IncidentReportID uint    `gorm:"uniqueIndex;not null" json:"incident_report_id"`
}

// TableName specifies the table name for GORM.
func (Location) TableName() string {
	return "locations"
}

// HasCoordinates reports whether geocoding produced a usable point.
func (l *Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}
