package models

// Agency is the organizational owner of a vehicle fleet that reports are
// filed against. Rows are reference data seeded at setup time and never
// mutated afterward.
type Agency struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`

	Reports []IncidentReport `gorm:"foreignKey:AgencyID" json:"-"`
}

// TableName specifies the table name for GORM.
func (Agency) TableName() string {
	return "agencies"
}
