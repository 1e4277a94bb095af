package models

import "time"

// User is a registered account. Authentication and sessions live outside
// this service; the identity middleware resolves a trusted user ID header
// into one of these rows.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Email       string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FirstName   string    `gorm:"size:100" json:"first_name"`
	LastName    string    `gorm:"size:100" json:"last_name"`
	PhoneNumber string    `gorm:"size:32" json:"phone_number,omitempty"`
	RoleID      uint      `gorm:"not null;index" json:"role_id"`
	Role        Role      `gorm:"foreignKey:RoleID" json:"role"`
	AgencyID    *uint     `gorm:"index" json:"agency_id,omitempty"`
	Agency      *Agency   `gorm:"foreignKey:AgencyID" json:"agency,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Reports []IncidentReport `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}

// RoleKind classifies the user's role; the Role association must be loaded.
func (u *User) RoleKind() (RoleKind, error) {
	return u.Role.Kind()
}
