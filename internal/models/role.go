package models

import (
	"errors"
	"fmt"
)

// Permission is a bitmask describing what a role may do.
type Permission uint

const (
	// PermGeneral allows submitting reports and viewing one's own.
	PermGeneral Permission = 0x01
	// PermAgencyWorker allows viewing all reports for the worker's agency.
	PermAgencyWorker Permission = 0x02
	// PermAdminister grants every permission.
	PermAdminister Permission = 0xff
)

// RoleKind is the closed enumeration of recognized role classifications.
type RoleKind string

const (
	RoleGeneral       RoleKind = "general"
	RoleAgencyWorker  RoleKind = "agency_worker"
	RoleAdministrator RoleKind = "administrator"
)

// ErrUnknownRole is returned when a role's permission bits match none of
// the recognized kinds. Callers must treat this as a hard failure rather
// than falling through to some default visibility.
var ErrUnknownRole = errors.New("unknown role")

// Role is static reference data mapping a named role to its permission
// bitmask. Seeded once at setup time.
type Role struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Permissions Permission `gorm:"not null" json:"permissions"`
	Default     bool       `gorm:"default:false" json:"default"`

	Users []User `gorm:"foreignKey:RoleID" json:"-"`
}

// TableName specifies the table name for GORM.
func (Role) TableName() string {
	return "roles"
}

// Kind classifies the role by its permission bitmask. An unrecognized
// bitmask yields ErrUnknownRole.
func (r *Role) Kind() (RoleKind, error) {
	switch r.Permissions {
	case PermAdminister:
		return RoleAdministrator, nil
	case PermAgencyWorker:
		return RoleAgencyWorker, nil
	case PermGeneral:
		return RoleGeneral, nil
	default:
		return "", fmt.Errorf("%w: permissions 0x%02x (%s)", ErrUnknownRole, uint(r.Permissions), r.Name)
	}
}

// Can reports whether the role carries the given permission bits.
func (r *Role) Can(p Permission) bool {
	return r.Permissions&p == p
}

// DefaultRoles returns the three roles inserted at setup time.
func DefaultRoles() []Role {
	return []Role{
		{Name: "General", Permissions: PermGeneral, Default: true},
		{Name: "Agency Worker", Permissions: PermAgencyWorker},
		{Name: "Administrator", Permissions: PermAdminister},
	}
}
