package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// DoctorPrefix is prepended to registered names that do not already carry it.
const DoctorPrefix = "Dr."

// User defines the structure for doctor users.
type User struct {
	ID           uint      `json:"-" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         Role      `json:"role" gorm:"size:32;not null"`
	CreatedAt    time.Time `json:"createdAt"`
}

// BeforeSave defaults the role to doctor and rejects unknown roles.
func (u *User) BeforeSave(*gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleDoctor
	}
	if !u.Role.Valid() {
		return fmt.Errorf("unknown role %q", u.Role)
	}
	return nil
}

// NormalizeDoctorName trims name and prefixes it with "Dr. " unless it
// already starts with "Dr.".
func NormalizeDoctorName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasPrefix(name, DoctorPrefix) {
		return name
	}
	return DoctorPrefix + " " + name
}
