package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is a roster member's review authority.
type Role string

const (
	RoleMember          Role = "MEMBER"
	RolePlatoonReviewer Role = "PLATOON_REVIEWER"
	RoleCompanyReviewer Role = "COMPANY_REVIEWER"
	RoleCommander       Role = "COMMANDER"
)

// ParseRole converts a raw value into a Role.
func ParseRole(v string) (Role, error) {
	switch r := Role(v); r {
	case RoleMember, RolePlatoonReviewer, RoleCompanyReviewer, RoleCommander:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", v)
	}
}

// User is a roster entry. RoleCompany/RolePlatoon hold the scope a reviewer is
// authorized over when it differs from the member's own assignment.
type User struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string         `gorm:"type:varchar(255);not null" json:"name"`
	Email          string         `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Role           Role           `gorm:"type:varchar(30);not null;index" json:"role"`
	UnitUIC        string         `gorm:"type:varchar(20);not null;index" json:"unit_uic"`
	Company        string         `gorm:"type:varchar(50)" json:"company"`
	Platoon        string         `gorm:"type:varchar(50)" json:"platoon"`
	RoleCompany    *string        `gorm:"type:varchar(50)" json:"role_company"`
	RolePlatoon    *string        `gorm:"type:varchar(50)" json:"role_platoon"`
	IsCommandStaff bool           `gorm:"default:false" json:"is_command_staff"`
	IsUnitAdmin    bool           `gorm:"default:false" json:"is_unit_admin"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
