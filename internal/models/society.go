package models

import "time"

// Society status values.
const (
	SocietyStatusActive   = "active"
	SocietyStatusInactive = "inactive"
)

// Society is the permanent record created once a registration is fully approved.
type Society struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	Name                string     `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Aims                string     `gorm:"type:text" json:"aims"`
	PrimaryFaculty      string     `gorm:"size:128;index" json:"primary_faculty"`
	AGMDate             string     `gorm:"size:32" json:"agm_date"`
	BankAccount         string     `gorm:"size:64" json:"bank_account"`
	BankName            string     `gorm:"size:128" json:"bank_name"`
	Website             string     `gorm:"size:255" json:"website"`
	SeniorTreasurerName string     `gorm:"size:255" json:"senior_treasurer_name"`
	SeniorTreasurerMail string     `gorm:"size:255" json:"-"`
	Status              string     `gorm:"size:16;index;not null" json:"status"`
	RegisteredAt        time.Time  `json:"registered_at"`
	LastRenewalYear     int        `json:"last_renewal_year"`
	RegistrationID      *uint      `json:"registration_id"`
	DeactivatedAt       *time.Time `json:"deactivated_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
