package models

import "time"

// Admin roles as stored on AdminUser.Role.
const (
	RoleDean               = "dean"
	RoleAssistantRegistrar = "assistant_registrar"
	RoleViceChancellor     = "vice_chancellor"
	RoleStudentService     = "student_service"
	RoleTestUser           = "test_user"
)

// AdminUser is a staff member allowed into the admin dashboard.
type AdminUser struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:32;index;not null" json:"role"`
	Faculty   string    `gorm:"size:128" json:"faculty,omitempty"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
