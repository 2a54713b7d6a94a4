package models

import (
	"time"
)

// User represents a person known to the system: admins, building managers
// and residents. Credentials live in the external auth provider; this
// service only stores the profile it needs for billing and notifications.
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	AuthUID     string     `gorm:"column:auth_uid;uniqueIndex;not null" json:"-"` // subject id at the auth provider
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	FullName    string     `json:"full_name"`
	Phone       string     `json:"phone"`
	Role        string     `gorm:"default:resident;index" json:"role"`
	Status      string     `gorm:"default:active" json:"status"`
	DiscardedAt *time.Time `gorm:"index" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Associations
	Notifications []Notification `gorm:"foreignKey:UserID" json:"notifications,omitempty"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// Role constants
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleResident = "resident"
)

// Status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// IsAdmin returns true if user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsManager returns true if user has manager role
func (u *User) IsManager() bool {
	return u.Role == RoleManager
}

// IsActive returns true if user account is active and not discarded
func (u *User) IsActive() bool {
	return u.Status == StatusActive && u.DiscardedAt == nil
}

// UserResponse is the JSON response format for users
type UserResponse struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Phone:    u.Phone,
		Role:     u.Role,
		Status:   u.Status,
	}
}
