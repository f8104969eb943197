package domain

import (
	"strings"
	"time"
)

// Role is the user type stored on every account.
type Role string

const (
	RoleCitizen           Role = "citizen"
	RoleAdmin             Role = "admin"
	RoleDepartmentManager Role = "department_manager"
	RoleServiceProvider   Role = "service_provider"
)

// ParseRole validates an external role string.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	switch role {
	case RoleCitizen, RoleAdmin, RoleDepartmentManager, RoleServiceProvider:
		return role, nil
	}
	return "", Invalidf("invalid user type %q", value)
}

// IsStaff reports whether the role belongs to municipal staff.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleDepartmentManager || r == RoleServiceProvider
}

// User represents an authenticated identity in the platform.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"user_type"`
	DepartmentID *int64    `json:"department_id,omitempty"`
	Address      string    `json:"address,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Actor builds the authorization subject for this user.
func (u *User) Actor() Actor {
	if u == nil {
		return Actor{}
	}
	return Actor{UserID: u.ID, Role: u.Role, DepartmentID: u.DepartmentID, Active: u.IsActive}
}

// InDepartment reports whether the user belongs to the given department.
func (u *User) InDepartment(departmentID *int64) bool {
	return u != nil && sameID(u.DepartmentID, departmentID)
}

// UserSummary is the compact user representation nested in other payloads.
type UserSummary struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Role       Role   `json:"user_type,omitempty"`
	Department string `json:"department,omitempty"`
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
