package domain

import "time"

// Notification kinds.
const (
	NotifyAssigned          = "occurrence_assigned"
	NotifyAwaitingApproval  = "awaiting_validation"
	NotifyClosed            = "occurrence_closed"
	NotifyRejected          = "execution_rejected"
	NotifyContested         = "occurrence_contested"
	NotifyLowRating         = "low_rating"
	NotifyStatusChanged     = "status_changed"
	NotifyOccurrenceCreated = "occurrence_created"
)

// Notification is a message addressed to one user, or to every user of a
// role (optionally within a department).
type Notification struct {
	ID           int64      `json:"id"`
	UserID       *int64     `json:"user_id,omitempty"`
	DepartmentID *int64     `json:"department_id,omitempty"`
	Role         *Role      `json:"role,omitempty"`
	OccurrenceID int64      `json:"occurrence_id"`
	Kind         string     `json:"kind"`
	Message      string     `json:"message"`
	ReadAt       *time.Time `json:"read_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsRead reports whether the notification was marked read.
func (n *Notification) IsRead() bool {
	return n != nil && n.ReadAt != nil
}

// AddressedTo reports whether the notification targets the given user.
func (n *Notification) AddressedTo(user *User) bool {
	if n == nil || user == nil {
		return false
	}
	if n.UserID != nil {
		return *n.UserID == user.ID
	}
	if n.Role != nil && *n.Role != user.Role {
		return false
	}
	if n.DepartmentID != nil {
		return user.InDepartment(n.DepartmentID)
	}
	return n.Role != nil
}
