package domain

import "time"

// Department is a municipal unit that handles occurrences.
type Department struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Category classifies occurrences; it belongs to exactly one department.
type Category struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description,omitempty"`
	Icon         string      `json:"icon,omitempty"`
	Color        string      `json:"color,omitempty"`
	DepartmentID int64       `json:"department_id"`
	Department   *Department `json:"department,omitempty"`
	IsActive     bool        `json:"is_active"`
	CreatedAt    time.Time   `json:"created_at"`
}

// DefaultCategoryColor is applied when a category is created without one.
const DefaultCategoryColor = "#3B82F6"
