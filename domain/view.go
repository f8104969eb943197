package domain

// OccurrenceView is the full occurrence representation returned by the API.
type OccurrenceView struct {
	*Occurrence
	Category       *Category       `json:"category"`
	CategoryName   string          `json:"category_name,omitempty"`
	DepartmentName string          `json:"department_name,omitempty"`
	Citizen        *UserSummary    `json:"citizen"`
	AssignedToUser *UserSummary    `json:"assigned_to_user"`
	AssignedToName string          `json:"assigned_to_name,omitempty"`
	Photos         []Photo         `json:"photos"`
	SupportCount   int             `json:"support_count"`
	Timeline       []TimelineEntry `json:"timeline,omitempty"`
}
