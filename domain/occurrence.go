package domain

import (
	"strings"
	"time"
)

// Status is the lifecycle state of an occurrence.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}

// ParseStatus validates an external status string.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, s := range Statuses {
		if s == status {
			return status, nil
		}
	}
	return "", Invalidf("invalid status %q", value)
}

// IsDone reports whether the occurrence counts as resolved for metrics.
func (s Status) IsDone() bool {
	return s == StatusResolved || s == StatusClosed
}

// Priority is the triage urgency of an occurrence.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// ParsePriority validates an external priority string; matching is case-insensitive.
func ParsePriority(value string) (Priority, error) {
	priority := Priority(strings.ToLower(strings.TrimSpace(value)))
	for _, p := range Priorities {
		if p == priority {
			return priority, nil
		}
	}
	return "", Invalidf("invalid priority %q, use LOW, MEDIUM, HIGH or URGENT", value)
}

// Rank orders priorities, higher is more urgent.
func (p Priority) Rank() int {
	for i, candidate := range Priorities {
		if candidate == p {
			return i
		}
	}
	return -1
}

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
	// LowRatingThreshold is the highest rating that flags an occurrence for review.
	LowRatingThreshold = 2
)

// ValidRating reports whether a rating is in the 1..5 range.
func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

// Occurrence is a citizen-reported municipal issue.
type Occurrence struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	CategoryID      int64      `json:"category_id"`
	CitizenID       int64      `json:"citizen_id"`
	AssignedTo      *int64     `json:"assigned_to,omitempty"`
	DepartmentID    *int64     `json:"department_id,omitempty"`
	ApprovedByID    *int64     `json:"approved_by_id,omitempty"`
	ValidatedByID   *int64     `json:"validated_by_id,omitempty"`
	Latitude        float64    `json:"latitude"`
	Longitude       float64    `json:"longitude"`
	Address         string     `json:"address"`
	Status          Status     `json:"status"`
	Priority        Priority   `json:"priority"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ResolvedAt      *time.Time `json:"resolved_at"`
	ApprovedAt      *time.Time `json:"approved_at"`
	StartedAt       *time.Time `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	ValidatedAt     *time.Time `json:"validated_at"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	BlockingReason  string     `json:"blocking_reason,omitempty"`
	MaterialsUsed   string     `json:"materials_used,omitempty"`
	ExecutionNotes  string     `json:"execution_notes,omitempty"`
	Rating          *int       `json:"rating"`
	Feedback        string     `json:"feedback,omitempty"`
	EvaluatedAt     *time.Time `json:"evaluated_at"`
	NeedsReview     bool       `json:"needs_review"`
	ReviewReason    string     `json:"review_reason,omitempty"`
	ContestedAt     *time.Time `json:"contested_at"`
	ContestReason   string     `json:"contest_reason,omitempty"`
}

// IsReporter reports whether userID reported the occurrence.
func (o *Occurrence) IsReporter(userID int64) bool {
	return o != nil && o.CitizenID == userID
}

// IsAssignedTo reports whether the occurrence is assigned to userID.
func (o *Occurrence) IsAssignedTo(userID int64) bool {
	return o != nil && o.AssignedTo != nil && *o.AssignedTo == userID
}

// ApplyRating stores a citizen rating and applies the low-rating review rule.
func (o *Occurrence) ApplyRating(rating int, feedback string, forceReview bool, now time.Time) {
	o.Rating = &rating
	o.Feedback = feedback
	o.EvaluatedAt = &now
	if rating <= LowRatingThreshold || forceReview {
		o.NeedsReview = true
		o.ReviewReason = "Avaliação baixa do cidadão"
	}
}

// Clone returns a deep copy of the occurrence.
func (o *Occurrence) Clone() *Occurrence {
	if o == nil {
		return nil
	}
	c := *o
	c.AssignedTo = cloneInt64(o.AssignedTo)
	c.DepartmentID = cloneInt64(o.DepartmentID)
	c.ApprovedByID = cloneInt64(o.ApprovedByID)
	c.ValidatedByID = cloneInt64(o.ValidatedByID)
	c.ResolvedAt = cloneTime(o.ResolvedAt)
	c.ApprovedAt = cloneTime(o.ApprovedAt)
	c.StartedAt = cloneTime(o.StartedAt)
	c.CompletedAt = cloneTime(o.CompletedAt)
	c.ValidatedAt = cloneTime(o.ValidatedAt)
	c.EvaluatedAt = cloneTime(o.EvaluatedAt)
	c.ContestedAt = cloneTime(o.ContestedAt)
	if o.Rating != nil {
		r := *o.Rating
		c.Rating = &r
	}
	return &c
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
