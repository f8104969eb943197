package domain

import "time"

// Timeline action labels.
const (
	ActionCreated               = "created"
	ActionTriaged               = "Triagem e Atribuição Concluída"
	ActionExecutionStarted      = "Execução Iniciada"
	ActionExecutionCompleted    = "Execução Concluída"
	ActionValidationApproved    = "Validação Concluída"
	ActionValidationRejected    = "Validação Rejeitada"
	ActionRated                 = "rated"
	ActionEvaluated             = "evaluated"
	ActionContested             = "contested"
	ActionStatusChanged         = "status_changed"
	ActionAssigned              = "assigned"
	ActionSupported             = "supported"
	ActionPhotosAdded           = "photos_added"
	ActionAfterPhotoAdded       = "after_photo_added"
	ActionEvaluationPhotosAdded = "evaluation_photos_added"
)

// TimelineEntry is an immutable audit record of a state-changing action.
type TimelineEntry struct {
	ID           int64        `json:"id"`
	OccurrenceID int64        `json:"occurrence_id"`
	UserID       *int64       `json:"user_id,omitempty"`
	User         *UserSummary `json:"user,omitempty"`
	Action       string       `json:"action"`
	Description  string       `json:"description"`
	OldStatus    *Status      `json:"old_status,omitempty"`
	NewStatus    *Status      `json:"new_status,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// NewTimelineEntry builds an entry recording the status pair.
func NewTimelineEntry(occurrenceID int64, actorID int64, action, description string, oldStatus, newStatus Status) *TimelineEntry {
	entry := &TimelineEntry{
		OccurrenceID: occurrenceID,
		Action:       action,
		Description:  description,
	}
	if actorID != 0 {
		id := actorID
		entry.UserID = &id
	}
	if oldStatus != "" {
		s := oldStatus
		entry.OldStatus = &s
	}
	if newStatus != "" {
		s := newStatus
		entry.NewStatus = &s
	}
	return entry
}
