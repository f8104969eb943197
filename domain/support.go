package domain

import "time"

// Support is a citizen's endorsement of another citizen's occurrence.
type Support struct {
	ID           int64     `json:"id"`
	OccurrenceID int64     `json:"occurrence_id"`
	CitizenID    int64     `json:"citizen_id"`
	CreatedAt    time.Time `json:"created_at"`
}
