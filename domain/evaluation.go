package domain

import "time"

// SatisfiedRating is the lowest overall rating counted as satisfied.
const SatisfiedRating = 4

// Evaluation is structured citizen feedback on a resolved occurrence.
type Evaluation struct {
	ID                  int64     `json:"id"`
	OccurrenceID        int64     `json:"occurrence_id"`
	CitizenID           int64     `json:"citizen_id"`
	Rating              int       `json:"rating"`
	QualityRating       int       `json:"quality_rating"`
	SpeedRating         int       `json:"speed_rating"`
	CommunicationRating int       `json:"communication_rating"`
	Feedback            string    `json:"feedback"`
	IsSatisfied         bool      `json:"is_satisfied"`
	WouldRecommend      bool      `json:"would_recommend"`
	NeedsRework         bool      `json:"needs_rework"`
	CreatedAt           time.Time `json:"created_at"`
}

// Validate checks every rating field; zero sub-ratings default to the overall rating.
func (e *Evaluation) Validate() error {
	if !ValidRating(e.Rating) {
		return ErrInvalidRating
	}
	for _, sub := range []*int{&e.QualityRating, &e.SpeedRating, &e.CommunicationRating} {
		if *sub == 0 {
			*sub = e.Rating
		}
		if !ValidRating(*sub) {
			return ErrInvalidRating
		}
	}
	e.IsSatisfied = e.Rating >= SatisfiedRating
	return nil
}
