package repository

import (
	"context"

	"github.com/fastygo/portal-cidadao/domain"
)

// OccurrenceSort selects the ordering of occurrence lists.
type OccurrenceSort string

const (
	SortNewest          OccurrenceSort = "newest"
	SortOldest          OccurrenceSort = "oldest"
	SortPriority        OccurrenceSort = "priority"
	SortCompletedOldest OccurrenceSort = "completed_oldest"
	SortResolvedNewest  OccurrenceSort = "resolved_newest"
	SortEvaluatedNewest OccurrenceSort = "evaluated_newest"
	SortContestedNewest OccurrenceSort = "contested_newest"
)

// OccurrenceFilter narrows occurrence lists. Zero values do not filter.
type OccurrenceFilter struct {
	Statuses          []domain.Status
	CategoryID        int64
	Priority          domain.Priority
	CitizenID         int64
	DepartmentID      int64
	AssignedTo        int64
	Unassigned        bool
	WithoutDepartment bool
	// AssignedOrDepartment matches occurrences assigned to this user, or
	// unassigned occurrences of DepartmentID.
	AssignedOrDepartment int64
	MaxRating            int
	Unrated              bool
	Contested            bool
	Sort                 OccurrenceSort
	Limit                int
	Offset               int
}

type OccurrenceRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Occurrence, error)
	// GetForUpdate loads the occurrence and locks its row until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*domain.Occurrence, error)
	List(ctx context.Context, filter OccurrenceFilter) ([]domain.Occurrence, error)
	Count(ctx context.Context, filter OccurrenceFilter) (int, error)
	Create(ctx context.Context, occurrence *domain.Occurrence) error
	Update(ctx context.Context, occurrence *domain.Occurrence) error
}

type TimelineRepository interface {
	Append(ctx context.Context, entry *domain.TimelineEntry) error
	ListByOccurrence(ctx context.Context, occurrenceID int64) ([]domain.TimelineEntry, error)
}

type PhotoRepository interface {
	Create(ctx context.Context, photo *domain.Photo) error
	ListByOccurrence(ctx context.Context, occurrenceID int64) ([]domain.Photo, error)
}

type SupportRepository interface {
	Exists(ctx context.Context, occurrenceID, citizenID int64) (bool, error)
	Create(ctx context.Context, support *domain.Support) error
	CountByOccurrence(ctx context.Context, occurrenceID int64) (int, error)
}

type EvaluationRepository interface {
	GetByOccurrence(ctx context.Context, occurrenceID int64) (*domain.Evaluation, error)
	Create(ctx context.Context, evaluation *domain.Evaluation) error
}
