package memory

import (
	"context"
	"sort"
	"time"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
)

type occurrenceRepository struct{ s *session }

func (r *occurrenceRepository) GetByID(_ context.Context, id int64) (*domain.Occurrence, error) {
	st, release := r.s.acquire()
	defer release()
	occ, ok := st.occurrences[id]
	if !ok {
		return nil, domain.ErrOccurrenceNotFound
	}
	return occ.Clone(), nil
}

// GetForUpdate needs no row lock here: transactions are serialized.
func (r *occurrenceRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Occurrence, error) {
	return r.GetByID(ctx, id)
}

func (r *occurrenceRepository) List(_ context.Context, filter repository.OccurrenceFilter) ([]domain.Occurrence, error) {
	st, release := r.s.acquire()
	defer release()

	matched := matchOccurrences(st, filter)
	sortOccurrences(matched, filter.Sort)

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []domain.Occurrence{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	out := make([]domain.Occurrence, 0, len(matched))
	for _, occ := range matched {
		out = append(out, *occ.Clone())
	}
	return out, nil
}

func (r *occurrenceRepository) Count(_ context.Context, filter repository.OccurrenceFilter) (int, error) {
	st, release := r.s.acquire()
	defer release()
	return len(matchOccurrences(st, filter)), nil
}

func (r *occurrenceRepository) Create(_ context.Context, occurrence *domain.Occurrence) error {
	st, release := r.s.acquire()
	defer release()

	now := r.s.db.now()
	occurrence.ID = st.nextID()
	occurrence.CreatedAt = now
	occurrence.UpdatedAt = now
	st.occurrences[occurrence.ID] = occurrence.Clone()
	return nil
}

func (r *occurrenceRepository) Update(_ context.Context, occurrence *domain.Occurrence) error {
	st, release := r.s.acquire()
	defer release()

	if _, ok := st.occurrences[occurrence.ID]; !ok {
		return domain.ErrOccurrenceNotFound
	}
	occurrence.UpdatedAt = r.s.db.now()
	st.occurrences[occurrence.ID] = occurrence.Clone()
	return nil
}

func matchOccurrences(st *state, f repository.OccurrenceFilter) []*domain.Occurrence {
	var out []*domain.Occurrence
	for _, occ := range sortedOccurrences(st) {
		if matchOccurrence(occ, f) {
			out = append(out, occ)
		}
	}
	return out
}

func matchOccurrence(o *domain.Occurrence, f repository.OccurrenceFilter) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, o.Status) {
		return false
	}
	if f.CategoryID != 0 && o.CategoryID != f.CategoryID {
		return false
	}
	if f.Priority != "" && o.Priority != f.Priority {
		return false
	}
	if f.CitizenID != 0 && o.CitizenID != f.CitizenID {
		return false
	}
	inDepartment := f.DepartmentID != 0 && o.DepartmentID != nil && *o.DepartmentID == f.DepartmentID
	if f.DepartmentID != 0 && f.AssignedOrDepartment == 0 && !inDepartment {
		return false
	}
	if f.AssignedTo != 0 && !o.IsAssignedTo(f.AssignedTo) {
		return false
	}
	if f.Unassigned && o.AssignedTo != nil {
		return false
	}
	if f.WithoutDepartment && o.DepartmentID != nil {
		return false
	}
	if f.AssignedOrDepartment != 0 {
		if !o.IsAssignedTo(f.AssignedOrDepartment) && !(inDepartment && o.AssignedTo == nil) {
			return false
		}
	}
	if f.MaxRating != 0 && (o.Rating == nil || *o.Rating > f.MaxRating) {
		return false
	}
	if f.Unrated && o.Rating != nil {
		return false
	}
	if f.Contested && o.ContestedAt == nil {
		return false
	}
	return true
}

func containsStatus(list []domain.Status, s domain.Status) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}

func sortOccurrences(list []*domain.Occurrence, order repository.OccurrenceSort) {
	var less func(a, b *domain.Occurrence) bool
	switch order {
	case repository.SortOldest:
		less = func(a, b *domain.Occurrence) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case repository.SortPriority:
		less = func(a, b *domain.Occurrence) bool {
			if a.Priority.Rank() != b.Priority.Rank() {
				return a.Priority.Rank() > b.Priority.Rank()
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
	case repository.SortCompletedOldest:
		less = func(a, b *domain.Occurrence) bool { return timeBefore(a.CompletedAt, b.CompletedAt) }
	case repository.SortResolvedNewest:
		less = func(a, b *domain.Occurrence) bool { return timeBefore(b.ResolvedAt, a.ResolvedAt) }
	case repository.SortEvaluatedNewest:
		less = func(a, b *domain.Occurrence) bool { return timeBefore(b.EvaluatedAt, a.EvaluatedAt) }
	case repository.SortContestedNewest:
		less = func(a, b *domain.Occurrence) bool { return timeBefore(b.ContestedAt, a.ContestedAt) }
	default:
		less = func(a, b *domain.Occurrence) bool { return b.CreatedAt.Before(a.CreatedAt) }
	}
	sort.SliceStable(list, func(i, j int) bool { return less(list[i], list[j]) })
}

// timeBefore orders nil after every set value.
func timeBefore(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}
