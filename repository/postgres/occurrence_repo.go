package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
)

const tableOccurrences = "occurrences"

var occurrenceColumns = []string{
	"id", "title", "description", "category_id", "citizen_id", "assigned_to", "department_id",
	"approved_by_id", "validated_by_id", "latitude", "longitude", "address", "status", "priority",
	"created_at", "updated_at", "resolved_at", "approved_at", "started_at", "completed_at",
	"validated_at", "rejection_reason", "blocking_reason", "materials_used", "execution_notes",
	"rating", "feedback", "evaluated_at", "needs_review", "review_reason", "contested_at",
	"contest_reason",
}

var occurrenceOrder = map[repository.OccurrenceSort][]string{
	repository.SortNewest:          {"created_at DESC", "id DESC"},
	repository.SortOldest:          {"created_at ASC", "id ASC"},
	repository.SortPriority:        {"CASE priority WHEN 'urgent' THEN 3 WHEN 'high' THEN 2 WHEN 'medium' THEN 1 ELSE 0 END DESC", "created_at ASC"},
	repository.SortCompletedOldest: {"completed_at ASC NULLS LAST", "id ASC"},
	repository.SortResolvedNewest:  {"resolved_at DESC NULLS LAST", "id DESC"},
	repository.SortEvaluatedNewest: {"evaluated_at DESC NULLS LAST", "id DESC"},
	repository.SortContestedNewest: {"contested_at DESC NULLS LAST", "id DESC"},
}

type occurrenceRepository struct {
	q Querier
}

// NewOccurrenceRepository returns a Postgres-backed occurrence repository.
func NewOccurrenceRepository(q Querier) repository.OccurrenceRepository {
	return &occurrenceRepository{q: q}
}

func (r *occurrenceRepository) GetByID(ctx context.Context, id int64) (*domain.Occurrence, error) {
	qb := builder().Select(occurrenceColumns...).From(tableOccurrences).Where(squirrel.Eq{"id": id})
	occ, err := scanOccurrence(queryRow(ctx, r.q, qb))
	if err != nil {
		return nil, wrapErr("occurrences: get", err, domain.ErrOccurrenceNotFound)
	}
	return occ, nil
}

func (r *occurrenceRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Occurrence, error) {
	qb := builder().Select(occurrenceColumns...).From(tableOccurrences).
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE")
	occ, err := scanOccurrence(queryRow(ctx, r.q, qb))
	if err != nil {
		return nil, wrapErr("occurrences: lock", err, domain.ErrOccurrenceNotFound)
	}
	return occ, nil
}

func (r *occurrenceRepository) List(ctx context.Context, filter repository.OccurrenceFilter) ([]domain.Occurrence, error) {
	order, ok := occurrenceOrder[filter.Sort]
	if !ok {
		order = occurrenceOrder[repository.SortNewest]
	}
	qb := applyOccurrenceFilter(builder().Select(occurrenceColumns...).From(tableOccurrences), filter).
		OrderBy(order...).
		Limit(uint64(clampLimit(filter.Limit)))
	if filter.Offset > 0 {
		qb = qb.Offset(uint64(filter.Offset))
	}

	rows, err := query(ctx, r.q, qb)
	if err != nil {
		return nil, wrapErr("occurrences: list", err, nil)
	}
	defer rows.Close()

	occurrences := []domain.Occurrence{}
	for rows.Next() {
		occ, err := scanOccurrence(rows)
		if err != nil {
			return nil, wrapErr("occurrences: scan", err, nil)
		}
		occurrences = append(occurrences, *occ)
	}
	return occurrences, wrapErr("occurrences: rows", rows.Err(), nil)
}

func (r *occurrenceRepository) Count(ctx context.Context, filter repository.OccurrenceFilter) (int, error) {
	qb := applyOccurrenceFilter(builder().Select("COUNT(*)").From(tableOccurrences), filter)
	var total int
	if err := queryRow(ctx, r.q, qb).Scan(&total); err != nil {
		return 0, wrapErr("occurrences: count", err, nil)
	}
	return total, nil
}

func (r *occurrenceRepository) Create(ctx context.Context, occurrence *domain.Occurrence) error {
	if occurrence == nil {
		return domain.ErrInvalidPayload
	}
	qb := builder().Insert(tableOccurrences).
		SetMap(occurrenceValues(occurrence)).
		Suffix("RETURNING id, created_at, updated_at")
	err := queryRow(ctx, r.q, qb).Scan(&occurrence.ID, &occurrence.CreatedAt, &occurrence.UpdatedAt)
	return wrapErr("occurrences: create", err, nil)
}

func (r *occurrenceRepository) Update(ctx context.Context, occurrence *domain.Occurrence) error {
	if occurrence == nil {
		return domain.ErrInvalidPayload
	}
	qb := builder().Update(tableOccurrences).
		SetMap(occurrenceValues(occurrence)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": occurrence.ID}).
		Suffix("RETURNING updated_at")
	err := queryRow(ctx, r.q, qb).Scan(&occurrence.UpdatedAt)
	return wrapErr("occurrences: update", err, domain.ErrOccurrenceNotFound)
}

func applyOccurrenceFilter(qb squirrel.SelectBuilder, f repository.OccurrenceFilter) squirrel.SelectBuilder {
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			statuses = append(statuses, string(s))
		}
		qb = qb.Where(squirrel.Eq{"status": statuses})
	}
	if f.CategoryID != 0 {
		qb = qb.Where(squirrel.Eq{"category_id": f.CategoryID})
	}
	if f.Priority != "" {
		qb = qb.Where(squirrel.Eq{"priority": string(f.Priority)})
	}
	if f.CitizenID != 0 {
		qb = qb.Where(squirrel.Eq{"citizen_id": f.CitizenID})
	}
	if f.AssignedOrDepartment != 0 {
		qb = qb.Where(squirrel.Or{
			squirrel.Eq{"assigned_to": f.AssignedOrDepartment},
			squirrel.And{
				squirrel.Eq{"department_id": f.DepartmentID},
				squirrel.Eq{"assigned_to": nil},
			},
		})
	} else if f.DepartmentID != 0 {
		qb = qb.Where(squirrel.Eq{"department_id": f.DepartmentID})
	}
	if f.AssignedTo != 0 {
		qb = qb.Where(squirrel.Eq{"assigned_to": f.AssignedTo})
	}
	if f.Unassigned {
		qb = qb.Where(squirrel.Eq{"assigned_to": nil})
	}
	if f.WithoutDepartment {
		qb = qb.Where(squirrel.Eq{"department_id": nil})
	}
	if f.MaxRating != 0 {
		qb = qb.Where(squirrel.LtOrEq{"rating": f.MaxRating})
	}
	if f.Unrated {
		qb = qb.Where(squirrel.Eq{"rating": nil})
	}
	if f.Contested {
		qb = qb.Where(squirrel.NotEq{"contested_at": nil})
	}
	return qb
}

func occurrenceValues(o *domain.Occurrence) map[string]interface{} {
	return map[string]interface{}{
		"title":            o.Title,
		"description":      o.Description,
		"category_id":      o.CategoryID,
		"citizen_id":       o.CitizenID,
		"assigned_to":      o.AssignedTo,
		"department_id":    o.DepartmentID,
		"approved_by_id":   o.ApprovedByID,
		"validated_by_id":  o.ValidatedByID,
		"latitude":         o.Latitude,
		"longitude":        o.Longitude,
		"address":          o.Address,
		"status":           string(o.Status),
		"priority":         string(o.Priority),
		"resolved_at":      o.ResolvedAt,
		"approved_at":      o.ApprovedAt,
		"started_at":       o.StartedAt,
		"completed_at":     o.CompletedAt,
		"validated_at":     o.ValidatedAt,
		"rejection_reason": o.RejectionReason,
		"blocking_reason":  o.BlockingReason,
		"materials_used":   o.MaterialsUsed,
		"execution_notes":  o.ExecutionNotes,
		"rating":           o.Rating,
		"feedback":         o.Feedback,
		"evaluated_at":     o.EvaluatedAt,
		"needs_review":     o.NeedsReview,
		"review_reason":    o.ReviewReason,
		"contested_at":     o.ContestedAt,
		"contest_reason":   o.ContestReason,
	}
}

func scanOccurrence(row scanner) (*domain.Occurrence, error) {
	var o domain.Occurrence
	if err := row.Scan(
		&o.ID,
		&o.Title,
		&o.Description,
		&o.CategoryID,
		&o.CitizenID,
		&o.AssignedTo,
		&o.DepartmentID,
		&o.ApprovedByID,
		&o.ValidatedByID,
		&o.Latitude,
		&o.Longitude,
		&o.Address,
		&o.Status,
		&o.Priority,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.ResolvedAt,
		&o.ApprovedAt,
		&o.StartedAt,
		&o.CompletedAt,
		&o.ValidatedAt,
		&o.RejectionReason,
		&o.BlockingReason,
		&o.MaterialsUsed,
		&o.ExecutionNotes,
		&o.Rating,
		&o.Feedback,
		&o.EvaluatedAt,
		&o.NeedsReview,
		&o.ReviewReason,
		&o.ContestedAt,
		&o.ContestReason,
	); err != nil {
		return nil, err
	}
	return &o, nil
}
