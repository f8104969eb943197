package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
)

type timelineRepository struct {
	q Querier
}

func (r *timelineRepository) Append(ctx context.Context, entry *domain.TimelineEntry) error {
	if entry == nil {
		return domain.ErrInvalidPayload
	}
	var oldStatus, newStatus interface{}
	if entry.OldStatus != nil {
		oldStatus = string(*entry.OldStatus)
	}
	if entry.NewStatus != nil {
		newStatus = string(*entry.NewStatus)
	}
	qb := builder().Insert("occurrence_timeline").
		Columns("occurrence_id", "user_id", "action", "description", "old_status", "new_status").
		Values(entry.OccurrenceID, entry.UserID, entry.Action, entry.Description, oldStatus, newStatus).
		Suffix("RETURNING id, created_at")
	err := queryRow(ctx, r.q, qb).Scan(&entry.ID, &entry.CreatedAt)
	return wrapErr("timeline: append", err, nil)
}

func (r *timelineRepository) ListByOccurrence(ctx context.Context, occurrenceID int64) ([]domain.TimelineEntry, error) {
	qb := builder().
		Select("t.id", "t.occurrence_id", "t.user_id", "t.action", "t.description", "t.old_status",
			"t.new_status", "t.created_at", "u.name", "u.user_type").
		From("occurrence_timeline t").
		LeftJoin("users u ON u.id = t.user_id").
		Where(squirrel.Eq{"t.occurrence_id": occurrenceID}).
		OrderBy("t.created_at DESC", "t.id DESC")

	rows, err := query(ctx, r.q, qb)
	if err != nil {
		return nil, wrapErr("timeline: list", err, nil)
	}
	defer rows.Close()

	entries := []domain.TimelineEntry{}
	for rows.Next() {
		var (
			e         domain.TimelineEntry
			oldStatus *string
			newStatus *string
			userName  *string
			userRole  *string
		)
		if err := rows.Scan(&e.ID, &e.OccurrenceID, &e.UserID, &e.Action, &e.Description,
			&oldStatus, &newStatus, &e.CreatedAt, &userName, &userRole); err != nil {
			return nil, wrapErr("timeline: scan", err, nil)
		}
		if oldStatus != nil {
			s := domain.Status(*oldStatus)
			e.OldStatus = &s
		}
		if newStatus != nil {
			s := domain.Status(*newStatus)
			e.NewStatus = &s
		}
		if e.UserID != nil && userName != nil {
			e.User = &domain.UserSummary{ID: *e.UserID, Name: *userName}
			if userRole != nil {
				e.User.Role = domain.Role(*userRole)
			}
		}
		entries = append(entries, e)
	}
	return entries, wrapErr("timeline: rows", rows.Err(), nil)
}

type photoRepository struct {
	q Querier
}

func (r *photoRepository) Create(ctx context.Context, photo *domain.Photo) error {
	if photo == nil {
		return domain.ErrInvalidPayload
	}
	qb := builder().Insert("occurrence_photos").
		Columns("occurrence_id", "kind", "filename", "original_filename", "file_size").
		Values(photo.OccurrenceID, string(photo.Kind), photo.Filename, photo.OriginalFilename, photo.FileSize).
		Suffix("RETURNING id, uploaded_at")
	if err := queryRow(ctx, r.q, qb).Scan(&photo.ID, &photo.UploadedAt); err != nil {
		return wrapErr("photos: create", err, nil)
	}
	photo.URL = domain.PhotoURL(photo.Filename)
	return nil
}

func (r *photoRepository) ListByOccurrence(ctx context.Context, occurrenceID int64) ([]domain.Photo, error) {
	qb := builder().
		Select("id", "occurrence_id", "kind", "filename", "original_filename", "file_size", "uploaded_at").
		From("occurrence_photos").
		Where(squirrel.Eq{"occurrence_id": occurrenceID}).
		OrderBy("uploaded_at ASC", "id ASC")

	rows, err := query(ctx, r.q, qb)
	if err != nil {
		return nil, wrapErr("photos: list", err, nil)
	}
	defer rows.Close()

	photos := []domain.Photo{}
	for rows.Next() {
		var p domain.Photo
		if err := rows.Scan(&p.ID, &p.OccurrenceID, &p.Kind, &p.Filename, &p.OriginalFilename, &p.FileSize, &p.UploadedAt); err != nil {
			return nil, wrapErr("photos: scan", err, nil)
		}
		p.URL = domain.PhotoURL(p.Filename)
		photos = append(photos, p)
	}
	return photos, wrapErr("photos: rows", rows.Err(), nil)
}

type supportRepository struct {
	q Querier
}

func (r *supportRepository) Exists(ctx context.Context, occurrenceID, citizenID int64) (bool, error) {
	qb := builder().Select("1").From("occurrence_supports").
		Where(squirrel.Eq{"occurrence_id": occurrenceID, "citizen_id": citizenID}).
		Prefix("SELECT EXISTS (").Suffix(")")
	var exists bool
	if err := queryRow(ctx, r.q, qb).Scan(&exists); err != nil {
		return false, wrapErr("supports: exists", err, nil)
	}
	return exists, nil
}

func (r *supportRepository) Create(ctx context.Context, support *domain.Support) error {
	if support == nil {
		return domain.ErrInvalidPayload
	}
	qb := builder().Insert("occurrence_supports").
		Columns("occurrence_id", "citizen_id").
		Values(support.OccurrenceID, support.CitizenID).
		Suffix("RETURNING id, created_at")
	if err := queryRow(ctx, r.q, qb).Scan(&support.ID, &support.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadySupported
		}
		return wrapErr("supports: create", err, nil)
	}
	return nil
}

func (r *supportRepository) CountByOccurrence(ctx context.Context, occurrenceID int64) (int, error) {
	qb := builder().Select("COUNT(*)").From("occurrence_supports").
		Where(squirrel.Eq{"occurrence_id": occurrenceID})
	var total int
	if err := queryRow(ctx, r.q, qb).Scan(&total); err != nil {
		return 0, wrapErr("supports: count", err, nil)
	}
	return total, nil
}

type evaluationRepository struct {
	q Querier
}

var evaluationColumns = []string{
	"id", "occurrence_id", "citizen_id", "rating", "quality_rating", "speed_rating",
	"communication_rating", "feedback", "is_satisfied", "would_recommend", "needs_rework", "created_at",
}

// GetByOccurrence returns nil without error when no evaluation exists.
func (r *evaluationRepository) GetByOccurrence(ctx context.Context, occurrenceID int64) (*domain.Evaluation, error) {
	qb := builder().Select(evaluationColumns...).From("occurrence_evaluations").
		Where(squirrel.Eq{"occurrence_id": occurrenceID})
	var e domain.Evaluation
	err := queryRow(ctx, r.q, qb).Scan(&e.ID, &e.OccurrenceID, &e.CitizenID, &e.Rating, &e.QualityRating,
		&e.SpeedRating, &e.CommunicationRating, &e.Feedback, &e.IsSatisfied, &e.WouldRecommend,
		&e.NeedsRework, &e.CreatedAt)
	if err != nil {
		if err = wrapErr("evaluations: get", err, errNoEvaluation); err == errNoEvaluation {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *evaluationRepository) Create(ctx context.Context, e *domain.Evaluation) error {
	if e == nil {
		return domain.ErrInvalidPayload
	}
	qb := builder().Insert("occurrence_evaluations").
		Columns(evaluationColumns[1:len(evaluationColumns)-1]...).
		Values(e.OccurrenceID, e.CitizenID, e.Rating, e.QualityRating, e.SpeedRating,
			e.CommunicationRating, e.Feedback, e.IsSatisfied, e.WouldRecommend, e.NeedsRework).
		Suffix("RETURNING id, created_at")
	if err := queryRow(ctx, r.q, qb).Scan(&e.ID, &e.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyEvaluated
		}
		return wrapErr("evaluations: create", err, nil)
	}
	return nil
}

var errNoEvaluation = domain.NewError(domain.ErrCodeNotFound, "evaluation not found")

var (
	_ repository.TimelineRepository   = (*timelineRepository)(nil)
	_ repository.PhotoRepository      = (*photoRepository)(nil)
	_ repository.SupportRepository    = (*supportRepository)(nil)
	_ repository.EvaluationRepository = (*evaluationRepository)(nil)
)
