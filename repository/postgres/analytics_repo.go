package postgres

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
)

const (
	doneStatuses  = "status IN ('resolved', 'closed')"
	tableTimeline = "occurrence_timeline"
)

type analyticsRepository struct {
	q Querier
}

func (r *analyticsRepository) Summary(ctx context.Context, since time.Time) (repository.ResolutionSummary, error) {
	qb := builder().Select(
		"COUNT(*)",
		"COUNT(*) FILTER (WHERE "+doneStatuses+")",
		"COALESCE(AVG(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600) FILTER (WHERE resolved_at IS NOT NULL), 0)::float8",
		"COALESCE(AVG(rating), 0)::float8",
		"COUNT(DISTINCT citizen_id)",
	).From(tableOccurrences)
	if !since.IsZero() {
		qb = qb.Where(squirrel.GtOrEq{"created_at": since})
	}

	var s repository.ResolutionSummary
	err := queryRow(ctx, r.q, qb).Scan(&s.Total, &s.Done, &s.AvgResolutionHours, &s.AvgRating, &s.DistinctCitizens)
	return s, wrapErr("analytics: summary", err, nil)
}

func (r *analyticsRepository) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	out := make(map[domain.Status]int)
	err := r.groupCount(ctx, "status", func(key string, n int) { out[domain.Status(key)] = n })
	return out, err
}

func (r *analyticsRepository) CountByPriority(ctx context.Context) (map[domain.Priority]int, error) {
	out := make(map[domain.Priority]int)
	err := r.groupCount(ctx, "priority", func(key string, n int) { out[domain.Priority(key)] = n })
	return out, err
}

func (r *analyticsRepository) groupCount(ctx context.Context, column string, fn func(key string, n int)) error {
	qb := builder().Select(column, "COUNT(*)").From(tableOccurrences).GroupBy(column)
	rows, err := query(ctx, r.q, qb)
	if err != nil {
		return wrapErr("analytics: count by "+column, err, nil)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return wrapErr("analytics: scan", err, nil)
		}
		fn(key, n)
	}
	return wrapErr("analytics: rows", rows.Err(), nil)
}

func (r *analyticsRepository) CountByRating(ctx context.Context) (map[int]int, error) {
	qb := builder().Select("rating", "COUNT(*)").From(tableOccurrences).
		Where(squirrel.NotEq{"rating": nil}).
		GroupBy("rating")
	rows, err := query(ctx, r.q, qb)
	if err != nil {
		return nil, wrapErr("analytics: count by rating", err, nil)
	}
	defer rows.Close()

	out := make(map[int]int)
	for rows.Next() {
		var rating, n int
		if err := rows.Scan(&rating, &n); err != nil {
			return nil, wrapErr("analytics: scan", err, nil)
		}
		out[rating] = n
	}
	return out, wrapErr("analytics: rows", rows.Err(), nil)
}

func (r *analyticsRepository) CountContested(ctx context.Context) (int, error) {
	qb := builder().Select("COUNT(*)").From(tableOccurrences).Where(squirrel.NotEq{"contested_at": nil})
	var n int
	err := queryRow(ctx, r.q, qb).Scan(&n)
	return n, wrapErr("analytics: contested", err, nil)
}

func (r *analyticsRepository) CountUsersByRole(ctx context.Context, role domain.Role) (int, error) {
	qb := builder().Select("COUNT(*)").From("users").Where(squirrel.Eq{"user_type": string(role)})
	var n int
	err := queryRow(ctx, r.q, qb).Scan(&n)
	return n, wrapErr("analytics: users by role", err, nil)
}

func (r *analyticsRepository) ByCategory(ctx context.Context) ([]domain.CategoryCount, error) {
	qb := builder().Select("c.name", "c.color", "COUNT(o.id)").
		From("categories c").
		Join("occurrences o ON o.category_id = c.id").
		GroupBy("c.id", "c.name", "c.color").
		OrderBy("COUNT(o.id) DESC", "c.name ASC")
	rows, err := query(ctx, r.q, qb)
	if err != nil {
		return nil, wrapErr("analytics: by category", err, nil)
	}
	defer rows.Close()

	out := []domain.CategoryCount{}
	for rows.Next() {
		var c domain.CategoryCount
		if err := rows.Scan(&c.Name, &c.Color, &c.Count); err != nil {
			return nil, wrapErr("analytics: scan", err, nil)
		}
		out = append(out, c)
	}
	return out, wrapErr("analytics: rows", rows.Err(), nil)
}

func (r *analyticsRepository) DailyCreated(ctx context.Context, since time.Time) ([]domain.DailyCount, error) {
	qb := builder().Select("to_char(date_trunc('day', created_at), 'YYYY-MM-DD') AS day", "COUNT(*)").
		From(tableOccurrences).
		Where(squirrel.GtOrEq{"created_at": since}).
		GroupBy("day").
		OrderBy("day ASC")
	rows, err := query(ctx, r.q, qb)
	if err != nil {
		return nil, wrapErr("analytics: daily", err, nil)
	}
	defer rows.Close()

	out := []domain.DailyCount{}
	for rows.Next() {
		var d domain.DailyCount
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, wrapErr("analytics: scan", err, nil)
		}
		out = append(out, d)
	}
	return out, wrapErr("analytics: rows", rows.Err(), nil)
}

func (r *analyticsRepository) ByDepartment(ctx context.Context) ([]domain.DepartmentPerformance, error) {
	qb := builder().Select("d.name", "COUNT(o.id)", "COUNT(o.id) FILTER (WHERE o."+doneStatuses+")").
		From("departments d").
		Join("occurrences o ON o.department_id = d.id").
		GroupBy("d.id", "d.name").
		OrderBy("d.name ASC")
	rows, err := query(ctx, r.q, qb)
	if err != nil {
		return nil, wrapErr("analytics: by department", err, nil)
	}
	defer rows.Close()

	out := []domain.DepartmentPerformance{}
	for rows.Next() {
		var p domain.DepartmentPerformance
		if err := rows.Scan(&p.Name, &p.Total, &p.Resolved); err != nil {
			return nil, wrapErr("analytics: scan", err, nil)
		}
		out = append(out, p)
	}
	return out, wrapErr("analytics: rows", rows.Err(), nil)
}

func (r *analyticsRepository) ScanFacts(ctx context.Context, since time.Time, fn func(domain.OccurrenceFact) error) error {
	qb := builder().Select("address", "status", "priority", "rating").From(tableOccurrences).OrderBy("id ASC")
	if !since.IsZero() {
		qb = qb.Where(squirrel.GtOrEq{"created_at": since})
	}
	rows, err := query(ctx, r.q, qb)
	if err != nil {
		return wrapErr("analytics: facts", err, nil)
	}
	defer rows.Close()

	for rows.Next() {
		var f domain.OccurrenceFact
		if err := rows.Scan(&f.Address, &f.Status, &f.Priority, &f.Rating); err != nil {
			return wrapErr("analytics: scan", err, nil)
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return wrapErr("analytics: rows", rows.Err(), nil)
}

func (r *analyticsRepository) Workflow(ctx context.Context, since time.Time) (repository.WorkflowSummary, error) {
	var s repository.WorkflowSummary

	triage := builder().
		Select("COALESCE(AVG(EXTRACT(EPOCH FROM (t.triaged_at - o.created_at)) / 3600), 0)::float8").
		From("occurrences o").
		JoinClause("JOIN (SELECT occurrence_id, MIN(created_at) AS triaged_at FROM "+tableTimeline+
			" WHERE action = ? GROUP BY occurrence_id) t ON t.occurrence_id = o.id", domain.ActionTriaged).
		Where(squirrel.GtOrEq{"o.created_at": since}).
		Where(squirrel.NotEq{"o.department_id": nil})
	if err := queryRow(ctx, r.q, triage).Scan(&s.AvgTriageHours); err != nil {
		return s, wrapErr("analytics: triage time", err, nil)
	}

	execution := builder().
		Select("COALESCE(AVG(EXTRACT(EPOCH FROM (completed_at - started_at)) / 3600), 0)::float8").
		From(tableOccurrences).
		Where(squirrel.GtOrEq{"created_at": since}).
		Where(squirrel.NotEq{"started_at": nil, "completed_at": nil})
	if err := queryRow(ctx, r.q, execution).Scan(&s.AvgExecutionHours); err != nil {
		return s, wrapErr("analytics: execution time", err, nil)
	}

	validations := builder().Select().
		Column(squirrel.Expr("COUNT(*) FILTER (WHERE action IN (?, ?))", domain.ActionValidationApproved, domain.ActionValidationRejected)).
		Column(squirrel.Expr("COUNT(*) FILTER (WHERE action = ?)", domain.ActionValidationRejected)).
		From(tableTimeline).
		Where(squirrel.GtOrEq{"created_at": since})
	err := queryRow(ctx, r.q, validations).Scan(&s.Validations, &s.Rejections)
	return s, wrapErr("analytics: validations", err, nil)
}

func (r *analyticsRepository) Monthly(ctx context.Context, since time.Time) ([]repository.MonthSummary, error) {
	qb := builder().Select(
		"date_trunc('month', created_at AT TIME ZONE 'UTC') AS month",
		"COUNT(*)",
		"COUNT(*) FILTER (WHERE "+doneStatuses+")",
		"COALESCE(AVG(rating), 0)::float8",
		"COALESCE(AVG(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600) FILTER (WHERE resolved_at IS NOT NULL), 0)::float8",
	).
		From(tableOccurrences).
		Where(squirrel.GtOrEq{"created_at": since}).
		GroupBy("month").
		OrderBy("month ASC")
	rows, err := query(ctx, r.q, qb)
	if err != nil {
		return nil, wrapErr("analytics: monthly", err, nil)
	}
	defer rows.Close()

	out := []repository.MonthSummary{}
	for rows.Next() {
		var m repository.MonthSummary
		if err := rows.Scan(&m.Month, &m.Total, &m.Done, &m.AvgRating, &m.AvgResolutionHours); err != nil {
			return nil, wrapErr("analytics: scan", err, nil)
		}
		m.Month = m.Month.UTC()
		out = append(out, m)
	}
	return out, wrapErr("analytics: rows", rows.Err(), nil)
}

func (r *analyticsRepository) TopRated(ctx context.Context, minRating, limit int) ([]domain.SuccessStory, error) {
	qb := builder().Select("o.id", "o.title", "o.description", "o.address", "COALESCE(c.name, '')", "o.rating",
		"o.feedback", "o.created_at", "o.resolved_at").
		From("occurrences o").
		LeftJoin("categories c ON c.id = o.category_id").
		Where("o."+doneStatuses).
		Where(squirrel.GtOrEq{"o.rating": minRating}).
		OrderBy("o.rating DESC", "o.resolved_at DESC NULLS LAST").
		Limit(uint64(clampLimit(limit)))
	rows, err := query(ctx, r.q, qb)
	if err != nil {
		return nil, wrapErr("analytics: top rated", err, nil)
	}
	defer rows.Close()

	out := []domain.SuccessStory{}
	for rows.Next() {
		var s domain.SuccessStory
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.Address, &s.Category, &s.Rating, &s.Feedback,
			&s.CreatedAt, &s.ResolvedAt); err != nil {
			return nil, wrapErr("analytics: scan", err, nil)
		}
		out = append(out, s)
	}
	return out, wrapErr("analytics: rows", rows.Err(), nil)
}
