package memory

import (
	"context"
	"sort"
	"time"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
)

type analyticsRepository struct{ s session }

func (r *analyticsRepository) Summary(_ context.Context, since time.Time) (repository.ResolutionSummary, error) {
	st, release := r.s.acquire()
	defer release()

	var (
		summary         repository.ResolutionSummary
		hours, rating   float64
		resolved, rated int
		citizens        = make(map[int64]struct{})
	)
	for _, o := range st.occurrences {
		if !since.IsZero() && o.CreatedAt.Before(since) {
			continue
		}
		summary.Total++
		citizens[o.CitizenID] = struct{}{}
		if o.Status.IsDone() {
			summary.Done++
		}
		if o.ResolvedAt != nil {
			hours += o.ResolvedAt.Sub(o.CreatedAt).Hours()
			resolved++
		}
		if o.Rating != nil {
			rating += float64(*o.Rating)
			rated++
		}
	}
	if resolved > 0 {
		summary.AvgResolutionHours = hours / float64(resolved)
	}
	if rated > 0 {
		summary.AvgRating = rating / float64(rated)
	}
	summary.DistinctCitizens = len(citizens)
	return summary, nil
}

func (r *analyticsRepository) CountByStatus(_ context.Context) (map[domain.Status]int, error) {
	st, release := r.s.acquire()
	defer release()
	out := make(map[domain.Status]int)
	for _, o := range st.occurrences {
		out[o.Status]++
	}
	return out, nil
}

func (r *analyticsRepository) CountByPriority(_ context.Context) (map[domain.Priority]int, error) {
	st, release := r.s.acquire()
	defer release()
	out := make(map[domain.Priority]int)
	for _, o := range st.occurrences {
		out[o.Priority]++
	}
	return out, nil
}

func (r *analyticsRepository) CountByRating(_ context.Context) (map[int]int, error) {
	st, release := r.s.acquire()
	defer release()
	out := make(map[int]int)
	for _, o := range st.occurrences {
		if o.Rating != nil {
			out[*o.Rating]++
		}
	}
	return out, nil
}

func (r *analyticsRepository) CountContested(_ context.Context) (int, error) {
	st, release := r.s.acquire()
	defer release()
	n := 0
	for _, o := range st.occurrences {
		if o.ContestedAt != nil {
			n++
		}
	}
	return n, nil
}

func (r *analyticsRepository) CountUsersByRole(_ context.Context, role domain.Role) (int, error) {
	st, release := r.s.acquire()
	defer release()
	n := 0
	for _, u := range st.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (r *analyticsRepository) ByCategory(_ context.Context) ([]domain.CategoryCount, error) {
	st, release := r.s.acquire()
	defer release()
	counts := make(map[int64]int)
	for _, o := range st.occurrences {
		counts[o.CategoryID]++
	}
	out := []domain.CategoryCount{}
	for id, n := range counts {
		c, ok := st.categories[id]
		if !ok {
			continue
		}
		out = append(out, domain.CategoryCount{Name: c.Name, Color: c.Color, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *analyticsRepository) DailyCreated(_ context.Context, since time.Time) ([]domain.DailyCount, error) {
	st, release := r.s.acquire()
	defer release()
	counts := make(map[string]int)
	for _, o := range st.occurrences {
		if o.CreatedAt.Before(since) {
			continue
		}
		counts[o.CreatedAt.Format("2006-01-02")]++
	}
	out := make([]domain.DailyCount, 0, len(counts))
	for date, n := range counts {
		out = append(out, domain.DailyCount{Date: date, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *analyticsRepository) ByDepartment(_ context.Context) ([]domain.DepartmentPerformance, error) {
	st, release := r.s.acquire()
	defer release()
	perf := make(map[int64]*domain.DepartmentPerformance)
	for _, o := range st.occurrences {
		if o.DepartmentID == nil {
			continue
		}
		d, ok := st.departments[*o.DepartmentID]
		if !ok {
			continue
		}
		p, ok := perf[d.ID]
		if !ok {
			p = &domain.DepartmentPerformance{Name: d.Name}
			perf[d.ID] = p
		}
		p.Total++
		if o.Status.IsDone() {
			p.Resolved++
		}
	}
	out := make([]domain.DepartmentPerformance, 0, len(perf))
	for _, p := range perf {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *analyticsRepository) ScanFacts(_ context.Context, since time.Time, fn func(domain.OccurrenceFact) error) error {
	st, release := r.s.acquire()
	facts := make([]domain.OccurrenceFact, 0, len(st.occurrences))
	for _, o := range sortedOccurrences(st) {
		if !since.IsZero() && o.CreatedAt.Before(since) {
			continue
		}
		fact := domain.OccurrenceFact{Address: o.Address, Status: o.Status, Priority: o.Priority}
		if o.Rating != nil {
			rating := *o.Rating
			fact.Rating = &rating
		}
		facts = append(facts, fact)
	}
	release()

	for _, fact := range facts {
		if err := fn(fact); err != nil {
			return err
		}
	}
	return nil
}

func (r *analyticsRepository) TopRated(_ context.Context, minRating, limit int) ([]domain.SuccessStory, error) {
	st, release := r.s.acquire()
	defer release()
	var picked []*domain.Occurrence
	for _, o := range st.occurrences {
		if o.Status.IsDone() && o.Rating != nil && *o.Rating >= minRating {
			picked = append(picked, o)
		}
	}
	sort.Slice(picked, func(i, j int) bool {
		if *picked[i].Rating != *picked[j].Rating {
			return *picked[i].Rating > *picked[j].Rating
		}
		return timeBefore(picked[j].ResolvedAt, picked[i].ResolvedAt)
	})
	if limit > 0 && len(picked) > limit {
		picked = picked[:limit]
	}
	out := make([]domain.SuccessStory, 0, len(picked))
	for _, o := range picked {
		story := domain.SuccessStory{
			ID:          o.ID,
			Title:       o.Title,
			Description: o.Description,
			Address:     o.Address,
			Rating:      *o.Rating,
			Feedback:    o.Feedback,
			CreatedAt:   o.CreatedAt,
			ResolvedAt:  o.ResolvedAt,
		}
		if c, ok := st.categories[o.CategoryID]; ok {
			story.Category = c.Name
		}
		out = append(out, story)
	}
	return out, nil
}

func (r *analyticsRepository) Workflow(_ context.Context, since time.Time) (repository.WorkflowSummary, error) {
	st, release := r.s.acquire()
	defer release()

	triagedAt := make(map[int64]time.Time)
	var summary repository.WorkflowSummary
	for _, e := range st.timeline {
		switch e.Action {
		case domain.ActionTriaged:
			if first, ok := triagedAt[e.OccurrenceID]; !ok || e.CreatedAt.Before(first) {
				triagedAt[e.OccurrenceID] = e.CreatedAt
			}
		case domain.ActionValidationApproved, domain.ActionValidationRejected:
			if e.CreatedAt.Before(since) {
				continue
			}
			summary.Validations++
			if e.Action == domain.ActionValidationRejected {
				summary.Rejections++
			}
		}
	}

	var triageHours, execHours float64
	var triaged, executed int
	for _, o := range st.occurrences {
		if o.CreatedAt.Before(since) {
			continue
		}
		if at, ok := triagedAt[o.ID]; ok && o.DepartmentID != nil {
			triageHours += at.Sub(o.CreatedAt).Hours()
			triaged++
		}
		if o.StartedAt != nil && o.CompletedAt != nil {
			execHours += o.CompletedAt.Sub(*o.StartedAt).Hours()
			executed++
		}
	}
	if triaged > 0 {
		summary.AvgTriageHours = triageHours / float64(triaged)
	}
	if executed > 0 {
		summary.AvgExecutionHours = execHours / float64(executed)
	}
	return summary, nil
}

func (r *analyticsRepository) Monthly(_ context.Context, since time.Time) ([]repository.MonthSummary, error) {
	st, release := r.s.acquire()
	defer release()

	type acc struct {
		month                   repository.MonthSummary
		rating, hours           float64
		rated, resolvedWithTime int
	}
	months := make(map[time.Time]*acc)
	for _, o := range st.occurrences {
		if o.CreatedAt.Before(since) {
			continue
		}
		created := o.CreatedAt.UTC()
		key := time.Date(created.Year(), created.Month(), 1, 0, 0, 0, 0, time.UTC)
		a, ok := months[key]
		if !ok {
			a = &acc{month: repository.MonthSummary{Month: key}}
			months[key] = a
		}
		a.month.Total++
		if o.Status.IsDone() {
			a.month.Done++
		}
		if o.Rating != nil {
			a.rating += float64(*o.Rating)
			a.rated++
		}
		if o.ResolvedAt != nil {
			a.hours += o.ResolvedAt.Sub(o.CreatedAt).Hours()
			a.resolvedWithTime++
		}
	}

	out := make([]repository.MonthSummary, 0, len(months))
	for _, a := range months {
		m := a.month
		if a.rated > 0 {
			m.AvgRating = a.rating / float64(a.rated)
		}
		if a.resolvedWithTime > 0 {
			m.AvgResolutionHours = a.hours / float64(a.resolvedWithTime)
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out, nil
}

var _ repository.AnalyticsRepository = (*analyticsRepository)(nil)
