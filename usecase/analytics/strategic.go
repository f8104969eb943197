package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
)

const (
	defaultKPIDays          = 30
	defaultNeighborhoodDays = 90
	evolutionMonths         = 12
	neighborhoodLimit       = 10
)

// WorkflowMetrics reports the status funnel and stage latencies for
// occurrences created in the last days (30 by default).
func (uc *UseCase) WorkflowMetrics(ctx context.Context, days int) (*domain.WorkflowMetrics, error) {
	days = clampDays(days, defaultKPIDays)
	since := uc.now().Add(-time.Duration(days) * 24 * time.Hour)

	var (
		byStatus map[domain.Status]int
		workflow repository.WorkflowSummary
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		byStatus, err = uc.repo.CountByStatus(egCtx)
		return err
	})
	eg.Go(func() (err error) {
		workflow, err = uc.repo.Workflow(egCtx, since)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	funnel := make(map[domain.Status]int, len(domain.Statuses))
	for _, s := range domain.Statuses {
		funnel[s] = byStatus[s]
	}
	return &domain.WorkflowMetrics{
		Funnel:           funnel,
		AvgTriageTime:    round1(workflow.AvgTriageHours),
		AvgExecutionTime: round1(workflow.AvgExecutionHours),
		RejectionRate:    round1(percent(workflow.Rejections, workflow.Validations)),
		PeriodDays:       days,
	}, nil
}

// ManagementEvolution returns the last twelve calendar months, oldest first,
// with empty months reported as zeros.
func (uc *UseCase) ManagementEvolution(ctx context.Context) (*domain.ManagementEvolution, error) {
	now := uc.now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(evolutionMonths - 1), 0)

	rows, err := uc.repo.Monthly(ctx, first)
	if err != nil {
		return nil, err
	}
	byMonth := make(map[string]repository.MonthSummary, len(rows))
	for _, r := range rows {
		byMonth[r.Month.UTC().Format("2006-01")] = r
	}

	out := &domain.ManagementEvolution{Months: make([]domain.MonthStats, 0, evolutionMonths)}
	for i := 0; i < evolutionMonths; i++ {
		key := first.AddDate(0, i, 0).Format("2006-01")
		r := byMonth[key]
		out.Months = append(out.Months, domain.MonthStats{
			Month:               key,
			TotalOccurrences:    r.Total,
			ResolvedOccurrences: r.Done,
			ResolutionRate:      round1(percent(r.Done, r.Total)),
			AvgRating:           round2(r.AvgRating),
			AvgResolutionTime:   round1(r.AvgResolutionHours),
			SatisfactionIndex:   round1(r.AvgRating / float64(domain.MaxRating) * 100),
		})
	}

	current, previous := out.Months[evolutionMonths-1], out.Months[evolutionMonths-2]
	out.Trends = domain.EvolutionTrends{
		ResolutionRateTrend: round1(current.ResolutionRate - previous.ResolutionRate),
		SatisfactionTrend:   round1(current.SatisfactionIndex - previous.SatisfactionIndex),
		VolumeTrend:         current.TotalOccurrences - previous.TotalOccurrences,
		EfficiencyTrend:     round1(previous.AvgResolutionTime - current.AvgResolutionTime),
	}
	return out, nil
}

// PoliticalKPIs summarizes occurrences created in the last days (30 by default).
func (uc *UseCase) PoliticalKPIs(ctx context.Context, days int) (*domain.PoliticalKPIs, error) {
	days = clampDays(days, defaultKPIDays)
	summary, err := uc.repo.Summary(ctx, uc.now().Add(-time.Duration(days)*24*time.Hour))
	if err != nil {
		return nil, err
	}
	return &domain.PoliticalKPIs{
		SatisfactionIndex:   round1(summary.AvgRating / float64(domain.MaxRating) * 100),
		ResolutionRate:      round1(percent(summary.Done, summary.Total)),
		CitizensServed:      summary.DistinctCitizens,
		AvgResolutionTime:   round1(summary.AvgResolutionHours),
		AvgRating:           round2(summary.AvgRating),
		TotalOccurrences:    summary.Total,
		ResolvedOccurrences: summary.Done,
		PeriodDays:          days,
	}, nil
}

// NeighborhoodPriority ranks the ten neighborhoods most in need of a task
// force over the last days (90 by default). The score averages urgency
// (mean priority weight x 25), volume (2 per occurrence, capped at 100) and
// the unresolved share.
func (uc *UseCase) NeighborhoodPriority(ctx context.Context, days int) ([]domain.NeighborhoodPriority, error) {
	days = clampDays(days, defaultNeighborhoodDays)
	since := uc.now().Add(-time.Duration(days) * 24 * time.Hour)

	type acc struct {
		np                   domain.NeighborhoodPriority
		prioritySum, ratings int
	}
	groups := make(map[string]*acc)
	err := uc.repo.ScanFacts(ctx, since, func(f domain.OccurrenceFact) error {
		name := uc.parser.Neighborhood(f.Address)
		g, ok := groups[name]
		if !ok {
			g = &acc{np: domain.NeighborhoodPriority{Name: name}}
			groups[name] = g
		}
		g.np.TotalOccurrences++
		switch {
		case f.Status == domain.StatusOpen:
			g.np.OpenOccurrences++
		case f.Status.IsDone():
			g.np.ResolvedOccurrences++
		}
		g.prioritySum += priorityWeight(f.Priority)
		if f.Rating != nil {
			g.np.TotalRatings++
			g.ratings += *f.Rating
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan occurrence facts: %w", err)
	}

	out := make([]domain.NeighborhoodPriority, 0, len(groups))
	for _, g := range groups {
		np := g.np
		avgPriority := float64(g.prioritySum) / float64(np.TotalOccurrences)
		rate := percent(np.ResolvedOccurrences, np.TotalOccurrences)
		volume := float64(np.TotalOccurrences * 2)
		if volume > 100 {
			volume = 100
		}
		np.AvgPriority = round2(avgPriority)
		np.ResolutionRate = round1(rate)
		if np.TotalRatings > 0 {
			np.AvgRating = round2(float64(g.ratings) / float64(np.TotalRatings))
		}
		np.PriorityScore = round1((avgPriority*25 + volume + (100 - rate)) / 3)
		out = append(out, np)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PriorityScore != out[j].PriorityScore {
			return out[i].PriorityScore > out[j].PriorityScore
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > neighborhoodLimit {
		out = out[:neighborhoodLimit]
	}
	return out, nil
}

// priorityWeight maps LOW..URGENT to 1..4; unknown values count as MEDIUM.
func priorityWeight(p domain.Priority) int {
	if rank := p.Rank(); rank >= 0 {
		return rank + 1
	}
	return 2
}

func clampDays(days, fallback int) int {
	if days <= 0 {
		return fallback
	}
	if days > maxTimelineDays {
		return maxTimelineDays
	}
	return days
}
