package analytics

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
)

const (
	recentWindow        = 30 * 24 * time.Hour
	defaultTimelineDays = 30
	maxTimelineDays     = 365
	successStoryLimit   = 10
	successMinRating    = 4
	fallbackCategory    = "Outros"
)

// UseCase computes dashboard aggregates on demand.
type UseCase struct {
	repo   repository.AnalyticsRepository
	parser domain.AddressParser
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*UseCase)

func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) { uc.now = now }
}

func WithAddressParser(parser domain.AddressParser) Option {
	return func(uc *UseCase) { uc.parser = parser }
}

func New(repo repository.AnalyticsRepository, logger *zap.Logger, opts ...Option) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &UseCase{
		repo:   repo,
		parser: domain.CommaAddressParser{},
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *UseCase) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	var (
		all, recent repository.ResolutionSummary
		byStatus    map[domain.Status]int
		byPriority  map[domain.Priority]int
		citizens    int
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		all, err = uc.repo.Summary(egCtx, time.Time{})
		return err
	})
	eg.Go(func() (err error) {
		recent, err = uc.repo.Summary(egCtx, uc.now().Add(-recentWindow))
		return err
	})
	eg.Go(func() (err error) {
		byStatus, err = uc.repo.CountByStatus(egCtx)
		return err
	})
	eg.Go(func() (err error) {
		byPriority, err = uc.repo.CountByPriority(egCtx)
		return err
	})
	eg.Go(func() (err error) {
		citizens, err = uc.repo.CountUsersByRole(egCtx, domain.RoleCitizen)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	stats := &domain.DashboardStats{
		TotalOccurrences:       all.Total,
		StatusBreakdown:        make(map[domain.Status]int, len(domain.Statuses)),
		PriorityBreakdown:      make(map[domain.Priority]int, len(domain.Priorities)),
		RecentOccurrences:      recent.Total,
		AvgResolutionTimeHours: round1(all.AvgResolutionHours),
		AvgRating:              round1(all.AvgRating),
		TotalCitizens:          citizens,
	}
	for _, s := range domain.Statuses {
		stats.StatusBreakdown[s] = byStatus[s]
	}
	for _, p := range domain.Priorities {
		stats.PriorityBreakdown[p] = byPriority[p]
	}
	return stats, nil
}

func (uc *UseCase) ByCategory(ctx context.Context) ([]domain.CategoryCount, error) {
	return uc.repo.ByCategory(ctx)
}

// Timeline returns daily creation counts over the last days (30 by default).
func (uc *UseCase) Timeline(ctx context.Context, days int) ([]domain.DailyCount, error) {
	days = clampDays(days, defaultTimelineDays)
	since := uc.now().Add(-time.Duration(days) * 24 * time.Hour)
	return uc.repo.DailyCreated(ctx, since)
}

func (uc *UseCase) ByDepartment(ctx context.Context) ([]domain.DepartmentPerformance, error) {
	perf, err := uc.repo.ByDepartment(ctx)
	if err != nil {
		return nil, err
	}
	for i := range perf {
		perf[i].ResolutionRate = round1(percent(perf[i].Resolved, perf[i].Total))
	}
	return perf, nil
}

func (uc *UseCase) PoliticalMetrics(ctx context.Context) (*domain.PoliticalMetrics, error) {
	var all, recent repository.ResolutionSummary
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		all, err = uc.repo.Summary(egCtx, time.Time{})
		return err
	})
	eg.Go(func() (err error) {
		recent, err = uc.repo.Summary(egCtx, uc.now().Add(-recentWindow))
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	rate := percent(all.Done, all.Total)
	avgRating := round1(all.AvgRating)
	satisfaction := decimal.NewFromFloat(rate).Mul(decimal.NewFromFloat(0.6)).
		Add(decimal.NewFromFloat(avgRating).Mul(decimal.NewFromInt(20)).Mul(decimal.NewFromFloat(0.4)))

	return &domain.PoliticalMetrics{
		TotalOccurrences:    all.Total,
		ResolvedOccurrences: all.Done,
		ResolutionRate:      round1(rate),
		RecentOccurrences:   recent.Total,
		RecentResolved:      recent.Done,
		AvgResolutionHours:  round1(all.AvgResolutionHours),
		AvgRating:           avgRating,
		ActiveCitizens:      all.DistinctCitizens,
		SatisfactionIndex:   satisfaction.Round(1).InexactFloat64(),
	}, nil
}

// NeighborhoodAnalysis groups occurrences by the neighborhood parsed from
// their address, most pressing first.
func (uc *UseCase) NeighborhoodAnalysis(ctx context.Context) ([]domain.NeighborhoodStats, error) {
	type acc struct {
		stats  domain.NeighborhoodStats
		rating int
	}
	groups := make(map[string]*acc)

	err := uc.repo.ScanFacts(ctx, time.Time{}, func(f domain.OccurrenceFact) error {
		name := uc.parser.Neighborhood(f.Address)
		g, ok := groups[name]
		if !ok {
			g = &acc{stats: domain.NeighborhoodStats{Name: name}}
			groups[name] = g
		}
		s := &g.stats
		s.Total++
		switch f.Status {
		case domain.StatusOpen:
			s.Open++
		case domain.StatusInProgress:
			s.InProgress++
		case domain.StatusResolved:
			s.Resolved++
		case domain.StatusClosed:
			s.Closed++
		}
		switch f.Priority {
		case domain.PriorityUrgent:
			s.Urgent++
		case domain.PriorityHigh:
			s.High++
		case domain.PriorityMedium:
			s.Medium++
		case domain.PriorityLow:
			s.Low++
		}
		if f.Rating != nil {
			s.RatingsCount++
			g.rating += *f.Rating
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan occurrence facts: %w", err)
	}

	out := make([]domain.NeighborhoodStats, 0, len(groups))
	for _, g := range groups {
		s := g.stats
		if s.RatingsCount > 0 {
			s.AvgRating = round1(float64(g.rating) / float64(s.RatingsCount))
		}
		s.ResolutionRate = round1(percent(s.Resolved+s.Closed, s.Total))
		s.PriorityIndex = s.Open + s.InProgress + 3*s.Urgent + 2*s.High
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PriorityIndex != out[j].PriorityIndex {
			return out[i].PriorityIndex > out[j].PriorityIndex
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (uc *UseCase) SuccessStories(ctx context.Context) ([]domain.SuccessStory, error) {
	stories, err := uc.repo.TopRated(ctx, successMinRating, successStoryLimit)
	if err != nil {
		return nil, err
	}
	for i := range stories {
		s := &stories[i]
		s.Neighborhood = uc.parser.Neighborhood(s.Address)
		if s.Category == "" {
			s.Category = fallbackCategory
		}
		if s.ResolvedAt != nil {
			s.ResolutionTime = ResolutionTime(s.ResolvedAt.Sub(s.CreatedAt))
		}
	}
	return stories, nil
}

func (uc *UseCase) EvaluationStats(ctx context.Context) (*domain.EvaluationStats, error) {
	var (
		all       repository.ResolutionSummary
		byRating  map[int]int
		contested int
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		all, err = uc.repo.Summary(egCtx, time.Time{})
		return err
	})
	eg.Go(func() (err error) {
		byRating, err = uc.repo.CountByRating(egCtx)
		return err
	})
	eg.Go(func() (err error) {
		contested, err = uc.repo.CountContested(egCtx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	stats := &domain.EvaluationStats{
		TotalResolved:      all.Done,
		RatingDistribution: make(map[string]int, 5),
		ContestedCount:     contested,
		AvgRating:          round1(all.AvgRating),
	}
	satisfied := 0
	for r := domain.MinRating; r <= domain.MaxRating; r++ {
		n := byRating[r]
		stats.RatingDistribution[strconv.Itoa(r)] = n
		stats.TotalEvaluated += n
		if r >= domain.SatisfiedRating {
			satisfied += n
		}
	}
	stats.EvaluationRate = round1(percent(stats.TotalEvaluated, stats.TotalResolved))
	stats.SatisfactionRate = round1(percent(satisfied, stats.TotalEvaluated))
	return stats, nil
}

// ResolutionTime renders a latency as whole days, or whole hours under a day.
func ResolutionTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if days := int(d / (24 * time.Hour)); days > 0 {
		return fmt.Sprintf("%d dia(s)", days)
	}
	return fmt.Sprintf("%d hora(s)", int(d/time.Hour))
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(part)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(decimal.NewFromInt(100)).
		InexactFloat64()
}

func round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
