package repository

import (
	"context"
	"time"

	"github.com/fastygo/portal-cidadao/domain"
)

// ResolutionSummary aggregates counts and averages over a period.
type ResolutionSummary struct {
	Total              int
	Done               int
	AvgResolutionHours float64
	AvgRating          float64
	DistinctCitizens   int
}

// WorkflowSummary measures the triage, execution and validation stages.
type WorkflowSummary struct {
	AvgTriageHours    float64
	AvgExecutionHours float64
	Validations       int
	Rejections        int
}

// MonthSummary aggregates the occurrences created in one calendar month (UTC).
type MonthSummary struct {
	Month              time.Time
	Total              int
	Done               int
	AvgRating          float64
	AvgResolutionHours float64
}

type AnalyticsRepository interface {
	// Summary aggregates occurrences created at or after since (zero means all time).
	Summary(ctx context.Context, since time.Time) (ResolutionSummary, error)
	CountByStatus(ctx context.Context) (map[domain.Status]int, error)
	CountByPriority(ctx context.Context) (map[domain.Priority]int, error)
	CountByRating(ctx context.Context) (map[int]int, error)
	CountContested(ctx context.Context) (int, error)
	CountUsersByRole(ctx context.Context, role domain.Role) (int, error)
	ByCategory(ctx context.Context) ([]domain.CategoryCount, error)
	DailyCreated(ctx context.Context, since time.Time) ([]domain.DailyCount, error)
	ByDepartment(ctx context.Context) ([]domain.DepartmentPerformance, error)
	// ScanFacts streams the address, status, priority and rating of every
	// occurrence created at or after since (zero means all time).
	ScanFacts(ctx context.Context, since time.Time, fn func(domain.OccurrenceFact) error) error
	// Workflow averages stage latencies of occurrences created since and
	// counts validation outcomes recorded since.
	Workflow(ctx context.Context, since time.Time) (WorkflowSummary, error)
	Monthly(ctx context.Context, since time.Time) ([]MonthSummary, error)
	TopRated(ctx context.Context, minRating, limit int) ([]domain.SuccessStory, error)
}
