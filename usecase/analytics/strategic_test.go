package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository/memory"
)

func TestWorkflowMetrics(t *testing.T) {
	db := memory.New()
	dept := db.AddDepartment(domain.Department{Name: "Obras Públicas", IsActive: true})
	day := 24 * time.Hour

	createdA := fixedNow.Add(-10 * day)
	a := db.AddOccurrence(domain.Occurrence{Status: domain.StatusClosed, DepartmentID: &dept.ID, CreatedAt: createdA,
		StartedAt: ptrTime(fixedNow.Add(-9 * day)), CompletedAt: ptrTime(fixedNow.Add(-8 * day))})
	createdB := fixedNow.Add(-5 * day)
	b := db.AddOccurrence(domain.Occurrence{Status: domain.StatusInProgress, DepartmentID: &dept.ID, CreatedAt: createdB})
	createdOld := fixedNow.Add(-60 * day)
	old := db.AddOccurrence(domain.Occurrence{Status: domain.StatusClosed, DepartmentID: &dept.ID, CreatedAt: createdOld,
		StartedAt: ptrTime(createdOld), CompletedAt: ptrTime(createdOld.Add(100 * time.Hour))})
	db.AddOccurrence(domain.Occurrence{Status: domain.StatusOpen, CreatedAt: fixedNow.Add(-day)})

	entry := func(occurrenceID int64, action string, at time.Time) {
		db.AddTimelineEntry(domain.TimelineEntry{OccurrenceID: occurrenceID, Action: action, CreatedAt: at})
	}
	entry(a.ID, domain.ActionTriaged, createdA.Add(6*time.Hour))
	entry(a.ID, domain.ActionTriaged, createdA.Add(20*time.Hour))
	entry(a.ID, domain.ActionValidationRejected, fixedNow.Add(-8*day+time.Hour))
	entry(a.ID, domain.ActionValidationApproved, fixedNow.Add(-7*day))
	entry(b.ID, domain.ActionTriaged, createdB.Add(2*time.Hour))
	entry(old.ID, domain.ActionTriaged, createdOld.Add(50*time.Hour))
	entry(old.ID, domain.ActionValidationApproved, fixedNow.Add(-55*day))

	uc := New(db.Analytics(), nil, WithClock(func() time.Time { return fixedNow }))
	m, err := uc.WorkflowMetrics(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 30, m.PeriodDays)
	assert.Equal(t, map[domain.Status]int{
		domain.StatusOpen: 1, domain.StatusInProgress: 1, domain.StatusResolved: 0, domain.StatusClosed: 2,
	}, m.Funnel)
	assert.Equal(t, 4.0, m.AvgTriageTime)
	assert.Equal(t, 24.0, m.AvgExecutionTime)
	assert.Equal(t, 50.0, m.RejectionRate)
}

func TestWorkflowMetricsWithoutValidations(t *testing.T) {
	uc := New(memory.New().Analytics(), nil, WithClock(func() time.Time { return fixedNow }))
	m, err := uc.WorkflowMetrics(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, m.PeriodDays)
	assert.Zero(t, m.RejectionRate)
	assert.Zero(t, m.AvgTriageTime)
	assert.Len(t, m.Funnel, len(domain.Statuses))
}

func TestManagementEvolution(t *testing.T) {
	db := memory.New()
	add := func(created time.Time, status domain.Status, rating int, resolveAfter time.Duration) {
		o := domain.Occurrence{Status: status, CreatedAt: created}
		if rating > 0 {
			o.Rating = ptrInt(rating)
		}
		if resolveAfter > 0 {
			o.ResolvedAt = ptrTime(created.Add(resolveAfter))
		}
		db.AddOccurrence(o)
	}
	add(time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC), domain.StatusClosed, 5, 10*time.Hour)
	add(time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC), domain.StatusOpen, 0, 0)
	add(time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC), domain.StatusClosed, 3, 20*time.Hour)
	add(time.Date(2023, 3, 15, 9, 0, 0, 0, time.UTC), domain.StatusClosed, 1, time.Hour)

	uc := New(db.Analytics(), nil, WithClock(func() time.Time { return fixedNow }))
	evo, err := uc.ManagementEvolution(context.Background())
	require.NoError(t, err)

	require.Len(t, evo.Months, 12)
	assert.Equal(t, domain.MonthStats{Month: "2023-04"}, evo.Months[0])
	assert.Equal(t, domain.MonthStats{
		Month: "2024-02", TotalOccurrences: 1, ResolvedOccurrences: 1, ResolutionRate: 100,
		AvgRating: 3, AvgResolutionTime: 20, SatisfactionIndex: 60,
	}, evo.Months[10])
	assert.Equal(t, domain.MonthStats{
		Month: "2024-03", TotalOccurrences: 2, ResolvedOccurrences: 1, ResolutionRate: 50,
		AvgRating: 5, AvgResolutionTime: 10, SatisfactionIndex: 100,
	}, evo.Months[11])
	assert.Equal(t, domain.EvolutionTrends{
		ResolutionRateTrend: -50, SatisfactionTrend: 40, VolumeTrend: 1, EfficiencyTrend: 10,
	}, evo.Trends)
}

func TestPoliticalKPIs(t *testing.T) {
	uc := seed(t)
	ctx := context.Background()

	kpis, err := uc.PoliticalKPIs(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, &domain.PoliticalKPIs{
		SatisfactionIndex:   50,
		ResolutionRate:      50,
		CitizensServed:      3,
		AvgResolutionTime:   13.5,
		AvgRating:           2.5,
		TotalOccurrences:    4,
		ResolvedOccurrences: 2,
		PeriodDays:          30,
	}, kpis)

	week, err := uc.PoliticalKPIs(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, week.TotalOccurrences)
	assert.Equal(t, 33.3, week.ResolutionRate)
	assert.Equal(t, 80.0, week.SatisfactionIndex)
	assert.Equal(t, 2, week.CitizensServed)
}

func TestNeighborhoodPriority(t *testing.T) {
	uc := seed(t)
	ctx := context.Background()

	ranked, err := uc.NeighborhoodPriority(ctx, 0)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, domain.NeighborhoodPriority{
		Name: "Jardim", TotalOccurrences: 2, OpenOccurrences: 1, ResolvedOccurrences: 1,
		AvgPriority: 3, AvgRating: 1, TotalRatings: 1, ResolutionRate: 50, PriorityScore: 43,
	}, ranked[0])
	assert.Equal(t, domain.UnknownNeighborhood, ranked[1].Name)
	assert.Equal(t, 42.3, ranked[1].PriorityScore)
	assert.Equal(t, "Centro", ranked[2].Name)
	assert.Equal(t, 3.5, ranked[2].AvgPriority)
	assert.Equal(t, 4.5, ranked[2].AvgRating)
	assert.Equal(t, 30.5, ranked[2].PriorityScore)

	recent, err := uc.NeighborhoodPriority(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "Jardim", recent[0].Name)
	assert.Equal(t, 67.3, recent[0].PriorityScore)
}
