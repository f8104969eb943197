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

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func ptrTime(t time.Time) *time.Time { return &t }
func ptrInt(v int) *int              { return &v }

func seed(t *testing.T) *UseCase {
	t.Helper()
	db := memory.New()
	dept := db.AddDepartment(domain.Department{Name: "Obras Públicas", IsActive: true})
	cat := db.AddCategory(domain.Category{Name: "Buraco na via", Color: "#EF4444", DepartmentID: dept.ID, IsActive: true})
	var citizens []int64
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		citizens = append(citizens, db.AddUser(domain.User{Name: "Cidadão", Email: email, Role: domain.RoleCitizen, IsActive: true}).ID)
	}
	db.AddUser(domain.User{Name: "Admin", Email: "admin@x.com", Role: domain.RoleAdmin, IsActive: true})

	add := func(o domain.Occurrence) {
		o.CategoryID = cat.ID
		o.DepartmentID = &dept.ID
		o.Title = "Ocorrência"
		db.AddOccurrence(o)
	}
	created1 := fixedNow.Add(-40 * 24 * time.Hour)
	add(domain.Occurrence{CitizenID: citizens[0], Status: domain.StatusClosed, Priority: domain.PriorityHigh,
		Address: "Rua A, 10, Centro, Lavras-MG", CreatedAt: created1, ResolvedAt: ptrTime(created1.Add(48 * time.Hour)), Rating: ptrInt(5)})
	created2 := fixedNow.Add(-5 * 24 * time.Hour)
	add(domain.Occurrence{CitizenID: citizens[0], Status: domain.StatusResolved, Priority: domain.PriorityUrgent,
		Address: "Rua B, 20, Centro, Lavras-MG", CreatedAt: created2, ResolvedAt: ptrTime(created2.Add(3 * time.Hour)), Rating: ptrInt(4)})
	add(domain.Occurrence{CitizenID: citizens[1], Status: domain.StatusOpen, Priority: domain.PriorityUrgent,
		Address: "Rua C, 5, Jardim, Lavras-MG", CreatedAt: fixedNow.Add(-24 * time.Hour)})
	add(domain.Occurrence{CitizenID: citizens[1], Status: domain.StatusInProgress, Priority: domain.PriorityLow,
		Address: "endereço sem vírgula", CreatedAt: fixedNow.Add(-48 * time.Hour)})
	created5 := fixedNow.Add(-10 * 24 * time.Hour)
	add(domain.Occurrence{CitizenID: citizens[2], Status: domain.StatusClosed, Priority: domain.PriorityMedium,
		Address: "Rua D, 1, Jardim, Lavras-MG", CreatedAt: created5, ResolvedAt: ptrTime(created5.Add(24 * time.Hour)),
		Rating: ptrInt(1), ContestedAt: ptrTime(fixedNow)})

	return New(db.Analytics(), nil, WithClock(func() time.Time { return fixedNow }))
}

func TestDashboardStats(t *testing.T) {
	uc := seed(t)
	stats, err := uc.DashboardStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalOccurrences)
	assert.Equal(t, 4, stats.RecentOccurrences)
	assert.Equal(t, 3, stats.TotalCitizens)
	assert.Equal(t, 25.0, stats.AvgResolutionTimeHours)
	assert.Equal(t, 3.3, stats.AvgRating)
	assert.Equal(t, map[domain.Status]int{
		domain.StatusOpen: 1, domain.StatusInProgress: 1, domain.StatusResolved: 1, domain.StatusClosed: 2,
	}, stats.StatusBreakdown)
	assert.Equal(t, 1, stats.PriorityBreakdown[domain.PriorityLow])
	assert.Equal(t, 2, stats.PriorityBreakdown[domain.PriorityUrgent])
}

func TestPoliticalMetrics(t *testing.T) {
	uc := seed(t)
	m, err := uc.PoliticalMetrics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, m.TotalOccurrences)
	assert.Equal(t, 3, m.ResolvedOccurrences)
	assert.Equal(t, 60.0, m.ResolutionRate)
	assert.Equal(t, 4, m.RecentOccurrences)
	assert.Equal(t, 2, m.RecentResolved)
	assert.Equal(t, 3, m.ActiveCitizens)
	assert.Equal(t, 62.4, m.SatisfactionIndex)
}

func TestDepartmentsCategoriesAndTimeline(t *testing.T) {
	ctx := context.Background()
	uc := seed(t)

	perf, err := uc.ByDepartment(ctx)
	require.NoError(t, err)
	require.Len(t, perf, 1)
	assert.Equal(t, 60.0, perf[0].ResolutionRate)

	cats, err := uc.ByCategory(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, 5, cats[0].Count)

	series, err := uc.Timeline(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, series, 3)
	assert.Equal(t, "2024-03-05", series[0].Date)
}

func TestNeighborhoodAnalysis(t *testing.T) {
	uc := seed(t)
	hoods, err := uc.NeighborhoodAnalysis(context.Background())
	require.NoError(t, err)
	require.Len(t, hoods, 3)

	assert.Equal(t, "Centro", hoods[0].Name)
	assert.Equal(t, 5, hoods[0].PriorityIndex)
	assert.Equal(t, 100.0, hoods[0].ResolutionRate)
	assert.Equal(t, 4.5, hoods[0].AvgRating)

	assert.Equal(t, "Jardim", hoods[1].Name)
	assert.Equal(t, 4, hoods[1].PriorityIndex)
	assert.Equal(t, 50.0, hoods[1].ResolutionRate)

	assert.Equal(t, domain.UnknownNeighborhood, hoods[2].Name)
	assert.Equal(t, 1, hoods[2].PriorityIndex)
}

func TestSuccessStories(t *testing.T) {
	uc := seed(t)
	stories, err := uc.SuccessStories(context.Background())
	require.NoError(t, err)
	require.Len(t, stories, 2)

	assert.Equal(t, 5, stories[0].Rating)
	assert.Equal(t, "2 dia(s)", stories[0].ResolutionTime)
	assert.Equal(t, "Centro", stories[0].Neighborhood)
	assert.Equal(t, "Buraco na via", stories[0].Category)
	assert.Equal(t, "3 hora(s)", stories[1].ResolutionTime)
}

func TestEvaluationStats(t *testing.T) {
	uc := seed(t)
	stats, err := uc.EvaluationStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalResolved)
	assert.Equal(t, 3, stats.TotalEvaluated)
	assert.Equal(t, 100.0, stats.EvaluationRate)
	assert.Equal(t, map[string]int{"1": 1, "2": 0, "3": 0, "4": 1, "5": 1}, stats.RatingDistribution)
	assert.Equal(t, 66.7, stats.SatisfactionRate)
	assert.Equal(t, 1, stats.ContestedCount)
}

func TestResolutionTime(t *testing.T) {
	assert.Equal(t, "0 hora(s)", ResolutionTime(20*time.Minute))
	assert.Equal(t, "23 hora(s)", ResolutionTime(23*time.Hour+59*time.Minute))
	assert.Equal(t, "1 dia(s)", ResolutionTime(25*time.Hour))
}

func TestEmptyStore(t *testing.T) {
	uc := New(memory.New().Analytics(), nil)
	m, err := uc.PoliticalMetrics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, m.ResolutionRate)
	assert.Zero(t, m.SatisfactionIndex)

	stats, err := uc.EvaluationStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.EvaluationRate)
	assert.Zero(t, stats.SatisfactionRate)
}
