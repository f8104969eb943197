package domain

import "time"

// DashboardStats is the admin overview.
type DashboardStats struct {
	TotalOccurrences       int              `json:"total_occurrences"`
	StatusBreakdown        map[Status]int   `json:"status_breakdown"`
	PriorityBreakdown      map[Priority]int `json:"priority_breakdown"`
	RecentOccurrences      int              `json:"recent_occurrences"`
	AvgResolutionTimeHours float64          `json:"avg_resolution_time_hours"`
	AvgRating              float64          `json:"avg_rating"`
	TotalCitizens          int              `json:"total_citizens"`
}

// CategoryCount is the occurrence count of one category.
type CategoryCount struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Count int    `json:"count"`
}

// DailyCount is the number of occurrences created on one day.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DepartmentPerformance summarizes resolution per department.
type DepartmentPerformance struct {
	Name           string  `json:"name"`
	Total          int     `json:"total"`
	Resolved       int     `json:"resolved"`
	ResolutionRate float64 `json:"resolution_rate"`
}

// PoliticalMetrics are the headline KPIs.
type PoliticalMetrics struct {
	TotalOccurrences    int     `json:"total_occurrences"`
	ResolvedOccurrences int     `json:"resolved_occurrences"`
	ResolutionRate      float64 `json:"resolution_rate"`
	RecentOccurrences   int     `json:"recent_occurrences"`
	RecentResolved      int     `json:"recent_resolved"`
	AvgResolutionHours  float64 `json:"avg_resolution_hours"`
	AvgRating           float64 `json:"avg_rating"`
	ActiveCitizens      int     `json:"active_citizens"`
	SatisfactionIndex   float64 `json:"satisfaction_index"`
}

// NeighborhoodStats is the per-neighborhood rollup.
type NeighborhoodStats struct {
	Name           string  `json:"name"`
	Total          int     `json:"total"`
	Open           int     `json:"open"`
	InProgress     int     `json:"in_progress"`
	Resolved       int     `json:"resolved"`
	Closed         int     `json:"closed"`
	Urgent         int     `json:"urgent"`
	High           int     `json:"high"`
	Medium         int     `json:"medium"`
	Low            int     `json:"low"`
	AvgRating      float64 `json:"avg_rating"`
	RatingsCount   int     `json:"ratings_count"`
	ResolutionRate float64 `json:"resolution_rate"`
	PriorityIndex  int     `json:"priority_index"`
}

// OccurrenceFact is the minimal projection the neighborhood rollup scans.
type OccurrenceFact struct {
	Address  string
	Status   Status
	Priority Priority
	Rating   *int
}

// SuccessStory is a well-rated resolved occurrence.
type SuccessStory struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Address        string     `json:"-"`
	Neighborhood   string     `json:"neighborhood"`
	Category       string     `json:"category"`
	Rating         int        `json:"rating"`
	Feedback       string     `json:"feedback,omitempty"`
	ResolutionTime string     `json:"resolution_time,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

// EvaluationStats summarizes citizen ratings.
type EvaluationStats struct {
	TotalResolved      int            `json:"total_resolved"`
	TotalEvaluated     int            `json:"total_evaluated"`
	EvaluationRate     float64        `json:"evaluation_rate"`
	AvgRating          float64        `json:"avg_rating"`
	RatingDistribution map[string]int `json:"rating_distribution"`
	ContestedCount     int            `json:"contested_count"`
	SatisfactionRate   float64        `json:"satisfaction_rate"`
}

// WorkflowMetrics measures how occurrences move through the lifecycle.
type WorkflowMetrics struct {
	Funnel           map[Status]int `json:"funnel"`
	AvgTriageTime    float64        `json:"avg_triage_time"`
	AvgExecutionTime float64        `json:"avg_execution_time"`
	RejectionRate    float64        `json:"rejection_rate"`
	PeriodDays       int            `json:"period_days"`
}

// MonthStats is one month of the management evolution series.
type MonthStats struct {
	Month               string  `json:"month"`
	TotalOccurrences    int     `json:"total_occurrences"`
	ResolvedOccurrences int     `json:"resolved_occurrences"`
	ResolutionRate      float64 `json:"resolution_rate"`
	AvgRating           float64 `json:"avg_rating"`
	AvgResolutionTime   float64 `json:"avg_resolution_time"`
	SatisfactionIndex   float64 `json:"satisfaction_index"`
}

// EvolutionTrends compares the last month against the one before.
// EfficiencyTrend is positive when resolution got faster.
type EvolutionTrends struct {
	ResolutionRateTrend float64 `json:"resolution_rate_trend"`
	SatisfactionTrend   float64 `json:"satisfaction_trend"`
	VolumeTrend         int     `json:"volume_trend"`
	EfficiencyTrend     float64 `json:"efficiency_trend"`
}

type ManagementEvolution struct {
	Months []MonthStats    `json:"months"`
	Trends EvolutionTrends `json:"trends"`
}

// PoliticalKPIs are the headline numbers over a window of days.
type PoliticalKPIs struct {
	SatisfactionIndex   float64 `json:"satisfaction_index"`
	ResolutionRate      float64 `json:"resolution_rate"`
	CitizensServed      int     `json:"citizens_served"`
	AvgResolutionTime   float64 `json:"avg_resolution_time"`
	AvgRating           float64 `json:"avg_rating"`
	TotalOccurrences    int     `json:"total_occurrences"`
	ResolvedOccurrences int     `json:"resolved_occurrences"`
	PeriodDays          int     `json:"period_days"`
}

// NeighborhoodPriority ranks neighborhoods for a task force.
type NeighborhoodPriority struct {
	Name                string  `json:"name"`
	TotalOccurrences    int     `json:"total_occurrences"`
	OpenOccurrences     int     `json:"open_occurrences"`
	ResolvedOccurrences int     `json:"resolved_occurrences"`
	AvgPriority         float64 `json:"avg_priority"`
	AvgRating           float64 `json:"avg_rating"`
	TotalRatings        int     `json:"total_ratings"`
	ResolutionRate      float64 `json:"resolution_rate"`
	PriorityScore       float64 `json:"priority_score"`
}
