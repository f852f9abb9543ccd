// Package analytics derives insights, badges, streaks and a composite score
// from a user's session log. The engine itself is a pure function over the
// sessions it is given; the Store wires it to the database.
package analytics

import "time"

// InsightType classifies an insight for rendering.
type InsightType string

const (
	InsightWarning InsightType = "warning"
	InsightSuccess InsightType = "success"
	InsightInfo    InsightType = "info"
)

// Insight is one behavioral observation. The engine emits every qualifying
// insight in a fixed order; the frontend caps the list for display.
type Insight struct {
	Type InsightType `json:"type"`
	Icon string      `json:"icon"`
	Text string      `json:"text"`
}

// Badge IDs, stable for frontend matching. Always emitted in this order.
const (
	BadgeEarlyBird   = "early-bird"
	BadgeConsistency = "consistency"
	BadgeOvertime    = "overtime"
	BadgeStreak      = "streak"
)

// Badge is one achievement with its progress toward the earn threshold.
type Badge struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	Earned   bool   `json:"earned"`
	Gold     bool   `json:"gold,omitempty"`
	Progress int    `json:"progress"`
	Target   int    `json:"target"`
}

// HeatmapDay is one cell of the 28-day calendar heatmap.
type HeatmapDay struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Minutes   int    `json:"minutes"`
	Level     int    `json:"level"`       // 0..4
	DayOfWeek int    `json:"day_of_week"` // 0=Sunday..6=Saturday
}

// HourActivity is one slot of the 24-hour productive-hours chart.
type HourActivity struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
	Level int `json:"level"` // 0..4, relative to the busiest hour
}

// Result is the full analytics output. It is freshly constructed on every
// Compute call and never aliases the input.
type Result struct {
	Insights        []Insight      `json:"insights"`
	Badges          []Badge        `json:"badges"`
	Streak          int            `json:"streak"`
	WeeklyScore     int            `json:"weekly_score"`
	HeatmapData     []HeatmapDay   `json:"heatmap_data"`
	AvgStartTime    *string        `json:"avg_start_time,omitempty"` // HH:MM
	AvgEndTime      *string        `json:"avg_end_time,omitempty"`   // HH:MM
	BestDay         *string        `json:"best_day,omitempty"`       // weekday name
	WorstDay        *string        `json:"worst_day,omitempty"`
	ProductiveHours []HourActivity `json:"productive_hours"`
	WeekComparison  int            `json:"week_comparison"` // percent delta vs last week
}

// Thresholds, in minutes unless noted.
const (
	streakThresholdMinutes   = 360 // 6h qualifies a day for the streak
	fullDayMinutes           = 480 // 8h
	overtimeDayMinutes       = 600 // 10h
	lateArrivalHour          = 10  // punch-in at or after this local hour is late
	earlyBirdHour            = 9   // punch-in before this local hour counts for Early Bird
	heatmapDays              = 28
	heatmapMediumMinutes     = 240 // 4h
	consistencyInsightDays   = 5   // distinct worked days needed for the consistency insight
	consistencyScoreDays     = 15  // full-day count that maxes the consistency score
	streakScoreDays          = 7
	earlyBirdTarget          = 5
	consistencyBadgeTarget   = 10
	overtimeBadgeTarget      = 3
	streakBadgeTarget        = 7
	lateArrivalInsightCount  = 3 // strictly more than this emits the warning
	shortDayInsightCount     = 3
	streakInsightMin         = 3
)

// DashboardResponse is the API response wrapping an engine Result.
type DashboardResponse struct {
	ComputedAt   time.Time `json:"computed_at"`
	Month        string    `json:"month"` // YYYY-MM
	SessionCount int       `json:"session_count"`
	TargetHours  string    `json:"target_hours"` // decimal as string
	Analytics    *Result   `json:"analytics"`
}
