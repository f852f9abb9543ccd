package analytics

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/PunchlogHQ/punchlog-web/internal/models"
)

// testNow is a fixed Wednesday used as "today" in all engine tests.
var testNow = time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC)

// makeSession creates a closed session on the given work date.
func makeSession(date string, startHour, startMin, durationMin int) models.Session {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(fmt.Sprintf("bad test date %q: %v", date, err))
	}
	punchIn := time.Date(day.Year(), day.Month(), day.Day(), startHour, startMin, 0, 0, time.UTC)
	punchOut := punchIn.Add(time.Duration(durationMin) * time.Minute)
	return models.Session{
		ID:              fmt.Sprintf("s-%s-%02d%02d", date, startHour, startMin),
		UserID:          1,
		WorkDate:        date,
		PunchIn:         punchIn,
		PunchOut:        &punchOut,
		DurationMinutes: durationMin,
	}
}

// makeOpenSession creates a still-active session (no punch-out, zero duration).
func makeOpenSession(date string, startHour, startMin int) models.Session {
	s := makeSession(date, startHour, startMin, 0)
	s.PunchOut = nil
	return s
}

// dateDaysAgo formats the date n days before testNow.
func dateDaysAgo(n int) string {
	return testNow.AddDate(0, 0, -n).Format("2006-01-02")
}

func TestCompute_EmptyInput(t *testing.T) {
	result := Compute(nil, 160, testNow)

	if result.Streak != 0 {
		t.Errorf("Streak = %d, want 0", result.Streak)
	}
	if result.WeeklyScore != 0 {
		t.Errorf("WeeklyScore = %d, want 0", result.WeeklyScore)
	}
	if result.WeekComparison != 0 {
		t.Errorf("WeekComparison = %d, want 0", result.WeekComparison)
	}
	if len(result.Insights) != 0 {
		t.Errorf("Insights length = %d, want 0", len(result.Insights))
	}
	if result.AvgStartTime != nil {
		t.Errorf("AvgStartTime = %q, want nil", *result.AvgStartTime)
	}
	if result.AvgEndTime != nil {
		t.Errorf("AvgEndTime = %q, want nil", *result.AvgEndTime)
	}
	if result.BestDay != nil || result.WorstDay != nil {
		t.Error("expected BestDay and WorstDay to be nil")
	}

	if len(result.Badges) != 4 {
		t.Fatalf("Badges length = %d, want 4", len(result.Badges))
	}
	for _, badge := range result.Badges {
		if badge.Earned {
			t.Errorf("badge %s earned on empty input", badge.ID)
		}
		if badge.Progress != 0 {
			t.Errorf("badge %s progress = %d, want 0", badge.ID, badge.Progress)
		}
	}

	if len(result.HeatmapData) != 28 {
		t.Fatalf("HeatmapData length = %d, want 28", len(result.HeatmapData))
	}
	for _, day := range result.HeatmapData {
		if day.Minutes != 0 || day.Level != 0 {
			t.Errorf("heatmap day %s: minutes=%d level=%d, want zeros", day.Date, day.Minutes, day.Level)
		}
	}

	if len(result.ProductiveHours) != 24 {
		t.Fatalf("ProductiveHours length = %d, want 24", len(result.ProductiveHours))
	}
}

func TestCompute_HeatmapShape(t *testing.T) {
	sessions := []models.Session{
		makeSession(dateDaysAgo(0), 9, 0, 500),
		makeSession(dateDaysAgo(40), 9, 0, 500), // outside the window
	}
	result := Compute(sessions, 160, testNow)

	if len(result.HeatmapData) != 28 {
		t.Fatalf("HeatmapData length = %d, want 28", len(result.HeatmapData))
	}

	// Oldest first, ending today, consecutive days.
	for i, day := range result.HeatmapData {
		want := testNow.AddDate(0, 0, i-27).Format("2006-01-02")
		if day.Date != want {
			t.Errorf("heatmap[%d].Date = %s, want %s", i, day.Date, want)
		}
	}
	last := result.HeatmapData[27]
	if last.Date != testNow.Format("2006-01-02") {
		t.Errorf("last heatmap date = %s, want today", last.Date)
	}
	if last.Minutes != 500 || last.Level != 3 {
		t.Errorf("today's cell = {minutes: %d, level: %d}, want {500, 3}", last.Minutes, last.Level)
	}
}

func TestCompute_BadgeOrderIsStable(t *testing.T) {
	result := Compute(nil, 160, testNow)

	wantIDs := []string{BadgeEarlyBird, BadgeConsistency, BadgeOvertime, BadgeStreak}
	for i, badge := range result.Badges {
		if badge.ID != wantIDs[i] {
			t.Errorf("badges[%d].ID = %s, want %s", i, badge.ID, wantIDs[i])
		}
	}
}

func TestCompute_TenConsecutiveFullDays(t *testing.T) {
	// One 500-minute session per day for 10 days ending today, each
	// starting at 08:00.
	var sessions []models.Session
	for i := 0; i < 10; i++ {
		sessions = append(sessions, makeSession(dateDaysAgo(i), 8, 0, 500))
	}

	result := Compute(sessions, 160, testNow)

	if result.Streak != 10 {
		t.Errorf("Streak = %d, want 10", result.Streak)
	}

	byID := make(map[string]Badge)
	for _, badge := range result.Badges {
		byID[badge.ID] = badge
	}

	consistency := byID[BadgeConsistency]
	if !consistency.Earned || !consistency.Gold {
		t.Errorf("Consistency King = {earned: %v, gold: %v}, want earned gold", consistency.Earned, consistency.Gold)
	}
	if consistency.Progress != 10 {
		t.Errorf("Consistency King progress = %d, want 10", consistency.Progress)
	}

	overtime := byID[BadgeOvertime]
	if overtime.Earned {
		t.Error("Overtime Warrior earned at 500 min/day, want not earned")
	}
	if overtime.Progress != 0 {
		t.Errorf("Overtime Warrior progress = %d, want 0", overtime.Progress)
	}

	earlyBird := byID[BadgeEarlyBird]
	if !earlyBird.Earned || earlyBird.Progress != 5 {
		t.Errorf("Early Bird = {earned: %v, progress: %d}, want earned with capped progress 5", earlyBird.Earned, earlyBird.Progress)
	}

	streakBadge := byID[BadgeStreak]
	if !streakBadge.Earned || !streakBadge.Gold || streakBadge.Progress != 7 {
		t.Errorf("Streak Master = {earned: %v, gold: %v, progress: %d}, want earned gold progress 7", streakBadge.Earned, streakBadge.Gold, streakBadge.Progress)
	}

	// 5000 total minutes against a 160h target: progress 26.04 + full
	// consistency 20 + capped streak 20, rounded.
	if result.WeeklyScore != 66 {
		t.Errorf("WeeklyScore = %d, want 66", result.WeeklyScore)
	}
}

func TestCompute_SingleDayScore(t *testing.T) {
	// Scenario: one 700-minute day against a 100-hour target.
	sessions := []models.Session{makeSession(dateDaysAgo(0), 9, 0, 700)}
	result := Compute(sessions, 100, testNow)

	// progress = 700/6000*50 = 5.83; consistency = 1/15*30 = 2.0;
	// streak = 1/7*20 = 2.86 -> round(10.69) = 11
	if result.WeeklyScore != 11 {
		t.Errorf("WeeklyScore = %d, want 11", result.WeeklyScore)
	}
	if result.Streak != 1 {
		t.Errorf("Streak = %d, want 1", result.Streak)
	}
}

func TestCompute_AvgStartTime(t *testing.T) {
	date := dateDaysAgo(0)
	sessions := []models.Session{
		makeSession(date, 8, 0, 60),
		makeSession(date, 9, 0, 60),
		makeSession(date, 11, 0, 60),
		makeSession(date, 10, 0, 60),
		makeSession(date, 9, 0, 60),
	}
	result := Compute(sessions, 160, testNow)

	// Mean of 480, 540, 660, 600, 540 minutes = 564 -> 09:24
	if result.AvgStartTime == nil {
		t.Fatal("AvgStartTime is nil")
	}
	if *result.AvgStartTime != "09:24" {
		t.Errorf("AvgStartTime = %s, want 09:24", *result.AvgStartTime)
	}
}

func TestCompute_AvgEndTimeExcludesOpenSessions(t *testing.T) {
	date := dateDaysAgo(0)
	sessions := []models.Session{
		makeSession(date, 9, 0, 60), // ends 10:00
		makeOpenSession(date, 11, 0),
	}
	result := Compute(sessions, 160, testNow)

	if result.AvgEndTime == nil {
		t.Fatal("AvgEndTime is nil")
	}
	if *result.AvgEndTime != "10:00" {
		t.Errorf("AvgEndTime = %s, want 10:00", *result.AvgEndTime)
	}
}

func TestCompute_WeekComparison(t *testing.T) {
	// testNow is Wednesday 2025-06-18; this week started Sunday 2025-06-15.
	sessions := []models.Session{
		makeSession("2025-06-16", 9, 0, 900), // this week
		makeSession("2025-06-10", 9, 0, 600), // last week
	}
	result := Compute(sessions, 160, testNow)

	if result.WeekComparison != 50 {
		t.Errorf("WeekComparison = %d, want 50", result.WeekComparison)
	}

	found := false
	for _, insight := range result.Insights {
		if insight.Text == "You worked 50% more than last week" {
			found = true
			if insight.Type != InsightSuccess {
				t.Errorf("week comparison insight type = %s, want success", insight.Type)
			}
		}
	}
	if !found {
		t.Errorf("missing week comparison insight; got %+v", result.Insights)
	}
}

func TestCompute_WeekComparisonNoBaseline(t *testing.T) {
	sessions := []models.Session{makeSession(dateDaysAgo(0), 9, 0, 300)}
	result := Compute(sessions, 160, testNow)

	if result.WeekComparison != 0 {
		t.Errorf("WeekComparison = %d, want 0 without a last-week baseline", result.WeekComparison)
	}
}

func TestCompute_Idempotence(t *testing.T) {
	var sessions []models.Session
	for i := 0; i < 12; i++ {
		sessions = append(sessions, makeSession(dateDaysAgo(i), 8+i%3, 15, 300+i*40))
	}

	first := Compute(sessions, 120, testNow)
	second := Compute(sessions, 120, testNow)

	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different results")
	}
}

func TestCompute_InputNotMutated(t *testing.T) {
	sessions := []models.Session{
		makeSession(dateDaysAgo(0), 9, 0, 400),
		makeOpenSession(dateDaysAgo(1), 8, 30),
	}
	snapshot := make([]models.Session, len(sessions))
	copy(snapshot, sessions)

	Compute(sessions, 160, testNow)

	if !reflect.DeepEqual(sessions, snapshot) {
		t.Error("Compute mutated its input")
	}
}

func TestCompute_ScoreBounds(t *testing.T) {
	// Saturate every component: huge totals, many full days, long streak.
	var sessions []models.Session
	for i := 0; i < 28; i++ {
		sessions = append(sessions, makeSession(dateDaysAgo(i), 7, 0, 700))
	}

	for _, target := range []float64{0, 1, 100, 10000} {
		result := Compute(sessions, target, testNow)
		if result.WeeklyScore < 0 || result.WeeklyScore > 100 {
			t.Errorf("target %v: WeeklyScore = %d, out of [0,100]", target, result.WeeklyScore)
		}
	}
}

func TestCompute_ScoreMonotonicInDayTotal(t *testing.T) {
	base := []models.Session{
		makeSession(dateDaysAgo(0), 9, 0, 350),
		makeSession(dateDaysAgo(1), 9, 0, 400),
	}
	increased := []models.Session{
		makeSession(dateDaysAgo(0), 9, 0, 370), // crosses the 360 streak threshold
		makeSession(dateDaysAgo(1), 9, 0, 400),
	}

	before := Compute(base, 160, testNow)
	after := Compute(increased, 160, testNow)

	if after.WeeklyScore < before.WeeklyScore {
		t.Errorf("WeeklyScore decreased: %d -> %d", before.WeeklyScore, after.WeeklyScore)
	}
	if after.Streak < before.Streak {
		t.Errorf("Streak decreased: %d -> %d", before.Streak, after.Streak)
	}
}
