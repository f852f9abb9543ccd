package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/PunchlogHQ/punchlog-web/internal/models"
)

const dateLayout = "2006-01-02"

// Compute derives the full analytics result from a session log and a monthly
// hour target. It is a total function: malformed or empty input degrades to a
// zero result, never an error. "now" anchors the streak walk, the heatmap
// window and the week boundaries; local time-of-day is taken in now's
// location. The input is never mutated.
func Compute(sessions []models.Session, targetHours float64, now time.Time) *Result {
	loc := now.Location()
	buckets := bucketByDay(sessions)

	streak := computeStreak(buckets)
	weekComparison := computeWeekComparison(buckets, now)
	fullDays := countDaysAtLeast(buckets, fullDayMinutes)

	result := &Result{
		Insights:        buildInsights(sessions, buckets, loc, streak, weekComparison),
		Badges:          buildBadges(sessions, buckets, loc, streak),
		Streak:          streak,
		WeeklyScore:     computeScore(buckets, targetHours, fullDays, streak),
		HeatmapData:     buildHeatmap(buckets, now),
		ProductiveHours: buildProductiveHours(sessions, loc),
		WeekComparison:  weekComparison,
	}

	result.AvgStartTime = averageClockTime(sessions, loc, punchInMinutes)
	result.AvgEndTime = averageClockTime(sessions, loc, punchOutMinutes)
	result.BestDay, result.WorstDay = bestAndWorstWeekday(buckets)

	return result
}

// dayBuckets groups sessions by work date. Dates are kept sorted ascending;
// the fixed-width YYYY-MM-DD format makes lexicographic order chronological.
type dayBuckets struct {
	totals map[string]int // work date -> summed duration minutes
	dates  []string       // sorted ascending
}

func bucketByDay(sessions []models.Session) *dayBuckets {
	totals := make(map[string]int)
	for _, s := range sessions {
		totals[s.WorkDate] += s.DurationMinutes
	}

	dates := make([]string, 0, len(totals))
	for d := range totals {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	return &dayBuckets{totals: totals, dates: dates}
}

// countDaysAtLeast returns the number of days whose total meets the threshold.
func countDaysAtLeast(b *dayBuckets, minutes int) int {
	count := 0
	for _, total := range b.totals {
		if total >= minutes {
			count++
		}
	}
	return count
}

// totalMinutes sums every day's total. The caller supplies sessions already
// scoped to one month, so this is the month total.
func totalMinutes(b *dayBuckets) int {
	total := 0
	for _, t := range b.totals {
		total += t
	}
	return total
}

// computeScore blends monthly target progress, full-day consistency and the
// streak into a 0-100 composite. Each component is capped, so the sum never
// exceeds 100.
func computeScore(b *dayBuckets, targetHours float64, fullDays, streak int) int {
	var progressScore float64
	if targetHours > 0 {
		targetMinutes := targetHours * 60
		progressScore = math.Min(float64(totalMinutes(b))/targetMinutes*50, 50)
	}

	consistencyScore := math.Min(float64(fullDays)/consistencyScoreDays*30, 30)
	streakScore := math.Min(float64(streak)/streakScoreDays*20, 20)

	return int(math.Round(progressScore + consistencyScore + streakScore))
}

// computeWeekComparison returns the percent delta between this week's and
// last week's worked minutes. "This week" runs from the most recent Sunday on
// or before today through today; "last week" is the preceding 7-day window.
// Returns 0 when last week has no baseline.
func computeWeekComparison(b *dayBuckets, now time.Time) int {
	today := dateOf(now)
	thisStart := today.AddDate(0, 0, -int(today.Weekday()))
	lastStart := thisStart.AddDate(0, 0, -7)

	var thisWeek, lastWeek int
	for date, total := range b.totals {
		d, err := time.ParseInLocation(dateLayout, date, now.Location())
		if err != nil {
			continue
		}
		switch {
		case !d.Before(thisStart) && !d.After(today):
			thisWeek += total
		case !d.Before(lastStart) && d.Before(thisStart):
			lastWeek += total
		}
	}

	if lastWeek == 0 {
		return 0
	}
	return int(math.Round(float64(thisWeek-lastWeek) / float64(lastWeek) * 100))
}

// dateOf truncates a timestamp to local midnight.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
