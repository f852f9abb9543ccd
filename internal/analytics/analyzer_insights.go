package analytics

import (
	"fmt"
	"time"

	"github.com/PunchlogHQ/punchlog-web/internal/models"
)

// buildInsights evaluates each insight rule independently and emits every
// qualifying one, in a fixed order: late arrivals, short days, week
// comparison, consistency, streak. The frontend caps the list for display;
// the engine does not.
func buildInsights(sessions []models.Session, b *dayBuckets, loc *time.Location, streak, weekComparison int) []Insight {
	insights := []Insight{}

	// Late arrivals: sessions punched in at or after 10:00 local.
	lateCount := 0
	for i := range sessions {
		if sessions[i].PunchIn.IsZero() {
			continue
		}
		if sessions[i].PunchIn.In(loc).Hour() >= lateArrivalHour {
			lateCount++
		}
	}
	if lateCount > lateArrivalInsightCount {
		insights = append(insights, Insight{
			Type: InsightWarning,
			Icon: "clock",
			Text: fmt.Sprintf("You punched in after 10:00 on %d sessions this month", lateCount),
		})
	}

	// Short days: worked something, but under 8 hours.
	shortDays := 0
	for _, total := range b.totals {
		if total > 0 && total < fullDayMinutes {
			shortDays++
		}
	}
	if shortDays > shortDayInsightCount {
		insights = append(insights, Insight{
			Type: InsightWarning,
			Icon: "log-out",
			Text: fmt.Sprintf("You logged under 8 hours on %d days this month", shortDays),
		})
	}

	// Week-over-week comparison.
	if weekComparison != 0 {
		if weekComparison > 0 {
			insights = append(insights, Insight{
				Type: InsightSuccess,
				Icon: "trending-up",
				Text: fmt.Sprintf("You worked %d%% more than last week", weekComparison),
			})
		} else {
			insights = append(insights, Insight{
				Type: InsightInfo,
				Icon: "trending-down",
				Text: fmt.Sprintf("You worked %d%% less than last week", -weekComparison),
			})
		}
	}

	// Consistency: enough distinct worked days averaging a full day.
	if len(b.dates) >= consistencyInsightDays {
		mean := float64(totalMinutes(b)) / float64(len(b.dates))
		if mean >= fullDayMinutes {
			insights = append(insights, Insight{
				Type: InsightSuccess,
				Icon: "bar-chart",
				Text: fmt.Sprintf("Averaging %.1f hours per day - great consistency", mean/60),
			})
		}
	}

	// Streak.
	if streak >= streakInsightMin {
		insights = append(insights, Insight{
			Type: InsightSuccess,
			Icon: "flame",
			Text: fmt.Sprintf("%d-day streak of 6+ hour days", streak),
		})
	}

	return insights
}
