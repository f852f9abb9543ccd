package analytics

import "time"

// computeStreak counts consecutive qualifying days (>= 6 worked hours)
// walking backward calendar-day by calendar-day from the most recent day
// present in the log. A calendar day with no sessions counts as zero worked
// minutes and therefore terminates the streak, the same as a present but
// below-threshold day.
func computeStreak(b *dayBuckets) int {
	if len(b.dates) == 0 {
		return 0
	}

	latest, err := time.Parse(dateLayout, b.dates[len(b.dates)-1])
	if err != nil {
		return 0
	}

	streak := 0
	for cursor := latest; ; cursor = cursor.AddDate(0, 0, -1) {
		total, present := b.totals[cursor.Format(dateLayout)]
		if !present || total < streakThresholdMinutes {
			break
		}
		streak++
	}

	return streak
}
