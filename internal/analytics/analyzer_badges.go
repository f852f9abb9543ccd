package analytics

import (
	"time"

	"github.com/PunchlogHQ/punchlog-web/internal/models"
)

// buildBadges evaluates the fixed set of four badges. Each is computed
// independently and always emitted, earned or not, in a stable order.
func buildBadges(sessions []models.Session, b *dayBuckets, loc *time.Location, streak int) []Badge {
	earlyStarts := 0
	for i := range sessions {
		if sessions[i].PunchIn.IsZero() {
			continue
		}
		if sessions[i].PunchIn.In(loc).Hour() < earlyBirdHour {
			earlyStarts++
		}
	}

	fullDays := countDaysAtLeast(b, fullDayMinutes)
	overtimeDays := countDaysAtLeast(b, overtimeDayMinutes)

	return []Badge{
		{
			ID:       BadgeEarlyBird,
			Name:     "Early Bird",
			Icon:     "sunrise",
			Earned:   earlyStarts >= earlyBirdTarget,
			Progress: capProgress(earlyStarts, earlyBirdTarget),
			Target:   earlyBirdTarget,
		},
		{
			ID:       BadgeConsistency,
			Name:     "Consistency King",
			Icon:     "crown",
			Earned:   fullDays >= consistencyBadgeTarget,
			Gold:     fullDays >= consistencyBadgeTarget,
			Progress: capProgress(fullDays, consistencyBadgeTarget),
			Target:   consistencyBadgeTarget,
		},
		{
			ID:       BadgeOvertime,
			Name:     "Overtime Warrior",
			Icon:     "zap",
			Earned:   overtimeDays >= overtimeBadgeTarget,
			Progress: capProgress(overtimeDays, overtimeBadgeTarget),
			Target:   overtimeBadgeTarget,
		},
		{
			ID:       BadgeStreak,
			Name:     "Streak Master",
			Icon:     "flame",
			Earned:   streak >= streakBadgeTarget,
			Gold:     streak >= streakBadgeTarget,
			Progress: capProgress(streak, streakBadgeTarget),
			Target:   streakBadgeTarget,
		},
	}
}

func capProgress(count, target int) int {
	if count > target {
		return target
	}
	return count
}
