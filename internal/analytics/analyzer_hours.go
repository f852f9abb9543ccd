package analytics

import (
	"math"
	"time"

	"github.com/PunchlogHQ/punchlog-web/internal/models"
)

// buildProductiveHours fills the 24-slot activity histogram. Every closed
// session increments each whole hour from its local punch-in hour through its
// local punch-out hour inclusive; overlap is counted per hour touched, not
// proportionally. A session crossing local midnight yields an empty range
// (start hour above end hour) and contributes nothing.
func buildProductiveHours(sessions []models.Session, loc *time.Location) []HourActivity {
	var counts [24]int
	for i := range sessions {
		s := &sessions[i]
		if s.PunchIn.IsZero() || s.PunchOut == nil {
			continue
		}
		start := s.PunchIn.In(loc).Hour()
		end := s.PunchOut.In(loc).Hour()
		if end > 23 {
			end = 23
		}
		for h := start; h <= end; h++ {
			counts[h]++
		}
	}

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	hours := make([]HourActivity, 24)
	for h := 0; h < 24; h++ {
		level := 0
		if maxCount > 0 {
			level = int(math.Ceil(float64(counts[h]) / float64(maxCount) * 4))
		}
		hours[h] = HourActivity{Hour: h, Count: counts[h], Level: level}
	}

	return hours
}

// buildHeatmap produces one cell per calendar day for the 28 days ending
// today (oldest first). Level buckets use the highest threshold met.
func buildHeatmap(b *dayBuckets, now time.Time) []HeatmapDay {
	today := dateOf(now)

	heatmap := make([]HeatmapDay, 0, heatmapDays)
	for i := heatmapDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		date := day.Format(dateLayout)
		minutes := b.totals[date]

		level := 0
		switch {
		case minutes >= overtimeDayMinutes:
			level = 4
		case minutes >= fullDayMinutes:
			level = 3
		case minutes >= heatmapMediumMinutes:
			level = 2
		case minutes > 0:
			level = 1
		}

		heatmap = append(heatmap, HeatmapDay{
			Date:      date,
			Minutes:   minutes,
			Level:     level,
			DayOfWeek: int(day.Weekday()),
		})
	}

	return heatmap
}
