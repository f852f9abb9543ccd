package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/PunchlogHQ/punchlog-web/internal/models"
)

// punchInMinutes extracts a session's punch-in as local minutes since
// midnight. The second return is false when the session has no usable value.
func punchInMinutes(s *models.Session, loc *time.Location) (int, bool) {
	if s.PunchIn.IsZero() {
		return 0, false
	}
	local := s.PunchIn.In(loc)
	return local.Hour()*60 + local.Minute(), true
}

// punchOutMinutes is punchInMinutes for the punch-out side; open sessions
// are excluded.
func punchOutMinutes(s *models.Session, loc *time.Location) (int, bool) {
	if s.PunchOut == nil {
		return 0, false
	}
	local := s.PunchOut.In(loc)
	return local.Hour()*60 + local.Minute(), true
}

// averageClockTime averages a time-of-day across all sessions that have one,
// rounded to the nearest minute and formatted as zero-padded HH:MM.
// Returns nil when no session contributes.
func averageClockTime(sessions []models.Session, loc *time.Location, extract func(*models.Session, *time.Location) (int, bool)) *string {
	sum, count := 0, 0
	for i := range sessions {
		if minutes, ok := extract(&sessions[i], loc); ok {
			sum += minutes
			count++
		}
	}
	if count == 0 {
		return nil
	}

	avg := (sum + count/2) / count
	formatted := fmt.Sprintf("%02d:%02d", avg/60, avg%60)
	return &formatted
}

// bestAndWorstWeekday finds the weekdays with the highest and lowest mean
// day-total. Comparison is strict, so the first weekday encountered (Sunday
// through Saturday) wins ties. Both are nil when no day totals exist.
func bestAndWorstWeekday(b *dayBuckets) (best, worst *string) {
	var sums [7]int
	var counts [7]int
	for _, date := range b.dates {
		d, err := time.Parse(dateLayout, date)
		if err != nil {
			continue
		}
		wd := int(d.Weekday())
		sums[wd] += b.totals[date]
		counts[wd]++
	}

	bestMean := math.Inf(-1)
	worstMean := math.Inf(1)
	var bestName, worstName string
	for wd := 0; wd < 7; wd++ {
		if counts[wd] == 0 {
			continue
		}
		mean := float64(sums[wd]) / float64(counts[wd])
		if mean > bestMean {
			bestMean = mean
			bestName = time.Weekday(wd).String()
		}
		if mean < worstMean {
			worstMean = mean
			worstName = time.Weekday(wd).String()
		}
	}

	if bestName == "" {
		return nil, nil
	}
	return &bestName, &worstName
}
