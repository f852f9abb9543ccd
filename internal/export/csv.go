// Package export renders a month's sessions as a spreadsheet-importable CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/PunchlogHQ/punchlog-web/internal/models"
)

// csvHeader is the fixed column layout of a session export.
var csvHeader = []string{"date", "punch_in", "punch_out", "duration_minutes", "duration_hours", "note"}

// WriteSessionsCSV writes sessions to w, one row per session, with
// timestamps rendered in the given location. Open sessions get an empty
// punch_out column.
func WriteSessionsCSV(w io.Writer, sessions []models.Session, loc *time.Location) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range sessions {
		s := &sessions[i]

		punchOut := ""
		if s.PunchOut != nil {
			punchOut = s.PunchOut.In(loc).Format(time.RFC3339)
		}
		note := ""
		if s.Note != nil {
			note = *s.Note
		}

		row := []string{
			s.WorkDate,
			s.PunchIn.In(loc).Format(time.RFC3339),
			punchOut,
			fmt.Sprintf("%d", s.DurationMinutes),
			fmt.Sprintf("%.2f", float64(s.DurationMinutes)/60),
			note,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// FileName returns the conventional export object name for a user-month.
func FileName(userID int64, month string) string {
	return fmt.Sprintf("exports/%d/%s.csv", userID, month)
}
