package analytics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/PunchlogHQ/punchlog-web/internal/db"
	"github.com/PunchlogHQ/punchlog-web/internal/models"
)

var tracer = otel.Tracer("punchlog/analytics")

// DashboardRequest contains parameters for a dashboard computation.
type DashboardRequest struct {
	Month    string // YYYY-MM; empty means the current month in the client zone
	TZOffset int    // client timezone offset in minutes (JS getTimezoneOffset convention)
}

// Store wires the pure engine to the database. Analytics are never
// persisted; every request recomputes from the session log.
type Store struct {
	db  *db.DB
	now func() time.Time // injectable for tests
}

// NewStore creates a new analytics store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// GetDashboard loads the month's sessions and target in parallel, then runs
// the engine over them.
func (s *Store) GetDashboard(ctx context.Context, userID int64, req DashboardRequest) (*DashboardResponse, error) {
	ctx, span := tracer.Start(ctx, "analytics.get_dashboard",
		trace.WithAttributes(
			attribute.Int64("user.id", userID),
			attribute.String("month", req.Month),
			attribute.Int("tz_offset", req.TZOffset),
		))
	defer span.End()

	// JS getTimezoneOffset is positive when the client is behind UTC.
	loc := time.FixedZone("client", -req.TZOffset*60)
	now := s.now().In(loc)

	month := req.Month
	if month == "" {
		month = now.Format("2006-01")
	}

	var (
		sessions []models.Session
		target   *models.MonthlyTarget
		mu       sync.Mutex
		wg       sync.WaitGroup
	)
	errChan := make(chan error, 2)

	runLoad := func(fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				errChan <- err
			}
		}()
	}

	runLoad(func() error {
		loaded, err := s.db.ListSessionsForMonth(ctx, userID, month)
		if err != nil {
			return err
		}
		mu.Lock()
		sessions = loaded
		mu.Unlock()
		return nil
	})

	runLoad(func() error {
		loaded, err := s.db.GetMonthlyTargetOrDefault(ctx, userID, month)
		if err != nil {
			return err
		}
		mu.Lock()
		target = loaded
		mu.Unlock()
		return nil
	})

	wg.Wait()
	close(errChan)

	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}

	result := Compute(sessions, target.TargetHours.InexactFloat64(), now)

	return &DashboardResponse{
		ComputedAt:   time.Now().UTC(),
		Month:        month,
		SessionCount: len(sessions),
		TargetHours:  target.TargetHours.String(),
		Analytics:    result,
	}, nil
}
