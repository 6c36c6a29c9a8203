package aggregation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	core "github.com/aevon-lab/tally/internal/core/aggregation"
	"github.com/robfig/cron/v3"
)

const (
	// boundarySpec fires on every five-minute wall-clock boundary; all period
	// boundaries are multiples of it.
	boundarySpec = "0 */5 * * * *"

	// preMidnightSpec fires two seconds before midnight.
	preMidnightSpec = "58 59 23 * * *"

	// ShutdownDrainTimeout bounds the final queue drain on shutdown.
	ShutdownDrainTimeout = 30 * time.Second
)

// Scheduler triggers the timer-driven work of an Engine on wall-clock
// boundaries in the engine's time zone.
type Scheduler struct {
	engine *Engine
	cron   *cron.Cron
}

// NewScheduler registers the boundary and pre-midnight jobs.
func NewScheduler(engine *Engine) (*Scheduler, error) {
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug))
	s := &Scheduler{
		engine: engine,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(engine.Location()),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger)),
		),
	}

	if _, err := s.cron.AddFunc(boundarySpec, func() { s.Fire(engine.now()) }); err != nil {
		return nil, fmt.Errorf("schedule boundary job: %w", err)
	}
	if _, err := s.cron.AddFunc(preMidnightSpec, engine.PreMidnight); err != nil {
		return nil, fmt.Errorf("schedule pre-midnight job: %w", err)
	}
	return s, nil
}

// Fire runs the work due at boundary t: the five-minute sample first, then
// the rollups of every period ending at t from finest to coarsest.
func (s *Scheduler) Fire(t time.Time) {
	s.engine.SampleFiveMin()
	for _, p := range PeriodsDue(t.In(s.engine.Location())) {
		if err := s.engine.Rollup(p); err != nil {
			slog.Error("[Scheduler] Rollup failed", "period", p.String(), "error", err)
		}
	}
}

// PeriodsDue lists the periods whose boundary falls on t, rounded to the
// minute to absorb timer jitter. Weeks end on Monday 00:00 and quarters on
// the first of Jan, Apr, Jul and Oct.
func PeriodsDue(t time.Time) []Period {
	t = t.Round(time.Minute)
	if t.Minute()%15 != 0 {
		return nil
	}
	due := []Period{core.Period15Min}
	if t.Minute() != 0 {
		return due
	}
	due = append(due, core.PeriodHour)
	if t.Hour() != 0 {
		return due
	}
	due = append(due, core.PeriodDay)
	if t.Weekday() == time.Monday {
		due = append(due, core.PeriodWeek)
	}
	if t.Day() != 1 {
		return due
	}
	due = append(due, core.PeriodMonth)
	if (int(t.Month())-1)%3 == 0 {
		due = append(due, core.PeriodQuarter)
	}
	if t.Month() == time.January {
		due = append(due, core.PeriodYear)
	}
	return due
}

// Start runs the jobs until ctx is cancelled, then waits for running jobs and
// drains the task queue before returning.
func (s *Scheduler) Start(ctx context.Context) error {
	slog.Info("[Scheduler] Starting",
		"timezone", s.engine.Location().String(),
		"boundary", boundarySpec,
		"pre_midnight", preMidnightSpec,
	)
	s.cron.Start()

	<-ctx.Done()
	slog.Info("[Scheduler] Stopping (context cancelled)")
	<-s.cron.Stop().Done()

	if err := s.engine.Drain(ShutdownDrainTimeout); err != nil {
		slog.Warn("[Scheduler] Queue not drained before timeout", "error", err)
		return nil
	}
	slog.Info("[Scheduler] Final drain complete")
	return nil
}
