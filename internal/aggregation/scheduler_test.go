package aggregation

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	v1 "github.com/aevon-lab/tally/internal/api/v1"
	core "github.com/aevon-lab/tally/internal/core/aggregation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodsDue(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want []Period
	}{
		{
			name: "five-minute boundary only",
			at:   time.Date(2026, 8, 13, 10, 5, 0, 0, time.UTC),
			want: nil,
		},
		{
			name: "quarter hour",
			at:   time.Date(2026, 8, 13, 10, 45, 0, 0, time.UTC),
			want: []Period{core.Period15Min},
		},
		{
			name: "full hour",
			at:   time.Date(2026, 8, 13, 11, 0, 0, 0, time.UTC),
			want: []Period{core.Period15Min, core.PeriodHour},
		},
		{
			name: "midnight on a weekday",
			at:   time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC),
			want: []Period{core.Period15Min, core.PeriodHour, core.PeriodDay},
		},
		{
			name: "monday midnight",
			at:   time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC),
			want: []Period{core.Period15Min, core.PeriodHour, core.PeriodDay, core.PeriodWeek},
		},
		{
			name: "first of month",
			at:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			want: []Period{core.Period15Min, core.PeriodHour, core.PeriodDay, core.PeriodMonth},
		},
		{
			name: "first of quarter",
			at:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
			want: []Period{core.Period15Min, core.PeriodHour, core.PeriodDay, core.PeriodMonth, core.PeriodQuarter},
		},
		{
			name: "new year on a monday",
			at:   time.Date(2029, 1, 1, 0, 0, 0, 0, time.UTC),
			want: Periods,
		},
		{
			name: "timer jitter rounds to the minute",
			at:   time.Date(2026, 8, 13, 10, 59, 59, 700_000_000, time.UTC),
			want: []Period{core.Period15Min, core.PeriodHour},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PeriodsDue(tt.at))
		})
	}
}

func TestPeriodsDue_UsesLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// 22:00 UTC is midnight in Berlin in summer.
	at := time.Date(2026, 8, 13, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, []Period{core.Period15Min, core.PeriodHour}, PeriodsDue(at))
	assert.Contains(t, PeriodsDue(at.In(berlin)), core.PeriodDay)
}

func TestScheduler_FireSamplesBeforeRollup(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	h := newHarnessWithOptions(t, sources(v1.SourceConfig{ID: "door", Count: true, FiveMin: true}), Options{Metrics: metrics})
	s, err := NewScheduler(h.engine)
	require.NoError(t, err)

	h.route("door", true, t0)
	h.at(t0.Add(10 * time.Minute))
	s.Fire(h.clock.Now())
	h.wait()
	require.Equal(t, 1.0, h.num(Live, core.KindFiveMin, "door", core.MetricStart5Min))

	h.route("door", false, t0.Add(11*time.Minute))
	h.route("door", true, t0.Add(12*time.Minute))
	h.at(t0.Add(15 * time.Minute))
	s.Fire(h.clock.Now())
	h.wait()

	// The sample saw the quarter-hour bucket's pulses before the rollup reset it.
	assert.Equal(t, 1.0, h.num(Live, core.KindFiveMin, "door", core.MetricMean5Min))
	assert.Equal(t, 2.0, h.num(Saved, core.KindCount, "door", "15Min"))
	assert.Equal(t, 0.0, h.num(Live, core.KindCount, "door", "15Min"))
	assert.Equal(t, 2.0, h.num(Live, core.KindCount, "door", "hour"))

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.samples))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.rollups.WithLabelValues("15Min")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.rollups.WithLabelValues("hour")))
}

func TestScheduler_MidnightSampleSeesClosingDay(t *testing.T) {
	h := newHarness(t, sources(v1.SourceConfig{ID: "door", Count: true, FiveMin: true}))
	s, err := NewScheduler(h.engine)
	require.NoError(t, err)
	pulse := func(n int, from time.Time) {
		for i := 0; i < n; i++ {
			h.route("door", true, from.Add(time.Duration(20*i)*time.Second))
			h.route("door", false, from.Add(time.Duration(20*i+10)*time.Second))
		}
	}
	evening := time.Date(2026, 8, 13, 23, 50, 0, 0, time.UTC)
	midnight := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)

	pulse(3, evening)
	h.at(evening.Add(5 * time.Minute))
	s.Fire(h.clock.Now())
	h.wait()
	require.Equal(t, 3.0, h.num(Live, core.KindFiveMin, "door", core.MetricStart5Min))

	pulse(4, evening.Add(6*time.Minute))
	h.at(midnight)
	s.Fire(h.clock.Now())
	h.wait()

	assert.Equal(t, 4.0, h.num(Live, core.KindFiveMin, "door", core.MetricMean5Min))
	assert.Equal(t, 4.0, h.num(Saved, core.KindFiveMin, "door", core.MetricDayMin5Min))
	assert.Equal(t, 4.0, h.num(Saved, core.KindFiveMin, "door", core.MetricDayMax5Min))
	assert.Equal(t, 7.0, h.num(Saved, core.KindCount, "door", "day"))
	assert.Equal(t, 0.0, h.num(Live, core.KindCount, "door", "day"))

	// The first sample of the new day starts over from the reset bucket.
	pulse(2, midnight.Add(time.Minute))
	h.at(midnight.Add(5 * time.Minute))
	s.Fire(h.clock.Now())
	h.wait()
	assert.Equal(t, 2.0, h.num(Live, core.KindFiveMin, "door", core.MetricMean5Min))
}

func TestScheduler_StartStopsOnCancel(t *testing.T) {
	h := newHarness(t, sources(v1.SourceConfig{ID: "door", Count: true}))
	s, err := NewScheduler(h.engine)
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 2)

	require.NoError(t, h.engine.Route("door", true, t0, true))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Zero(t, h.engine.Queue().Len())
	assert.Equal(t, 1.0, h.num(Live, core.KindCount, "door", "day"))
}
