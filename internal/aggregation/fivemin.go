package aggregation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	core "github.com/aevon-lab/tally/internal/core/aggregation"
	"github.com/aevon-lab/tally/internal/registry"
)

const fiveMinWindow = 5 * time.Minute

// SampleFiveMin enqueues one five-minute sample per fiveMin source.
func (e *Engine) SampleFiveMin() {
	now := e.now()
	sources := e.registry.SourcesWith(core.KindFiveMin)
	for _, src := range sources {
		src := src
		e.enqueue(fmt.Sprintf("fiveMin.%s", src.ID), func(ctx context.Context) error {
			return e.sampleFiveMin(ctx, src, now)
		})
	}
	e.metrics.sample()
	slog.Debug("[Engine] Five-minute sampling scheduled", "sources", len(sources), "at", now)
}

// sampleFiveMin records the counter increase since the previous sample.
func (e *Engine) sampleFiveMin(ctx context.Context, src registry.Source, now time.Time) error {
	reading, ok, err := e.counterReading(ctx, src, now)
	if err != nil || !ok {
		return err
	}

	startSlot := live(core.KindFiveMin, src.ID, core.MetricStart5Min)
	prev, _, seen, err := e.readFloat(ctx, startSlot)
	if err != nil {
		return err
	}
	if err := e.write(ctx, startSlot, reading, core.BoundaryStamp(now)); err != nil {
		return err
	}
	if !seen {
		return nil
	}

	delta := core.Sub(reading, prev)
	if delta < 0 {
		// The day bucket restarted at midnight, or the meter rolled over.
		delta = reading
	}
	if err := e.write(ctx, live(core.KindFiveMin, src.ID, core.MetricMean5Min), delta, now); err != nil {
		return err
	}
	if err := e.keepMax(ctx, live(core.KindFiveMin, src.ID, core.MetricDayMax5Min), delta, now); err != nil {
		return err
	}
	return e.keepMin(ctx, live(core.KindFiveMin, src.ID, core.MetricDayMin5Min), delta, now)
}

// counterReading is the cumulative counter a fiveMin sample is taken from:
// the meter reading for sumDelta sources, else today's pulse count. The day
// bucket is checked against the start of the sampled window, so the sample
// taken at midnight still sees the day the rollup is about to close.
func (e *Engine) counterReading(ctx context.Context, src registry.Source, now time.Time) (float64, bool, error) {
	switch {
	case src.Has(core.KindSumDelta):
		v, _, ok, err := e.readFloat(ctx, live(core.KindSumDelta, src.ID, core.MetricLast))
		return v, ok, err
	case src.Has(core.KindCount):
		v, observed, ok, err := e.readFloat(ctx, live(core.KindCount, src.ID, core.BucketMetric(core.PeriodDay)))
		if err != nil || !ok {
			return 0, false, err
		}
		v, err = core.CheckValue(v, observed, core.PeriodDay, now.Add(-fiveMinWindow))
		if err != nil {
			slog.Error("[Engine] Bucket check failed, using stored value", "source_id", src.ID, "error", err)
		}
		return v, true, nil
	}
	slog.Warn("[Engine] fiveMin needs sumDelta or count; nothing to sample", "source_id", src.ID)
	return 0, false, nil
}

// PreMidnight re-feeds the last level of every timeCount source with the
// current time, so the stretch up to midnight is credited before the day rolls.
func (e *Engine) PreMidnight() {
	now := e.now()
	sources := e.registry.SourcesWith(core.KindTimeCount)
	for _, src := range sources {
		src := src
		e.enqueue(fmt.Sprintf("preMidnight.%s", src.ID), func(ctx context.Context) error {
			st, ok, err := e.read(ctx, live(core.KindTimeCount, src.ID, core.MetricLast))
			if err != nil || !ok {
				return err
			}
			return e.updateTimeCount(ctx, src, st.Value, now)
		})
	}
	slog.Debug("[Engine] Pre-midnight re-feed scheduled", "sources", len(sources), "at", now)
}
