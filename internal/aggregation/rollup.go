package aggregation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	core "github.com/aevon-lab/tally/internal/core/aggregation"
)

// bucketKinds are the kinds whose plain period buckets are saved and reset
// on every rollup.
var bucketKinds = []Kind{core.KindCount, core.KindSumCount, core.KindSumDelta}

// Rollup enqueues the snapshot-and-reset of every live slot tied to period p.
// Each source and kind is one task, queued behind any pending event updates.
func (e *Engine) Rollup(p Period) error {
	if !p.Valid() {
		return fmt.Errorf("rollup: %w: %v", core.ErrUnknownPeriod, p)
	}
	now := e.now()
	metric := core.BucketMetric(p)
	tasks := 0

	for _, src := range e.registry.Sources() {
		src := src
		for _, k := range bucketKinds {
			if !src.Has(k) {
				continue
			}
			k := k
			e.enqueueRollup(p, k, src.ID, func(ctx context.Context) error {
				return e.rollupBucket(ctx, k, src.ID, metric, now, false)
			})
			tasks++
		}

		if p == core.PeriodDay {
			if src.Has(core.KindAvg) {
				e.enqueueRollup(p, core.KindAvg, src.ID, func(ctx context.Context) error {
					return e.rollupAvg(ctx, src.ID, now)
				})
				tasks++
			}
			if src.Has(core.KindFiveMin) {
				e.enqueueRollup(p, core.KindFiveMin, src.ID, func(ctx context.Context) error {
					return e.rollupFiveMin(ctx, src.ID, now)
				})
				tasks++
			}
		}

		// Time counters and extrema only roll from day upward.
		if p.Index() >= core.PeriodDay.Index() {
			if src.Has(core.KindTimeCount) {
				e.enqueueRollup(p, core.KindTimeCount, src.ID, func(ctx context.Context) error {
					return e.rollupTimeCount(ctx, src.ID, p, now)
				})
				tasks++
			}
			if src.Has(core.KindMinMax) {
				e.enqueueRollup(p, core.KindMinMax, src.ID, func(ctx context.Context) error {
					return e.rollupMinMax(ctx, src.ID, p, now)
				})
				tasks++
			}
		}
	}

	for _, g := range e.registry.Groups() {
		id := g.ID
		e.enqueueRollup(p, core.KindSumGroup, id, func(ctx context.Context) error {
			return e.rollupBucket(ctx, core.KindSumGroup, id, metric, now, true)
		})
		tasks++
	}

	e.metrics.rollup(p)
	slog.Info("[Rollup] Scheduled", "period", p.String(), "tasks", tasks, "at", now)
	return nil
}

func (e *Engine) enqueueRollup(p Period, k Kind, owner string, fn func(ctx context.Context) error) {
	e.enqueue(fmt.Sprintf("rollup.%s.%s.%s", p, k, owner), fn)
}

// rollupBucket saves the live bucket (0 if absent) and resets it to 0.
// Group totals are money and are saved rounded to two places.
func (e *Engine) rollupBucket(ctx context.Context, k Kind, owner, metric string, now time.Time, money bool) error {
	v, _, _, err := e.readFloat(ctx, live(k, owner, metric))
	if err != nil {
		return err
	}
	if money {
		v = core.RoundMoney(v)
	}
	if err := e.write(ctx, saved(k, owner, metric), v, now); err != nil {
		return err
	}
	return e.write(ctx, live(k, owner, metric), 0.0, now)
}

// saveLive copies a live slot to its saved twin, 0 if absent.
func (e *Engine) saveLive(ctx context.Context, k Kind, owner, metric string, now time.Time) error {
	v, _, _, err := e.readFloat(ctx, live(k, owner, metric))
	if err != nil {
		return err
	}
	return e.write(ctx, saved(k, owner, metric), v, now)
}

// reseed sets the given live slots to the source's last value, so the next
// period's extrema start from the closing value. Without a last value the
// slots are left as they are.
func (e *Engine) reseed(ctx context.Context, k Kind, owner string, now time.Time, metrics ...string) error {
	last, _, ok, err := e.readFloat(ctx, live(k, owner, core.MetricLast))
	if err != nil || !ok {
		return err
	}
	for _, m := range metrics {
		if err := e.write(ctx, live(k, owner, m), last, now); err != nil {
			return err
		}
	}
	return nil
}

// rollupAvg closes the day of an avg source: dayMin, dayMax and dayAvg are
// saved, the extrema are reseeded from last and the counters restart at 0.
func (e *Engine) rollupAvg(ctx context.Context, owner string, now time.Time) error {
	for _, m := range []string{core.MetricDayMin, core.MetricDayMax, core.MetricDayAvg} {
		if err := e.saveLive(ctx, core.KindAvg, owner, m, now); err != nil {
			return err
		}
	}
	if err := e.reseed(ctx, core.KindAvg, owner, now, core.MetricDayMin, core.MetricDayMax); err != nil {
		return err
	}
	if err := e.write(ctx, live(core.KindAvg, owner, core.MetricDayCount), 0.0, now); err != nil {
		return err
	}
	return e.write(ctx, live(core.KindAvg, owner, core.MetricDaySum), 0.0, now)
}

func (e *Engine) rollupFiveMin(ctx context.Context, owner string, now time.Time) error {
	for _, m := range []string{core.MetricDayMin5Min, core.MetricDayMax5Min} {
		if err := e.rollupBucket(ctx, core.KindFiveMin, owner, m, now, false); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) rollupTimeCount(ctx context.Context, owner string, p Period, now time.Time) error {
	for _, m := range []string{core.OnMetric(p), core.OffMetric(p)} {
		if err := e.rollupBucket(ctx, core.KindTimeCount, owner, m, now, false); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) rollupMinMax(ctx context.Context, owner string, p Period, now time.Time) error {
	minM, maxM := core.MinMetric(p), core.MaxMetric(p)
	for _, m := range []string{minM, maxM} {
		if err := e.saveLive(ctx, core.KindMinMax, owner, m, now); err != nil {
			return err
		}
	}
	return e.reseed(ctx, core.KindMinMax, owner, now, minM, maxM)
}
