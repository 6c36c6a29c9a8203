package aggregation

import (
	"context"
	"log/slog"
	"math"
	"time"

	core "github.com/aevon-lab/tally/internal/core/aggregation"
	"github.com/aevon-lab/tally/internal/registry"
)

// updateCount counts real transitions to a true-like level. A transition
// also feeds sumCount and, for group members, the group.
func (e *Engine) updateCount(ctx context.Context, src registry.Source, value any, ts time.Time) error {
	lastPulse := live(core.KindCount, src.ID, core.MetricLastPulse)
	prev, seen, err := e.read(ctx, lastPulse)
	if err != nil {
		return err
	}
	if err := e.write(ctx, lastPulse, value, ts); err != nil {
		return err
	}

	if !core.IsTrueLike(value) || (seen && core.IsTrueLike(prev.Value)) {
		return nil
	}

	if err := e.addToPeriods(ctx, core.KindCount, src.ID, core.BucketMetric, 1, ts); err != nil {
		return err
	}
	if src.Has(core.KindSumCount) {
		if err := e.addToPeriods(ctx, core.KindSumCount, src.ID, core.BucketMetric, src.UnitPerPulse, ts); err != nil {
			return err
		}
	}
	if src.Grouped() {
		return e.addToGroup(ctx, src, src.UnitPerPulse, ts)
	}
	return nil
}

// updateSumDelta accumulates the increase of a monotonic meter reading.
// A decrease is noise when sumIgnoreMinus is set, otherwise a counter
// rollover and the new reading itself is the increase.
func (e *Engine) updateSumDelta(ctx context.Context, src registry.Source, v float64, ts time.Time) error {
	lastSlot := live(core.KindSumDelta, src.ID, core.MetricLast)
	last, _, seen, err := e.readFloat(ctx, lastSlot)
	if err != nil {
		return err
	}
	if err := e.write(ctx, lastSlot, v, ts); err != nil {
		return err
	}
	if !seen {
		slog.Debug("[Engine] Meter baseline recorded", "source_id", src.ID, "value", v)
		return nil
	}

	delta := core.Sub(v, last)
	if delta < 0 {
		if src.SumIgnoreMinus {
			delta = 0
		} else {
			slog.Info("[Engine] Meter reading decreased, assuming rollover",
				"source_id", src.ID, "last", last, "value", v)
			delta = v
		}
	}

	if err := e.write(ctx, live(core.KindSumDelta, src.ID, core.MetricDelta), delta, ts); err != nil {
		return err
	}
	if err := e.addToPeriods(ctx, core.KindSumDelta, src.ID, core.BucketMetric, delta, ts); err != nil {
		return err
	}
	if src.Has(core.KindAvg) {
		if err := e.updateAvg(ctx, src, delta, ts); err != nil {
			return err
		}
	}
	if src.Grouped() {
		return e.addToGroup(ctx, src, delta, ts)
	}
	return nil
}

// addToGroup adds amount × groupFactor × price, rounded to four places, to
// every bucket of the source's group. An undeclared group is skipped.
func (e *Engine) addToGroup(ctx context.Context, src registry.Source, amount float64, ts time.Time) error {
	g, err := e.registry.Group(src.GroupID)
	if err != nil {
		slog.Error("[Engine] Skipping group sum", "source_id", src.ID, "group_id", src.GroupID, "error", err)
		return nil
	}
	inc := core.RoundCost(core.Mul(amount, src.GroupFactor, g.Price))
	return e.addToPeriods(ctx, core.KindSumGroup, g.ID, core.BucketMetric, inc, ts)
}

// updateAvg maintains the running daily mean and extrema.
func (e *Engine) updateAvg(ctx context.Context, src registry.Source, v float64, ts time.Time) error {
	countSlot := live(core.KindAvg, src.ID, core.MetricDayCount)
	sumSlot := live(core.KindAvg, src.ID, core.MetricDaySum)

	count, _, _, err := e.readFloat(ctx, countSlot)
	if err != nil {
		return err
	}
	sum, _, _, err := e.readFloat(ctx, sumSlot)
	if err != nil {
		return err
	}
	count++
	sum = core.Add(sum, v)

	writes := []struct {
		s     slot
		value float64
	}{
		{countSlot, count},
		{sumSlot, sum},
		{live(core.KindAvg, src.ID, core.MetricDayAvg), core.Round(sum/count, e.avgPrecision)},
		{live(core.KindAvg, src.ID, core.MetricLast), v},
	}
	for _, w := range writes {
		if err := e.write(ctx, w.s, w.value, ts); err != nil {
			return err
		}
	}

	if err := e.keepMin(ctx, live(core.KindAvg, src.ID, core.MetricDayMin), v, ts); err != nil {
		return err
	}
	return e.keepMax(ctx, live(core.KindAvg, src.ID, core.MetricDayMax), v, ts)
}

// updateMinMax maintains running extrema from day to year plus all-time extrema.
func (e *Engine) updateMinMax(ctx context.Context, src registry.Source, v float64, ts time.Time) error {
	for _, p := range ExtremaPeriods {
		if err := e.keepMin(ctx, live(core.KindMinMax, src.ID, core.MinMetric(p)), v, ts); err != nil {
			return err
		}
		if err := e.keepMax(ctx, live(core.KindMinMax, src.ID, core.MaxMetric(p)), v, ts); err != nil {
			return err
		}
	}
	if err := e.keepMin(ctx, live(core.KindMinMax, src.ID, core.MetricAbsMin), v, ts); err != nil {
		return err
	}
	if err := e.keepMax(ctx, live(core.KindMinMax, src.ID, core.MetricAbsMax), v, ts); err != nil {
		return err
	}
	return e.write(ctx, live(core.KindMinMax, src.ID, core.MetricLast), v, ts)
}

// keepMin stores v if the slot is empty or holds a larger value.
func (e *Engine) keepMin(ctx context.Context, s slot, v float64, ts time.Time) error {
	cur, _, ok, err := e.readFloat(ctx, s)
	if err != nil || (ok && cur <= v) {
		return err
	}
	return e.write(ctx, s, v, ts)
}

// keepMax stores v if the slot is empty or holds a smaller value.
func (e *Engine) keepMax(ctx context.Context, s slot, v float64, ts time.Time) error {
	cur, _, ok, err := e.readFloat(ctx, s)
	if err != nil || (ok && cur >= v) {
		return err
	}
	return e.write(ctx, s, v, ts)
}

// updateTimeCount credits the time since the last edge to the level that was
// held during it. A repeated level is a poll: the time is credited and the
// edge moves forward, so the same interval is never counted twice.
func (e *Engine) updateTimeCount(ctx context.Context, src registry.Source, value any, ts time.Time) error {
	level := core.Coerce(value)
	if level == core.LevelNone {
		slog.Debug("[Engine] Ignoring value that is neither on nor off", "source_id", src.ID, "value", value)
		return nil
	}

	lastSlot := live(core.KindTimeCount, src.ID, core.MetricLast)
	prev, seen, err := e.read(ctx, lastSlot)
	if err != nil {
		return err
	}
	if err := e.write(ctx, lastSlot, value, ts); err != nil {
		return err
	}

	edge := core.MetricLast10
	if level == core.LevelOn {
		edge = core.MetricLast01
	}

	if seen {
		if err := e.creditHeldLevel(ctx, src, core.Coerce(prev.Value), ts); err != nil {
			return err
		}
	}
	return e.write(ctx, live(core.KindTimeCount, src.ID, edge), float64(ts.UnixMilli()), ts)
}

// creditHeldLevel adds the seconds since the held level's edge to its on or off buckets.
func (e *Engine) creditHeldLevel(ctx context.Context, src registry.Source, held core.Level, ts time.Time) error {
	var (
		edge      string
		metricFor func(Period) string
	)
	switch held {
	case core.LevelOn:
		edge, metricFor = core.MetricLast01, core.OnMetric
	case core.LevelOff:
		edge, metricFor = core.MetricLast10, core.OffMetric
	default:
		return nil
	}

	since, _, ok, err := e.readFloat(ctx, live(core.KindTimeCount, src.ID, edge))
	if err != nil || !ok {
		return err
	}
	elapsed := math.Round(ts.Sub(time.UnixMilli(int64(since))).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	return e.addToPeriods(ctx, core.KindTimeCount, src.ID, metricFor, elapsed, ts)
}
