package aggregation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	v1 "github.com/aevon-lab/tally/internal/api/v1"
	core "github.com/aevon-lab/tally/internal/core/aggregation"
	"github.com/aevon-lab/tally/internal/registry"
)

var (
	ErrInvalidValue  = errors.New("invalid event value")
	ErrUnknownSource = errors.New("unknown source")
)

// update is the accumulator function an event is dispatched to.
type update func(ctx context.Context, src registry.Source, value any, ts time.Time) error

// Route dispatches one value-change event to the accumulators enabled for its
// source. It only enqueues tasks; the store is never touched on the caller's
// goroutine. Unacknowledged events are ignored without error.
func (e *Engine) Route(sourceID string, value any, ts time.Time, acknowledged bool) error {
	if !acknowledged {
		e.metrics.event(outcomeUnacked)
		return nil
	}
	if invalidValue(value) {
		e.metrics.event(outcomeInvalid)
		slog.Error("[Engine] Dropping event with invalid value", "source_id", sourceID, "value", value)
		return fmt.Errorf("%w: %v", ErrInvalidValue, value)
	}

	src, ok := e.registry.Get(sourceID)
	if !ok {
		e.metrics.event(outcomeUnknownSource)
		slog.Debug("[Engine] Dropping event for unregistered source", "source_id", sourceID)
		return fmt.Errorf("%w: %q", ErrUnknownSource, sourceID)
	}

	if ts.IsZero() {
		ts = e.now()
	} else {
		ts = ts.In(e.loc)
	}

	for _, k := range dispatchOrder(src) {
		fn := e.dispatch[k]
		e.enqueue(fmt.Sprintf("%s.%s", k, src.ID), func(ctx context.Context) error {
			return fn(ctx, src, value, ts)
		})
	}
	e.metrics.event(outcomeRouted)
	return nil
}

// RouteEvent routes a wire event.
func (e *Engine) RouteEvent(ev v1.Event) error {
	return e.Route(ev.SourceID, ev.Value, ev.Timestamp, ev.Acknowledged())
}

// dispatchOrder lists the event-driven kinds of src in routing priority.
// sumDelta and avg are exclusive: with sumDelta enabled, avg is fed the delta.
func dispatchOrder(src registry.Source) []Kind {
	var out []Kind
	switch {
	case src.Has(core.KindSumDelta):
		out = append(out, core.KindSumDelta)
	case src.Has(core.KindAvg):
		out = append(out, core.KindAvg)
	}
	for _, k := range []Kind{core.KindMinMax, core.KindCount, core.KindTimeCount} {
		if src.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// updateTable maps each event-driven kind to its accumulator.
func (e *Engine) updateTable() map[Kind]update {
	return map[Kind]update{
		core.KindSumDelta:  numeric(e.updateSumDelta),
		core.KindAvg:       numeric(e.updateAvg),
		core.KindMinMax:    numeric(e.updateMinMax),
		core.KindCount:     e.updateCount,
		core.KindTimeCount: e.updateTimeCount,
	}
}

// numeric adapts an accumulator over float64 values. Values that do not
// convert to a number are logged and skipped for that accumulator only.
func numeric(fn func(ctx context.Context, src registry.Source, v float64, ts time.Time) error) update {
	return func(ctx context.Context, src registry.Source, value any, ts time.Time) error {
		v, ok := core.ToFloat(value)
		if !ok {
			slog.Error("[Engine] Skipping non-numeric value", "source_id", src.ID, "value", value)
			return nil
		}
		return fn(ctx, src, v, ts)
	}
}

func invalidValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(v)
	case float32:
		return math.IsNaN(float64(v))
	}
	return false
}
