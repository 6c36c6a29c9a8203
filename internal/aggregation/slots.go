package aggregation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	core "github.com/aevon-lab/tally/internal/core/aggregation"
	"github.com/aevon-lab/tally/internal/core/storage"
)

// slot addresses one accumulator value.
type slot struct {
	ns     Namespace
	kind   Kind
	owner  string
	metric string
}

func live(k Kind, owner, metric string) slot  { return slot{Live, k, owner, metric} }
func saved(k Kind, owner, metric string) slot { return slot{Saved, k, owner, metric} }

func (s slot) key() string { return core.Key(s.ns, s.kind, s.owner, s.metric) }

// validate rejects metrics that are not declared for the slot's kind.
func (s slot) validate() error {
	_, err := core.Lookup(s.ns, s.kind, s.metric)
	return err
}

// read returns the stored state; ok is false when the slot does not exist.
func (e *Engine) read(ctx context.Context, s slot) (st storage.State, ok bool, err error) {
	if err := s.validate(); err != nil {
		return storage.State{}, false, err
	}
	st, err = e.store.Get(ctx, s.key())
	if errors.Is(err, storage.ErrNotFound) {
		return storage.State{}, false, nil
	}
	if err != nil {
		return storage.State{}, false, fmt.Errorf("read %s: %w", s.key(), err)
	}
	return st, true, nil
}

// readFloat reads a numeric slot. A slot holding a non-numeric value is
// reported as absent.
func (e *Engine) readFloat(ctx context.Context, s slot) (v float64, ts time.Time, ok bool, err error) {
	st, ok, err := e.read(ctx, s)
	if err != nil || !ok {
		return 0, time.Time{}, false, err
	}
	v, ok = core.ToFloat(st.Value)
	if !ok {
		slog.Warn("[Engine] Ignoring non-numeric slot value", "key", s.key(), "value", st.Value)
		return 0, time.Time{}, false, nil
	}
	return v, st.TS, true, nil
}

func (e *Engine) write(ctx context.Context, s slot, value any, ts time.Time) error {
	if err := s.validate(); err != nil {
		return err
	}
	if err := e.store.Set(ctx, s.key(), value, ts); err != nil {
		return fmt.Errorf("write %s: %w", s.key(), err)
	}
	return nil
}

// addToBucket adds delta to a period bucket after the validity check, so a
// bucket left over from an earlier period starts again from 0.
// The bucket keeps the later of its own and the event's timestamp.
func (e *Engine) addToBucket(ctx context.Context, s slot, p Period, delta float64, ts time.Time) error {
	cur, observed, ok, err := e.readFloat(ctx, s)
	if err != nil {
		return err
	}
	if ok {
		checked, err := core.CheckValue(cur, observed, p, ts)
		if err != nil {
			slog.Error("[Engine] Bucket check failed, using stored value", "key", s.key(), "error", err)
		}
		cur = checked
		if observed.After(ts) {
			ts = observed
		}
	}
	return e.write(ctx, s, core.Add(cur, delta), ts)
}

// addToPeriods adds delta to the bucket of every period; metricFor names the
// bucket metric for a period.
func (e *Engine) addToPeriods(ctx context.Context, k Kind, owner string, metricFor func(Period) string, delta float64, ts time.Time) error {
	for _, p := range Periods {
		if err := e.addToBucket(ctx, live(k, owner, metricFor(p)), p, delta, ts); err != nil {
			return err
		}
	}
	return nil
}

// ensure creates the slot with value 0 if it does not exist yet.
func (e *Engine) ensure(ctx context.Context, s slot, ts time.Time) error {
	_, ok, err := e.read(ctx, s)
	if err != nil || ok {
		return err
	}
	return e.write(ctx, s, 0.0, ts)
}

// list returns the slots of one owner and kind. Owners may contain dots, so
// prefix matches belonging to a longer owner id are filtered out.
func (e *Engine) list(ctx context.Context, ns Namespace, k Kind, owner string) ([]storage.State, error) {
	states, err := e.store.List(ctx, core.Prefix(ns, k, owner))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", core.Prefix(ns, k, owner), err)
	}
	out := states[:0]
	for _, st := range states {
		sk, err := core.ParseKey(st.Key)
		if err != nil || sk.Owner != owner {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

func allKinds() []Kind {
	set := core.NewKindSet()
	for _, k := range core.Kinds {
		set[k] = struct{}{}
	}
	return set.Sorted()
}
