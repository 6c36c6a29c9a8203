package aggregation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	core "github.com/aevon-lab/tally/internal/core/aggregation"
	"github.com/aevon-lab/tally/internal/registry"
)

// bucketMetrics lists the period bucket metrics of k that start at 0.
// Kinds without buckets take their first value from the first observation.
func bucketMetrics(k Kind) []string {
	var metricFor []func(Period) string
	switch k {
	case core.KindCount, core.KindSumCount, core.KindSumDelta, core.KindSumGroup:
		metricFor = []func(Period) string{core.BucketMetric}
	case core.KindTimeCount:
		metricFor = []func(Period) string{core.OnMetric, core.OffMetric}
	}
	var out []string
	for _, fn := range metricFor {
		for _, p := range Periods {
			out = append(out, fn(p))
		}
	}
	return out
}

// ensureOwner creates the missing bucket slots of one owner and kind, live
// and saved.
func (e *Engine) ensureOwner(ctx context.Context, k Kind, owner string, now time.Time) error {
	for _, m := range bucketMetrics(k) {
		if err := e.ensure(ctx, live(k, owner, m), now); err != nil {
			return err
		}
		if _, err := core.Lookup(Saved, k, m); err != nil {
			continue
		}
		if err := e.ensure(ctx, saved(k, owner, m), now); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) enqueueEnsure(src registry.Source) {
	e.enqueue(fmt.Sprintf("ensure.%s", src.ID), func(ctx context.Context) error {
		now := e.now()
		for _, k := range src.Kinds.Sorted() {
			if k == core.KindSumGroup {
				continue
			}
			if err := e.ensureOwner(ctx, k, src.ID, now); err != nil {
				return err
			}
		}
		if !src.Grouped() {
			return nil
		}
		g, err := e.registry.Group(src.GroupID)
		if err != nil {
			slog.Error("[Engine] Source references an undeclared group", "source_id", src.ID, "group_id", src.GroupID)
			return nil
		}
		return e.ensureOwner(ctx, core.KindSumGroup, g.ID, now)
	})
}

// deleteOwned removes every slot of owner and kind in ns.
func (e *Engine) deleteOwned(ctx context.Context, ns Namespace, k Kind, owner string) error {
	states, err := e.list(ctx, ns, k, owner)
	if err != nil {
		return err
	}
	for _, st := range states {
		if err := e.store.Delete(ctx, st.Key); err != nil {
			return fmt.Errorf("delete %s: %w", st.Key, err)
		}
	}
	return nil
}

// teardown deletes the live slots of every kind in kinds, and the saved
// slots of the kinds in dropSaved. Group slots belong to the group and stay.
func (e *Engine) teardown(ctx context.Context, owner string, kinds, dropSaved core.KindSet) error {
	for _, k := range kinds.Sorted() {
		if k == core.KindSumGroup {
			continue
		}
		if err := e.deleteOwned(ctx, Live, k, owner); err != nil {
			return err
		}
		if !dropSaved.Has(k) {
			continue
		}
		if err := e.deleteOwned(ctx, Saved, k, owner); err != nil {
			return err
		}
	}
	return nil
}

// onRegistryChange keeps the slot set in step with the registry. A changed
// source is torn down and recreated; saved snapshots survive for kinds that
// stay enabled.
func (e *Engine) onRegistryChange(c registry.Change) {
	slog.Info("[Engine] Source changed", "source_id", c.Source.ID, "change", c.Type.String(), "kinds", c.Source.Kinds.Names())

	switch c.Type {
	case registry.Added:
		e.enqueueEnsure(c.Source)
	case registry.Updated:
		prev := c.Previous.Kinds
		dropped := core.NewKindSet()
		for k := range prev {
			if !c.Source.Has(k) {
				dropped[k] = struct{}{}
			}
		}
		e.enqueue(fmt.Sprintf("teardown.%s", c.Source.ID), func(ctx context.Context) error {
			return e.teardown(ctx, c.Source.ID, prev, dropped)
		})
		e.enqueueEnsure(c.Source)
	case registry.Removed:
		e.enqueue(fmt.Sprintf("remove.%s", c.Source.ID), func(ctx context.Context) error {
			return e.teardown(ctx, c.Source.ID, c.Source.Kinds, c.Source.Kinds)
		})
	}
}
