package aggregation

import (
	"context"
	"testing"
	"time"

	v1 "github.com/aevon-lab/tally/internal/api/v1"
	core "github.com/aevon-lab/tally/internal/core/aggregation"
	"github.com/aevon-lab/tally/internal/core/storage"
	"github.com/aevon-lab/tally/internal/core/storage/memory"
	"github.com/aevon-lab/tally/internal/queue"
	"github.com/aevon-lab/tally/internal/registry"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

// Thursday 2026-08-13 10:00 UTC.
var t0 = time.Date(2026, 8, 13, 10, 0, 0, 0, time.UTC)

type harness struct {
	t      *testing.T
	store  *memory.Store
	reg    *registry.Registry
	clock  *clock.Mock
	engine *Engine
}

func newHarness(t *testing.T, f *registry.File) *harness {
	return newHarnessWithOptions(t, f, Options{})
}

func newHarnessWithOptions(t *testing.T, f *registry.File, opts Options) *harness {
	t.Helper()

	reg, err := registry.New(f)
	require.NoError(t, err)

	mockClock := clock.NewMock()
	mockClock.Set(t0)
	opts.Clock = mockClock

	store := memory.NewStore()
	return &harness{
		t:      t,
		store:  store,
		reg:    reg,
		clock:  mockClock,
		engine: NewEngine(store, reg, queue.New(nil), opts),
	}
}

func sources(cfgs ...v1.SourceConfig) *registry.File {
	return &registry.File{Sources: cfgs}
}

func ptr(v float64) *float64 { return &v }

func (h *harness) wait() {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(h.t, h.engine.Queue().Wait(ctx))
}

// route delivers an acknowledged event and waits for its tasks.
func (h *harness) route(id string, value any, ts time.Time) {
	h.t.Helper()
	require.NoError(h.t, h.engine.Route(id, value, ts, true))
	h.wait()
}

func (h *harness) at(ts time.Time) {
	h.clock.Set(ts)
}

func (h *harness) state(ns Namespace, k Kind, owner, metric string) (storage.State, bool) {
	h.t.Helper()
	st, err := h.store.Get(context.Background(), core.Key(ns, k, owner, metric))
	if err != nil {
		require.ErrorIs(h.t, err, storage.ErrNotFound)
		return storage.State{}, false
	}
	return st, true
}

// num returns a numeric slot value; a missing slot fails the test.
func (h *harness) num(ns Namespace, k Kind, owner, metric string) float64 {
	h.t.Helper()
	st, ok := h.state(ns, k, owner, metric)
	require.True(h.t, ok, "missing slot %s", core.Key(ns, k, owner, metric))
	v, ok := core.ToFloat(st.Value)
	require.True(h.t, ok, "non-numeric slot %s: %#v", core.Key(ns, k, owner, metric), st.Value)
	return v
}

func (h *harness) set(ns Namespace, k Kind, owner, metric string, value any, ts time.Time) {
	h.t.Helper()
	require.NoError(h.t, h.store.Set(context.Background(), core.Key(ns, k, owner, metric), value, ts))
}
