package aggregation

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	v1 "github.com/aevon-lab/tally/internal/api/v1"
	core "github.com/aevon-lab/tally/internal/core/aggregation"
	"github.com/aevon-lab/tally/internal/core/storage"
	storagemocks "github.com/aevon-lab/tally/internal/mocks/storage"
	"github.com/aevon-lab/tally/internal/queue"
	"github.com/aevon-lab/tally/internal/registry"
	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRoute_UnacknowledgedIsIgnored(t *testing.T) {
	h := newHarness(t, sources(v1.SourceConfig{ID: "door", Count: true}))

	require.NoError(t, h.engine.Route("door", true, t0, false))
	h.wait()

	assert.Zero(t, h.store.Len())
}

func TestRoute_InvalidValue(t *testing.T) {
	h := newHarness(t, sources(v1.SourceConfig{ID: "temp", MinMax: true}))

	for _, value := range []any{nil, math.NaN()} {
		err := h.engine.Route("temp", value, t0, true)
		assert.ErrorIs(t, err, ErrInvalidValue)
	}
	h.wait()
	assert.Zero(t, h.store.Len())
}

func TestRoute_UnknownSource(t *testing.T) {
	h := newHarness(t, nil)

	err := h.engine.Route("ghost", 1.0, t0, true)
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestRouteEvent_DefaultsToAcknowledged(t *testing.T) {
	h := newHarness(t, sources(v1.SourceConfig{ID: "temp", MinMax: true}))

	ev := v1.Event{SourceID: "temp", Value: 21.5, Timestamp: t0}
	require.NoError(t, ev.Validate())
	require.NoError(t, h.engine.RouteEvent(ev))
	h.wait()

	assert.Equal(t, 21.5, h.num(Live, core.KindMinMax, "temp", core.MetricLast))
}

func TestRoute_ZeroTimestampUsesClock(t *testing.T) {
	h := newHarness(t, sources(v1.SourceConfig{ID: "temp", MinMax: true}))

	h.route("temp", 3.0, time.Time{})

	st, ok := h.state(Live, core.KindMinMax, "temp", core.MetricLast)
	require.True(t, ok)
	assert.True(t, st.TS.Equal(t0))
}

func TestRoute_NonNumericSkipsNumericKindsOnly(t *testing.T) {
	h := newHarness(t, sources(v1.SourceConfig{ID: "pump", MinMax: true, TimeCount: true}))

	h.route("pump", "on", t0)

	_, ok := h.state(Live, core.KindMinMax, "pump", core.MetricLast)
	assert.False(t, ok)
	_, ok = h.state(Live, core.KindTimeCount, "pump", core.MetricLast)
	assert.True(t, ok)
}

func TestDispatchOrder(t *testing.T) {
	tests := []struct {
		name  string
		kinds []Kind
		want  []Kind
	}{
		{
			name:  "sumDelta takes the place of avg",
			kinds: []Kind{core.KindSumDelta, core.KindAvg, core.KindMinMax},
			want:  []Kind{core.KindSumDelta, core.KindMinMax},
		},
		{
			name:  "avg alone",
			kinds: []Kind{core.KindAvg, core.KindTimeCount},
			want:  []Kind{core.KindAvg, core.KindTimeCount},
		},
		{
			name:  "timer and derived kinds are not dispatched",
			kinds: []Kind{core.KindCount, core.KindSumCount, core.KindSumGroup, core.KindFiveMin},
			want:  []Kind{core.KindCount},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := registry.Source{ID: "s", Kinds: core.NewKindSet(tt.kinds...)}
			assert.Equal(t, tt.want, dispatchOrder(src))
		})
	}
}

func TestRoute_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	h := newHarnessWithOptions(t, sources(v1.SourceConfig{ID: "door", Count: true}), Options{Metrics: metrics})

	require.NoError(t, h.engine.Route("door", true, t0, true))
	require.NoError(t, h.engine.Route("door", true, t0, false))
	require.Error(t, h.engine.Route("ghost", true, t0, true))
	require.Error(t, h.engine.Route("door", nil, t0, true))
	h.wait()

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.events.WithLabelValues(outcomeRouted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.events.WithLabelValues(outcomeUnacked)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.events.WithLabelValues(outcomeUnknownSource)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.events.WithLabelValues(outcomeInvalid)))
}

func TestRoute_StoreFailureDoesNotStopQueue(t *testing.T) {
	store := storagemocks.NewStore(t)
	lastPulse := core.Key(Live, core.KindCount, "door", core.MetricLastPulse)
	store.EXPECT().Get(mock.Anything, lastPulse).Return(storage.State{}, storage.ErrNotFound)
	store.EXPECT().Set(mock.Anything, lastPulse, mock.Anything, mock.Anything).Return(errors.New("disk full"))

	reg, err := registry.New(sources(v1.SourceConfig{ID: "door", Count: true}))
	require.NoError(t, err)
	mockClock := clock.NewMock()
	mockClock.Set(t0)
	engine := NewEngine(store, reg, queue.New(nil), Options{Clock: mockClock})

	require.NoError(t, engine.Route("door", true, t0, true))
	require.NoError(t, engine.Route("door", false, t0.Add(time.Second), true))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, engine.Queue().Wait(ctx))

	store.AssertNumberOfCalls(t, "Set", 2)
}
