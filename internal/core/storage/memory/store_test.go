package memory

import (
	"context"
	"testing"
	"time"

	"github.com/aevon-lab/tally/internal/core/storage"
	"github.com/stretchr/testify/require"
)

func TestStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	ts := time.Date(2026, 8, 13, 10, 0, 0, 0, time.UTC)

	_, err := s.Get(ctx, "live.count.a.day")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, "live.count.a.day", 3.0, ts))
	st, err := s.Get(ctx, "live.count.a.day")
	require.NoError(t, err)
	require.Equal(t, storage.State{Key: "live.count.a.day", Value: 3.0, TS: ts}, st)

	require.NoError(t, s.Set(ctx, "live.count.a.day", 4.0, ts.Add(time.Minute)))
	st, err = s.Get(ctx, "live.count.a.day")
	require.NoError(t, err)
	require.Equal(t, 4.0, st.Value)
	require.Equal(t, 1, s.Len())
}

func TestStore_DeleteAndList(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	for _, key := range []string{"live.count.b.day", "live.count.a.hour", "live.count.a.day", "saved.count.a.day"} {
		require.NoError(t, s.Set(ctx, key, 1.0, time.Time{}))
	}

	got, err := s.List(ctx, "live.count.a.")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "live.count.a.day", got[0].Key)
	require.Equal(t, "live.count.a.hour", got[1].Key)

	require.NoError(t, s.Delete(ctx, "live.count.a.day"))
	require.NoError(t, s.Delete(ctx, "live.count.a.day"))

	got, err = s.List(ctx, "live.")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NoError(t, s.Ping(ctx))
}
