package feed

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l33tquant/ta-statistics/internal/model"
)

func drain(t *testing.T, f Feed) []model.Sample {
	t.Helper()
	var out []model.Sample
	for {
		m, err := f.Next(context.Background())
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, m)
	}
}

func TestLineFeed(t *testing.T) {
	in := strings.NewReader(`# cpu readings
{"device_id":"a","cpu":1.5,"rps":10,"timestamp":100}

2.25
  NaN
`)
	f := NewLineFeed(in)
	got := drain(t, f)
	require.NoError(t, f.Close())

	require.Len(t, got, 3)
	assert.Equal(t, model.Sample{DeviceID: "a", CPU: 1.5, RPS: 10, Timestamp: 100}, got[0])
	assert.Equal(t, 2.25, got[1].CPU)
	assert.True(t, math.IsNaN(got[2].CPU))

	_, err := f.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineFeedReportsLine(t *testing.T) {
	f := NewLineFeed(strings.NewReader("1\nabc\n"))
	_, err := f.Next(context.Background())
	require.NoError(t, err)
	_, err = f.Next(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	f = NewLineFeed(strings.NewReader("{broken\n"))
	_, err = f.Next(context.Background())
	require.Error(t, err)
	var syntax *json.SyntaxError
	assert.ErrorAs(t, err, &syntax)
}

func TestLineFeedCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLineFeed(strings.NewReader("1\n")).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	s := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return s, c
}

func TestRedisFeedReplaysOldestFirst(t *testing.T) {
	s, c := newRedis(t)
	ctx := context.Background()

	const n = 600
	for i := 0; i < n; i++ {
		payload, err := json.Marshal(model.Sample{CPU: float64(i), Timestamp: int64(i)})
		require.NoError(t, err)
		require.NoError(t, c.LPush(ctx, DefaultKey, payload).Err())
	}

	f := NewRedisFeed(s.Addr(), "", 0, "")
	require.NoError(t, f.Check(ctx, 3))
	f.pageSize = 64

	first, err := f.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, first.CPU)

	// Entries pushed after the replay started are not part of it.
	require.NoError(t, c.LPush(ctx, DefaultKey, "12345").Err())

	rest := drain(t, f)
	require.Len(t, rest, n-1)
	for i, m := range rest {
		require.Equal(t, float64(i+1), m.CPU)
	}
	require.NoError(t, f.Close())
}

func TestRedisFeedTrimmedTailSkipsEntries(t *testing.T) {
	s, c := newRedis(t)
	ctx := context.Background()
	push := func(cpu float64) {
		payload, err := json.Marshal(model.Sample{CPU: cpu})
		require.NoError(t, err)
		require.NoError(t, c.LPush(ctx, DefaultKey, payload).Err())
	}
	for i := 0; i < 10; i++ {
		push(float64(i))
	}

	f := NewRedisFeed(s.Addr(), "", 0, "")
	f.pageSize = 4
	first, err := f.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, first.CPU)

	// Capped ingest: two new entries at the head, two old ones trimmed off
	// the tail.
	push(100)
	push(101)
	require.NoError(t, c.LTrim(ctx, DefaultKey, 0, 9).Err())

	var got []float64
	for _, m := range drain(t, f) {
		got = append(got, m.CPU)
	}
	assert.Equal(t, []float64{1, 2, 3, 6, 7, 8, 9, 100, 101}, got)
	require.NoError(t, f.Close())
}

func TestRedisFeedEmptyAndBadEntry(t *testing.T) {
	s, c := newRedis(t)
	ctx := context.Background()

	f := NewRedisFeed(s.Addr(), "", 0, "samples")
	_, err := f.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, c.LPush(ctx, "bad", "7", "oops").Err())
	f = NewRedisFeed(s.Addr(), "", 0, "bad")
	m, err := f.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7.0, m.CPU)
	_, err = f.Next(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 2 of bad")
}

func TestRedisFeedCheckFails(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	addr := s.Addr()
	s.Close()

	f := NewRedisFeed(addr, "", 0, "")
	defer f.Close()
	err = f.Check(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping")
}

func TestRedisFeedWrongType(t *testing.T) {
	s, c := newRedis(t)
	require.NoError(t, c.Set(context.Background(), "str", "x", 0).Err())

	f := NewRedisFeed(s.Addr(), "", 0, "str")
	_, err := f.Next(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis llen")
}
