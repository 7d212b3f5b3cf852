package feed

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/l33tquant/ta-statistics/internal/model"
)

// DefaultKey is the list the ingest service appends to with LPUSH, newest
// first.
const DefaultKey = "metrics:recent"

const defaultPageSize = 256

// RedisFeed replays a Redis list oldest to newest. It reads from the tail
// with negative indexes, so samples pushed at the head while replaying do not
// shift the cursor. Trimming the tail does: an LTRIM running alongside the
// replay drops old entries and the cursor skips as many samples. Only the
// entries present at the first Next are replayed.
type RedisFeed struct {
	client   *redis.Client
	key      string
	pageSize int64

	total   int64
	started bool
	pos     int64
	page    []string
}

func NewRedisFeed(addr, password string, db int, key string) *RedisFeed {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if key == "" {
		key = DefaultKey
	}
	return &RedisFeed{client: client, key: key, pageSize: defaultPageSize}
}

// Check pings the server, retrying with exponential backoff up to retries
// times.
func (f *RedisFeed) Check(ctx context.Context, retries uint64) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 2 * time.Second

	err := backoff.Retry(func() error {
		return f.client.Ping(ctx).Err()
	}, backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx))
	if err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (f *RedisFeed) Next(ctx context.Context) (model.Sample, error) {
	if !f.started {
		n, err := f.client.LLen(ctx, f.key).Result()
		if err != nil {
			return model.Sample{}, fmt.Errorf("redis llen: %w", err)
		}
		f.total = n
		f.started = true
	}

	if len(f.page) == 0 {
		if f.pos >= f.total {
			return model.Sample{}, io.EOF
		}
		if err := f.fill(ctx); err != nil {
			return model.Sample{}, err
		}
	}

	raw := f.page[0]
	f.page = f.page[1:]
	f.pos++

	m, err := decodeSample([]byte(raw))
	if err != nil {
		return model.Sample{}, fmt.Errorf("entry %d of %s: %w", f.pos, f.key, err)
	}
	return m, nil
}

func (f *RedisFeed) fill(ctx context.Context) error {
	count := min(f.pageSize, f.total-f.pos)
	start, stop := -(f.pos + count), -(f.pos + 1)

	values, err := f.client.LRange(ctx, f.key, start, stop).Result()
	if err != nil {
		return fmt.Errorf("redis lrange: %w", err)
	}
	if len(values) == 0 {
		// The list was trimmed under us.
		f.total = f.pos
		return io.EOF
	}
	slices.Reverse(values)
	f.page = values
	return nil
}

func (f *RedisFeed) Close() error {
	return f.client.Close()
}
