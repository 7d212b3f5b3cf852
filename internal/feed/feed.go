// Package feed supplies samples to the analyzer from a line-oriented stream
// or from the Redis list the ingest service maintains.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"

	"github.com/l33tquant/ta-statistics/internal/model"
)

// Feed yields samples in arrival order. Next returns io.EOF once the source
// is drained.
type Feed interface {
	Next(ctx context.Context) (model.Sample, error)
	Close() error
}

// decodeSample accepts a JSON sample object or a bare number, which is taken
// as the CPU reading.
func decodeSample(raw []byte) (model.Sample, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var m model.Sample
		if err := json.Unmarshal(raw, &m); err != nil {
			return model.Sample{}, fmt.Errorf("unmarshal sample: %w", err)
		}
		return m, nil
	}

	v, err := cast.ToFloat64E(string(raw))
	if err != nil {
		return model.Sample{}, fmt.Errorf("parse value %q: %w", raw, err)
	}
	return model.Sample{CPU: v}, nil
}
