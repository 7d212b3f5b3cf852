package feed

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/l33tquant/ta-statistics/internal/model"
)

// LineFeed reads one sample per line. Blank lines and lines starting with '#'
// are skipped.
type LineFeed struct {
	r       io.Reader
	scanner *bufio.Scanner
	line    int
}

func NewLineFeed(r io.Reader) *LineFeed {
	return &LineFeed{r: r, scanner: bufio.NewScanner(r)}
}

// Next returns the next sample, or io.EOF once the reader is drained. The
// context is checked between lines only; a read blocked on an idle reader
// ends when the next line or EOF arrives.
func (f *LineFeed) Next(ctx context.Context) (model.Sample, error) {
	for f.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return model.Sample{}, err
		}
		f.line++
		raw := f.scanner.Bytes()
		if isBlank(raw) || raw[0] == '#' {
			continue
		}
		m, err := decodeSample(raw)
		if err != nil {
			return model.Sample{}, fmt.Errorf("line %d: %w", f.line, err)
		}
		return m, nil
	}
	if err := f.scanner.Err(); err != nil {
		return model.Sample{}, fmt.Errorf("read line %d: %w", f.line+1, err)
	}
	return model.Sample{}, io.EOF
}

func (f *LineFeed) Close() error {
	if c, ok := f.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func isBlank(b []byte) bool {
	for _, c := range b {
		if c != ' ' && c != '\t' && c != '\r' {
			return false
		}
	}
	return true
}
