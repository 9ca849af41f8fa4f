package ui

import (
	"io"
	"time"
)

// TimestampWriter wraps an io.Writer and prepends a timestamp to each write.
// This is used to add timestamps at the final log destination.
type TimestampWriter struct {
	w io.Writer
}

// NewTimestampWriter creates a new TimestampWriter that wraps the given writer.
func NewTimestampWriter(w io.Writer) *TimestampWriter {
	return &TimestampWriter{w: w}
}

func (tw *TimestampWriter) Write(p []byte) (int, error) {
	timestamp := time.Now().Format("2006-01-02T15:04:05.000")
	prefixed := "[" + timestamp + "] " + string(p)
	n, err := tw.w.Write([]byte(prefixed))
	if err != nil {
		return 0, err
	}
	// Return original length since caller expects that
	if n > 0 {
		return len(p), nil
	}
	return 0, nil
}

// Sync forwards sync to underlying writer if it supports it.
func (tw *TimestampWriter) Sync() error {
	if s, ok := tw.w.(syncer); ok {
		return s.Sync()
	}
	return nil
}

// Close forwards close to underlying writer if it supports it.
func (tw *TimestampWriter) Close() error {
	if c, ok := tw.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var _ io.WriteCloser = (*TimestampWriter)(nil)
