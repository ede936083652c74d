// Package sdlog implements the optional append-only CSV frame logger
// (SPEC_FULL.md §4.7), supplementing spec.md §1's "auxiliary peripheral...
// not part of the protocol path" note. It is recovered from
// original_source/main/sd.c (an SD-card mount), reimagined as a Go-native
// io.Writer sink: the card/filesystem bring-up that file performs is a
// platform concern out of scope here, but the shape it existed for — an
// append-only log of every frame the bus carries — is not, so this package
// gives it a home behind a plain io.Writer the caller points at a file.
//
// It is never on the protocol's critical path: the receive pump invokes it,
// if configured, purely as a side effect. Unlike the teacher's
// internal/server/writer.go batched-flush pattern there is no ticker: every
// row is flushed as it is logged, and Close flushes once more. It uses
// csv.Writer because the data here is a
// flat tabular log rather than a binary wire format, and encoding/csv is
// the standard library's own answer to that — no third-party CSV library
// appears anywhere in the retrieval pack to prefer instead.
package sdlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/tinycan/slcan-adapter/internal/canframe"
)

// Logger appends one CSV row per frame: a monotonic millisecond timestamp,
// the identifier (hex), extended/RTR flags, DLC, and hex payload.
type Logger struct {
	mu     sync.Mutex
	w      *csv.Writer
	closed bool
	start  time.Time
}

// New wraps w as a frame logger, writing a header row immediately.
func New(w io.Writer) (*Logger, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp_ms", "id", "extended", "rtr", "dlc", "data"}); err != nil {
		return nil, fmt.Errorf("sdlog: write header: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("sdlog: flush header: %w", err)
	}
	return &Logger{w: cw, start: time.Now()}, nil
}

// Log appends one row for f. It is safe for concurrent use; callers
// typically invoke it from the session receive-pump callback.
func (l *Logger) Log(f canframe.Frame) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return fmt.Errorf("sdlog: logger closed")
	}
	ts := time.Since(l.start).Milliseconds()
	data := ""
	for _, b := range f.Payload() {
		data += fmt.Sprintf("%02X", b)
	}
	row := []string{
		strconv.FormatInt(ts, 10),
		fmt.Sprintf("%X", f.ID),
		strconv.FormatBool(f.Extended),
		strconv.FormatBool(f.RTR),
		strconv.Itoa(int(f.DLC)),
		data,
	}
	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("sdlog: write row: %w", err)
	}
	l.w.Flush()
	return l.w.Error()
}

// Close flushes and marks the logger closed; further Log calls error out.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.w.Flush()
	return l.w.Error()
}
