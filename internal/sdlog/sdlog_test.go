package sdlog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tinycan/slcan-adapter/internal/canframe"
)

func TestLogger_HeaderAndRow(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f := canframe.Frame{ID: 0x123, DLC: 2, Data: [8]byte{0xAB, 0xCD}}
	if err := l.Log(f); err != nil {
		t.Fatalf("Log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (header + row): %q", len(lines), buf.String())
	}
	if lines[0] != "timestamp_ms,id,extended,rtr,dlc,data" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "123,false,false,2,ABCD") {
		t.Fatalf("unexpected row: %q", lines[1])
	}
}

func TestLogger_ClosedRejectsLog(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := l.Log(canframe.Frame{ID: 1}); err == nil {
		t.Fatalf("expected error logging after close")
	}
}
