package slcan

import (
	"bytes"
	"testing"
)

func feedAll(chunks [][]byte) [][]byte {
	var s Splitter
	var lines [][]byte
	for _, c := range chunks {
		got, _ := s.Feed(c)
		lines = append(lines, got...)
	}
	return lines
}

func TestSplitter_ChunkedVsByteByByte(t *testing.T) {
	stream := []byte("S6\rO\rt1230\r")

	whole := feedAll([][]byte{stream})

	var byByte [][]byte
	for i := range stream {
		byByte = append(byByte, []byte{stream[i]})
	}
	perByte := feedAll(byByte)

	if len(whole) != len(perByte) {
		t.Fatalf("line counts differ: %d vs %d", len(whole), len(perByte))
	}
	for i := range whole {
		if !bytes.Equal(whole[i], perByte[i]) {
			t.Fatalf("line %d differs: %q vs %q", i, whole[i], perByte[i])
		}
	}
}

func TestSplitter_CRLF_OneCommand(t *testing.T) {
	var s Splitter
	lines, overflow := s.Feed([]byte("t1FF0\r\n"))
	if overflow {
		t.Fatalf("unexpected overflow")
	}
	if len(lines) != 1 || !bytes.Equal(lines[0], []byte("t1FF0\r")) {
		t.Fatalf("got %q", lines)
	}
}

func TestSplitter_SplitAcrossChunks(t *testing.T) {
	var s Splitter
	lines1, _ := s.Feed([]byte("t1F"))
	if len(lines1) != 0 {
		t.Fatalf("expected no complete line yet, got %q", lines1)
	}
	lines2, _ := s.Feed([]byte("F0\r"))
	if len(lines2) != 1 || !bytes.Equal(lines2[0], []byte("t1FF0\r")) {
		t.Fatalf("got %q", lines2)
	}
}

func TestSplitter_Overflow_DropsResidual(t *testing.T) {
	var s Splitter
	junk := bytes.Repeat([]byte("A"), MaxCmdLen)
	_, overflow := s.Feed(junk)
	if !overflow {
		t.Fatalf("expected overflow")
	}
	// residual discarded; a subsequent well-formed command parses cleanly
	lines, overflow2 := s.Feed([]byte("V\r"))
	if overflow2 {
		t.Fatalf("unexpected second overflow")
	}
	if len(lines) != 1 || !bytes.Equal(lines[0], []byte("V\r")) {
		t.Fatalf("got %q", lines)
	}
}

func TestSplitter_MultipleCommandsOneChunk(t *testing.T) {
	var s Splitter
	lines, _ := s.Feed([]byte("S6\rO\rC\r"))
	want := []string{"S6\r", "O\r", "C\r"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(lines), len(want))
	}
	for i, w := range want {
		if string(lines[i]) != w {
			t.Fatalf("line %d = %q, want %q", i, lines[i], w)
		}
	}
}
