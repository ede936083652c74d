package slcan

import "bytes"

// MaxCmdLen bounds the residual buffer carried between Feed calls: the
// longest legal command is an extended data frame with a full 8-byte
// payload ("T1FFFFFFF81122334455667788\r" — 27 bytes). Timestamp-suffixed
// frame lines are never sent by a host, only emitted by this adapter, so
// they do not enlarge the inbound bound.
const MaxCmdLen = len("T1FFFFFFF81122334455667788\r")

// Splitter reassembles inbound byte chunks into complete SLCAN command
// lines terminated by CR, tolerating an optional trailing LF. It owns the
// residual buffer exclusively, per the ownership rules in the data model.
type Splitter struct {
	buf bytes.Buffer
	// skipLF is set when the last line's CR was the final byte of a chunk,
	// so an LF opening the next chunk is still swallowed as part of CRLF.
	skipLF bool
}

// Feed appends chunk to the residual buffer and returns every complete
// line (including the trailing CR) that can now be extracted. If the
// residual grows to MaxCmdLen without producing a CR, the residual is
// dropped and overflow is reported true so the caller can emit a single
// BEL, per the overflow policy in §4.1.
func (s *Splitter) Feed(chunk []byte) (lines [][]byte, overflow bool) {
	if s.skipLF && len(chunk) > 0 {
		if chunk[0] == '\n' {
			chunk = chunk[1:]
		}
		s.skipLF = false
	}
	s.buf.Write(chunk)
	for {
		data := s.buf.Bytes()
		idx := bytes.IndexByte(data, '\r')
		if idx < 0 {
			break
		}
		line := make([]byte, idx+1)
		copy(line, data[:idx+1])
		lines = append(lines, line)
		s.buf.Next(idx + 1)
		b, err := s.buf.ReadByte()
		s.skipLF = err != nil
		if err == nil && b != '\n' {
			_ = s.buf.UnreadByte()
		}
	}
	if s.buf.Len() >= MaxCmdLen {
		overflow = true
		s.buf.Reset()
	}
	return lines, overflow
}
