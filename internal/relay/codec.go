package relay

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/tinycan/slcan-adapter/internal/canframe"
)

// ErrInvalidLength is returned when a wire frame's DLC byte is out of range.
var ErrInvalidLength = errors.New("relay: invalid length")

// ErrTruncatedFrame is returned when the connection ends mid-frame.
var ErrTruncatedFrame = errors.New("relay: truncated frame")

// Codec is the relay wire format: a 4-byte big-endian identifier (top bit
// set for extended, per SocketCAN convention) followed by one length byte
// and up to 8 payload bytes, grounded on the teacher's internal/cnl.Codec.
// It is stateless and safe for concurrent use.
type Codec struct{}

const extendedFlag = 0x80000000

// EncodeTo writes the wire representation of frames to w and returns the
// number of bytes written.
func (Codec) EncodeTo(w io.Writer, frames []canframe.Frame) (int, error) {
	var total int
	for _, f := range frames {
		id := f.ID
		if f.Extended {
			id |= extendedFlag
		}
		var hdr [5]byte
		binary.BigEndian.PutUint32(hdr[:4], id)
		hdr[4] = f.DLC
		n, err := w.Write(hdr[:])
		total += n
		if err != nil {
			return total, fmt.Errorf("relay encode header: %w", err)
		}
		if f.DLC > 0 {
			n, err = w.Write(f.Payload())
			total += n
			if err != nil {
				return total, fmt.Errorf("relay encode payload: %w", err)
			}
		}
	}
	return total, nil
}

// Decode reads exactly one frame from r. Relay clients are read-only
// monitors (spec.md's non-goal on a second bus), so a Server never calls
// this in the accepted-connection path, but it is provided for symmetry and
// exercised directly by tests.
func (Codec) Decode(r io.Reader) (canframe.Frame, error) {
	var f canframe.Frame
	var hdr [5]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return f, err
	}
	raw := binary.BigEndian.Uint32(hdr[:4])
	f.Extended = raw&extendedFlag != 0
	f.ID = raw &^ extendedFlag
	dlc := hdr[4]
	if dlc > canframe.MaxDLC {
		return f, fmt.Errorf("relay decode: %w (%d)", ErrInvalidLength, dlc)
	}
	f.DLC = dlc
	if dlc > 0 {
		if _, err := io.ReadFull(r, f.Data[:dlc]); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return f, fmt.Errorf("relay decode payload: %w", ErrTruncatedFrame)
			}
			return f, fmt.Errorf("relay decode payload: %w", err)
		}
	}
	return f, nil
}
