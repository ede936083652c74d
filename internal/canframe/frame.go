// Package canframe defines the CAN frame data model shared across the
// adapter: the SLCAN codec, the session manager, and the CAN driver
// abstraction all exchange this type.
package canframe

import "fmt"

// Bit widths for standard and extended CAN identifiers.
const (
	MaxStandardID = 0x7FF    // 11 bits
	MaxExtendedID = 0x1FFFFFFF // 29 bits
	MaxDLC        = 8
)

// Frame is a single CAN frame. Data[:DLC] holds the payload; for RTR frames
// DLC still carries the requested length but no payload bytes are valid.
type Frame struct {
	ID       uint32
	Extended bool
	RTR      bool
	DLC      uint8
	Data     [8]byte
}

// Valid reports whether the frame satisfies the DLC and identifier-width
// invariants from the data model.
func (f Frame) Valid() error {
	if f.DLC > MaxDLC {
		return fmt.Errorf("canframe: dlc %d exceeds %d", f.DLC, MaxDLC)
	}
	if f.Extended {
		if f.ID > MaxExtendedID {
			return fmt.Errorf("canframe: extended id 0x%X exceeds 29 bits", f.ID)
		}
	} else if f.ID > MaxStandardID {
		return fmt.Errorf("canframe: standard id 0x%X exceeds 11 bits", f.ID)
	}
	return nil
}

// Payload returns the valid portion of Data.
func (f Frame) Payload() []byte {
	return f.Data[:f.DLC]
}

// CopyShallow returns a value copy, handy for handing frames across queues
// without aliasing the backing array.
func (f Frame) CopyShallow() Frame {
	var g Frame
	g.ID, g.Extended, g.RTR, g.DLC = f.ID, f.Extended, f.RTR, f.DLC
	copy(g.Data[:], f.Data[:])
	return g
}
