// Package slcan implements the LAWICEL SLCAN ASCII line protocol: splitting
// inbound byte chunks into command lines (C1), decoding/encoding those
// lines (C2 grammar, C4 frame codec), and the three reply shapes used by
// the response encoder (C5).
package slcan

import (
	"fmt"

	"github.com/tinycan/slcan-adapter/internal/canframe"
)

// frameOpcode returns the wire opcode byte for f, matching the original
// firmware's slcanFormatFrame: t/T for data, r/R for remote request,
// selected by the extended and RTR flags.
func frameOpcode(f canframe.Frame) byte {
	switch {
	case f.Extended && f.RTR:
		return 'R'
	case f.Extended:
		return 'T'
	case f.RTR:
		return 'r'
	default:
		return 't'
	}
}

// EncodeFrame renders f as an SLCAN frame line. When withTimestamp is true,
// a 4-hex-digit millisecond timestamp (low 16 bits of timestampMs) is
// appended before the terminating CR, per the optional off-by-default
// timestamp feature.
func EncodeFrame(f canframe.Frame, withTimestamp bool, timestampMs uint16) []byte {
	idDigits := 3
	if f.Extended {
		idDigits = 8
	}
	size := 1 + idDigits + 1 + 1 // opcode + id + dlc + CR
	if !f.RTR {
		size += int(f.DLC) * 2
	}
	if withTimestamp {
		size += 4
	}
	out := make([]byte, 0, size)
	out = append(out, frameOpcode(f))
	out = appendHexID(out, f.ID, idDigits)
	out = append(out, hexUpper[f.DLC&0xF])
	if !f.RTR {
		for _, b := range f.Payload() {
			out = append(out, hexUpper[b>>4], hexUpper[b&0xF])
		}
	}
	if withTimestamp {
		out = appendHexID(out, uint32(timestampMs), 4)
	}
	out = append(out, '\r')
	return out
}

func appendHexID(out []byte, id uint32, digits int) []byte {
	for i := digits - 1; i >= 0; i-- {
		nibble := byte(id>>(uint(i)*4)) & 0xF
		out = append(out, hexUpper[nibble])
	}
	return out
}

// decodeFrameOperands parses the identifier/DLC/payload portion of a t/T/r/R
// line (everything after the opcode byte, including the terminating CR),
// per the grammar in §4.2. rtr indicates whether payload digits are absent.
func decodeFrameOperands(rest []byte, extended, rtr bool) (canframe.Frame, error) {
	idDigits := 3
	maxID := uint32(canframe.MaxStandardID)
	if extended {
		idDigits = 8
		maxID = canframe.MaxExtendedID
	}
	// rest must hold: id digits + 1 dlc digit + CR, at minimum.
	minLen := idDigits + 1 + 1
	if len(rest) < minLen {
		return canframe.Frame{}, fmt.Errorf("slcan: short frame line")
	}
	id, err := decodeHexRun(rest, idDigits)
	if err != nil {
		return canframe.Frame{}, err
	}
	if id > maxID {
		return canframe.Frame{}, fmt.Errorf("slcan: identifier 0x%X exceeds declared width", id)
	}
	dlcDigit, err := decodeHex(rest[idDigits])
	if err != nil {
		return canframe.Frame{}, err
	}
	if dlcDigit > canframe.MaxDLC {
		return canframe.Frame{}, fmt.Errorf("slcan: dlc %d exceeds %d", dlcDigit, canframe.MaxDLC)
	}

	f := canframe.Frame{ID: id, Extended: extended, RTR: rtr, DLC: dlcDigit}
	payloadStart := idDigits + 1
	if rtr {
		if len(rest) < payloadStart+1 || rest[payloadStart] != '\r' {
			return canframe.Frame{}, fmt.Errorf("slcan: trailing data on RTR frame line")
		}
		return f, nil
	}
	need := payloadStart + int(dlcDigit)*2 + 1 // + CR
	if len(rest) < need {
		return canframe.Frame{}, fmt.Errorf("slcan: short payload, want %d data hex digits", int(dlcDigit)*2)
	}
	for i := 0; i < int(dlcDigit); i++ {
		b, err := decodeHexRun(rest[payloadStart+i*2:], 2)
		if err != nil {
			return canframe.Frame{}, err
		}
		f.Data[i] = byte(b)
	}
	if rest[need-1] != '\r' {
		return canframe.Frame{}, fmt.Errorf("slcan: frame line not CR-terminated")
	}
	return f, nil
}
