package slcan

import (
	"fmt"

	"github.com/tinycan/slcan-adapter/internal/canframe"
)

// Opcode identifies a decoded SLCAN command.
type Opcode byte

const (
	OpSetBitrate  Opcode = 'S'
	OpOpenNormal  Opcode = 'O'
	OpOpenListen  Opcode = 'L'
	OpClose       Opcode = 'C'
	OpTxStd       Opcode = 't'
	OpTxExt       Opcode = 'T'
	OpTxStdRTR    Opcode = 'r'
	OpTxExtRTR    Opcode = 'R'
	OpReadFlags   Opcode = 'F'
	OpVersion     Opcode = 'V'
	OpSerial      Opcode = 'N'
)

// Command is a fully decoded SLCAN command line, ready for the session
// manager to apply preconditions and act.
type Command struct {
	Op           Opcode
	BitrateDigit byte // valid for OpSetBitrate: the ASCII digit '0'..'8'
	Frame        canframe.Frame
}

// Decode parses one complete, CR-terminated command line (as produced by
// Splitter.Feed) into a Command. It returns an error for any unrecognized
// opcode or malformed operand, per §4.2 — the caller maps that to a single
// BEL reply without partial side effects.
func Decode(line []byte) (Command, error) {
	if len(line) == 0 || line[len(line)-1] != '\r' {
		return Command{}, fmt.Errorf("slcan: line not CR-terminated")
	}
	if len(line) == 1 { // just CR: empty command
		return Command{}, fmt.Errorf("slcan: empty command")
	}
	op := line[0]
	rest := line[1:]
	switch op {
	case 'S':
		if len(rest) != 2 || rest[1] != '\r' {
			return Command{}, fmt.Errorf("slcan: malformed S command")
		}
		d := rest[0]
		if d < '0' || d > '8' {
			return Command{}, fmt.Errorf("slcan: bad bitrate digit %q", d)
		}
		return Command{Op: OpSetBitrate, BitrateDigit: d}, nil
	case 'O':
		if len(rest) != 1 {
			return Command{}, fmt.Errorf("slcan: malformed O command")
		}
		return Command{Op: OpOpenNormal}, nil
	case 'L':
		if len(rest) != 1 {
			return Command{}, fmt.Errorf("slcan: malformed L command")
		}
		return Command{Op: OpOpenListen}, nil
	case 'C':
		if len(rest) != 1 {
			return Command{}, fmt.Errorf("slcan: malformed C command")
		}
		return Command{Op: OpClose}, nil
	case 't', 'T', 'r', 'R':
		extended := op == 'T' || op == 'R'
		rtr := op == 'r' || op == 'R'
		f, err := decodeFrameOperands(rest, extended, rtr)
		if err != nil {
			return Command{}, err
		}
		var c Command
		switch op {
		case 't':
			c.Op = OpTxStd
		case 'T':
			c.Op = OpTxExt
		case 'r':
			c.Op = OpTxStdRTR
		case 'R':
			c.Op = OpTxExtRTR
		}
		c.Frame = f
		return c, nil
	case 'F':
		if len(rest) != 1 {
			return Command{}, fmt.Errorf("slcan: malformed F command")
		}
		return Command{Op: OpReadFlags}, nil
	case 'V':
		if len(rest) != 1 {
			return Command{}, fmt.Errorf("slcan: malformed V command")
		}
		return Command{Op: OpVersion}, nil
	case 'N':
		if len(rest) != 1 {
			return Command{}, fmt.Errorf("slcan: malformed N command")
		}
		return Command{Op: OpSerial}, nil
	default:
		return Command{}, fmt.Errorf("slcan: unrecognized opcode %q", op)
	}
}

// Bitrate maps an S-command digit to its kbit/s rate. ok is false for
// digits that are syntactically valid SLCAN input ('0','1') but denote an
// unsupported rate (10/20 kbit/s).
func Bitrate(digit byte) (kbit int, ok bool) {
	switch digit {
	case '0':
		return 10, false
	case '1':
		return 20, false
	case '2':
		return 50, true
	case '3':
		return 100, true
	case '4':
		return 125, true
	case '5':
		return 250, true
	case '6':
		return 500, true
	case '7':
		return 800, true
	case '8':
		return 1000, true
	default:
		return 0, false
	}
}
