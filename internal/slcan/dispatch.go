package slcan

import (
	"github.com/tinycan/slcan-adapter/internal/cand"
	"github.com/tinycan/slcan-adapter/internal/session"
)

// SerialID supplies the two bytes the N command reply is derived from
// (spec.md §6: "the low two bytes of the device's hardware address").
type SerialID [2]byte

// Dispatcher is the Parser/Dispatcher (C2): it enforces each command's
// precondition against the session and renders the outcome as one of the
// three reply shapes (§4.2, §4.5). It holds no protocol state of its own —
// the session is the sole source of truth for FSM state.
type Dispatcher struct {
	session  *session.Session
	serialID SerialID
}

// NewDispatcher builds a Dispatcher driving sess, replying to N with the
// hex encoding of serialID.
func NewDispatcher(sess *session.Session, serialID SerialID) *Dispatcher {
	return &Dispatcher{session: sess, serialID: serialID}
}

// Dispatch executes one decoded command against the session and returns the
// wire reply. decodeErr, if non-nil, means Decode already rejected the
// line; Dispatch maps that straight to a bare BEL without touching the
// session, per §4.2's "single BEL reply without partial side effects".
func (d *Dispatcher) Dispatch(cmd Command, decodeErr error) []byte {
	if decodeErr != nil {
		return EncodeError()
	}
	switch cmd.Op {
	case OpSetBitrate:
		kbit, recognized := Bitrate(cmd.BitrateDigit)
		if err := d.session.SetBitrate(kbit, recognized); err != nil {
			return EncodeError()
		}
		return EncodeOK()
	case OpOpenNormal:
		if err := d.session.Open(cand.ModeNormal); err != nil {
			return EncodeError()
		}
		return EncodeOK()
	case OpOpenListen:
		if err := d.session.Open(cand.ModeListenOnly); err != nil {
			return EncodeError()
		}
		return EncodeOK()
	case OpClose:
		if err := d.session.Close(); err != nil {
			return EncodeError()
		}
		return EncodeOK()
	case OpTxStd, OpTxStdRTR:
		if err := d.session.Transmit(cmd.Frame); err != nil {
			return EncodeError()
		}
		return EncodeOKData([]byte("z"))
	case OpTxExt, OpTxExtRTR:
		if err := d.session.Transmit(cmd.Frame); err != nil {
			return EncodeError()
		}
		return EncodeOKData([]byte("Z"))
	case OpReadFlags:
		// Status-flag reporting is left unimplemented, per the Open
		// Question decision in SPEC_FULL.md §6: always BEL.
		return EncodeError()
	case OpVersion:
		return EncodeOKData([]byte(VersionReply))
	case OpSerial:
		return EncodeOKData(SerialReply(d.serialID))
	default:
		return EncodeError()
	}
}

// IsTransmit reports whether op is one of the four frame-transmit opcodes,
// letting callers attribute transmit-path metrics without re-deciding the
// opcode grammar.
func IsTransmit(op Opcode) bool {
	switch op {
	case OpTxStd, OpTxExt, OpTxStdRTR, OpTxExtRTR:
		return true
	default:
		return false
	}
}
