package slcan

import (
	"errors"
	"testing"

	"github.com/tinycan/slcan-adapter/internal/cand"
	"github.com/tinycan/slcan-adapter/internal/canframe"
	"github.com/tinycan/slcan-adapter/internal/session"
)

func newTestDispatcher() (*Dispatcher, *session.Session, *cand.LoopbackDriver) {
	drv := cand.NewLoopbackDriver()
	sess := session.New(drv, cand.GeneralConfig{Interface: "can0"}, session.Hooks{}, nil)
	return NewDispatcher(sess, SerialID{0xAB, 0xCD}), sess, drv
}

func TestDispatch_DecodeErrorIsBEL(t *testing.T) {
	d, _, _ := newTestDispatcher()
	got := d.Dispatch(Command{}, errors.New("boom"))
	if string(got) != "\a" {
		t.Fatalf("got %q, want BEL", got)
	}
}

func TestDispatch_VersionAndSerial(t *testing.T) {
	d, _, _ := newTestDispatcher()
	if got := d.Dispatch(Command{Op: OpVersion}, nil); string(got) != "V0000\r" {
		t.Fatalf("version reply = %q", got)
	}
	if got := d.Dispatch(Command{Op: OpSerial}, nil); string(got) != "NABCD\r" {
		t.Fatalf("serial reply = %q", got)
	}
}

func TestDispatch_ReadFlagsAlwaysBEL(t *testing.T) {
	d, _, _ := newTestDispatcher()
	got := d.Dispatch(Command{Op: OpReadFlags}, nil)
	if string(got) != "\a" {
		t.Fatalf("got %q, want BEL", got)
	}
}

func TestDispatch_FullLifecycle(t *testing.T) {
	d, _, _ := newTestDispatcher()

	if got := d.Dispatch(Command{Op: OpSetBitrate, BitrateDigit: '6'}, nil); string(got) != "\r" {
		t.Fatalf("S6 = %q, want OK", got)
	}
	if got := d.Dispatch(Command{Op: OpOpenNormal}, nil); string(got) != "\r" {
		t.Fatalf("O = %q, want OK", got)
	}
	// Transmitting while already open-normal should succeed, replying z\r
	// for a standard frame per spec.md §4.2/§8.
	frame := Command{Op: OpTxStd, Frame: canframe.Frame{ID: 0x123, DLC: 0}}
	if got := d.Dispatch(frame, nil); string(got) != "z\r" {
		t.Fatalf("t = %q, want z\\r", got)
	}
	if got := d.Dispatch(Command{Op: OpClose}, nil); string(got) != "\r" {
		t.Fatalf("C = %q, want OK", got)
	}
	// Transmitting while closed is rejected.
	if got := d.Dispatch(frame, nil); string(got) != "\a" {
		t.Fatalf("t after close = %q, want BEL", got)
	}
}

func TestDispatch_TransmitRepliesDistinguishStdAndExtended(t *testing.T) {
	d, _, _ := newTestDispatcher()
	d.Dispatch(Command{Op: OpSetBitrate, BitrateDigit: '6'}, nil)
	d.Dispatch(Command{Op: OpOpenNormal}, nil)

	std := Command{Op: OpTxStd, Frame: canframe.Frame{ID: 0x123, DLC: 0}}
	if got := d.Dispatch(std, nil); string(got) != "z\r" {
		t.Fatalf("t = %q, want z\\r", got)
	}
	stdRTR := Command{Op: OpTxStdRTR, Frame: canframe.Frame{ID: 0x123, RTR: true, DLC: 0}}
	if got := d.Dispatch(stdRTR, nil); string(got) != "z\r" {
		t.Fatalf("r = %q, want z\\r", got)
	}
	ext := Command{Op: OpTxExt, Frame: canframe.Frame{ID: 0xABC, Extended: true, DLC: 0}}
	if got := d.Dispatch(ext, nil); string(got) != "Z\r" {
		t.Fatalf("T = %q, want Z\\r", got)
	}
	extRTR := Command{Op: OpTxExtRTR, Frame: canframe.Frame{ID: 0xABC, Extended: true, RTR: true, DLC: 0}}
	if got := d.Dispatch(extRTR, nil); string(got) != "Z\r" {
		t.Fatalf("R = %q, want Z\\r", got)
	}
}

func TestDispatch_UnsupportedBitrateIsBEL(t *testing.T) {
	d, _, _ := newTestDispatcher()
	got := d.Dispatch(Command{Op: OpSetBitrate, BitrateDigit: '0'}, nil)
	if string(got) != "\a" {
		t.Fatalf("got %q, want BEL for unsupported 10kbit rate", got)
	}
}

func TestIsTransmit(t *testing.T) {
	for _, op := range []Opcode{OpTxStd, OpTxExt, OpTxStdRTR, OpTxExtRTR} {
		if !IsTransmit(op) {
			t.Fatalf("%v should be a transmit opcode", op)
		}
	}
	for _, op := range []Opcode{OpSetBitrate, OpOpenNormal, OpVersion} {
		if IsTransmit(op) {
			t.Fatalf("%v should not be a transmit opcode", op)
		}
	}
}
