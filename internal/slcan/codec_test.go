package slcan

import (
	"bytes"
	"testing"

	"github.com/tinycan/slcan-adapter/internal/canframe"
)

func TestEncodeFrame_Boundaries(t *testing.T) {
	cases := []struct {
		name string
		f    canframe.Frame
		want string
	}{
		{"std dlc0", canframe.Frame{ID: 0x123, DLC: 0}, "t1230\r"},
		{"std dlc3", canframe.Frame{ID: 0x7E8, DLC: 3, Data: [8]byte{0x41, 0x0C, 0x1A}}, "t7E83410C1A\r"},
		{"ext all bits", canframe.Frame{ID: canframe.MaxExtendedID, Extended: true, DLC: 0}, "T1FFFFFFF0\r"},
		{"ext data", canframe.Frame{ID: 0x00000ABC, Extended: true, DLC: 4, Data: [8]byte{0xDE, 0xAD, 0xBE, 0xEF}}, "T00000ABC4DEADBEEF\r"},
		{"std rtr", canframe.Frame{ID: 0x123, RTR: true, DLC: 0}, "r1230\r"},
		{"ext rtr", canframe.Frame{ID: 0x123, Extended: true, RTR: true, DLC: 2}, "R000001232\r"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := EncodeFrame(c.f, false, 0)
			if string(got) != c.want {
				t.Fatalf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestEncodeFrame_Timestamp(t *testing.T) {
	f := canframe.Frame{ID: 0x123, DLC: 0}
	got := EncodeFrame(f, true, 0xBEEF)
	want := "t1230BEEF\r"
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDecodeEncode_RoundTrip(t *testing.T) {
	for dlc := 0; dlc <= 8; dlc++ {
		f := canframe.Frame{ID: 0x321, Extended: true, DLC: uint8(dlc)}
		for i := 0; i < dlc; i++ {
			f.Data[i] = byte(0x10 + i)
		}
		line := EncodeFrame(f, false, 0)
		cmd, err := Decode(line)
		if err != nil {
			t.Fatalf("dlc=%d decode error: %v", dlc, err)
		}
		got := cmd.Frame
		if got.ID != f.ID || got.Extended != f.Extended || got.RTR != f.RTR || got.DLC != f.DLC {
			t.Fatalf("dlc=%d round-trip mismatch: got %+v want %+v", dlc, got, f)
		}
		if !bytes.Equal(got.Payload(), f.Payload()) {
			t.Fatalf("dlc=%d payload mismatch: got % X want % X", dlc, got.Payload(), f.Payload())
		}
	}
}

func TestDecode_FrameLines(t *testing.T) {
	cases := []struct {
		line string
		op   Opcode
		id   uint32
		ext  bool
		rtr  bool
		dlc  uint8
	}{
		{"t1230\r", OpTxStd, 0x123, false, false, 0},
		{"T00000ABC4DEADBEEF\r", OpTxExt, 0x00000ABC, true, false, 4},
		{"r1230\r", OpTxStdRTR, 0x123, false, true, 0},
		{"R000001235\r", OpTxExtRTR, 0x123, true, true, 5},
	}
	for _, c := range cases {
		cmd, err := Decode([]byte(c.line))
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", c.line, err)
		}
		if cmd.Op != c.op || cmd.Frame.ID != c.id || cmd.Frame.Extended != c.ext || cmd.Frame.RTR != c.rtr || cmd.Frame.DLC != c.dlc {
			t.Fatalf("%q: got %+v", c.line, cmd)
		}
	}
}

func TestDecode_MalformedFrameLines(t *testing.T) {
	bad := []string{
		"t1FF\r",             // missing DLC
		"t1FF9\r",             // DLC > 8
		"t1FF2AA\r",           // payload short (need 4 hex digits)
		"T1FFFFFFF\r",         // missing DLC (short extended)
		"tGGG0\r",             // invalid hex in id
		"",                    // empty
		"t123",                // no CR
		"Q\r",                 // unrecognized opcode
	}
	for _, line := range bad {
		if _, err := Decode([]byte(line)); err == nil {
			t.Fatalf("%q: expected error, got none", line)
		}
	}
}

func TestDecode_CaseInsensitiveHex(t *testing.T) {
	cmd, err := Decode([]byte("t1ff0\r"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Frame.ID != 0x1FF {
		t.Fatalf("got id 0x%X", cmd.Frame.ID)
	}
}

func TestBitrate_Table(t *testing.T) {
	cases := map[byte]struct {
		kbit int
		ok   bool
	}{
		'0': {10, false},
		'1': {20, false},
		'2': {50, true},
		'6': {500, true},
		'8': {1000, true},
	}
	for digit, want := range cases {
		kbit, ok := Bitrate(digit)
		if kbit != want.kbit || ok != want.ok {
			t.Fatalf("digit %q: got (%d,%v), want (%d,%v)", digit, kbit, ok, want.kbit, want.ok)
		}
	}
}
