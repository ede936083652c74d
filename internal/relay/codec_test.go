package relay

import (
	"bytes"
	"testing"

	"github.com/tinycan/slcan-adapter/internal/canframe"
)

func mkFrame(id uint32, extended bool, n int) canframe.Frame {
	f := canframe.Frame{ID: id, Extended: extended, DLC: uint8(n)}
	for i := 0; i < n; i++ {
		f.Data[i] = byte(i + 1)
	}
	return f
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := Codec{}
	in := []canframe.Frame{
		mkFrame(0x1E5, false, 8),
		mkFrame(0x1FFFF, true, 6),
		mkFrame(0x12345, true, 0),
	}
	var buf bytes.Buffer
	if _, err := codec.EncodeTo(&buf, in); err != nil {
		t.Fatalf("EncodeTo: %v", err)
	}
	for i, want := range in {
		got, err := codec.Decode(&buf)
		if err != nil {
			t.Fatalf("Decode frame %d: %v", i, err)
		}
		if got.ID != want.ID || got.Extended != want.Extended || got.DLC != want.DLC {
			t.Fatalf("frame %d mismatch: got %+v want %+v", i, got, want)
		}
		if string(got.Payload()) != string(want.Payload()) {
			t.Fatalf("frame %d payload mismatch", i)
		}
	}
}

func TestCodec_DecodeErrors(t *testing.T) {
	codec := Codec{}

	var badLen bytes.Buffer
	badLen.Write([]byte{0, 0, 0, 1})
	badLen.WriteByte(9) // > MaxDLC
	if _, err := codec.Decode(&badLen); err == nil {
		t.Fatalf("expected error for invalid length")
	}

	var trunc bytes.Buffer
	trunc.Write([]byte{0, 0, 0, 2})
	trunc.WriteByte(5)
	trunc.Write([]byte{1, 2, 3})
	if _, err := codec.Decode(&trunc); err == nil {
		t.Fatalf("expected truncated error")
	}
}
