package canframe

import "testing"

func TestFrame_Valid(t *testing.T) {
	cases := []struct {
		name string
		f    Frame
		ok   bool
	}{
		{"std ok", Frame{ID: 0x7FF, DLC: 8}, true},
		{"std too wide", Frame{ID: 0x800, DLC: 0}, false},
		{"ext ok", Frame{ID: MaxExtendedID, Extended: true, DLC: 4}, true},
		{"ext too wide", Frame{ID: MaxExtendedID + 1, Extended: true}, false},
		{"dlc too big", Frame{ID: 1, DLC: 9}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.f.Valid()
			if (err == nil) != c.ok {
				t.Fatalf("Valid() = %v, want ok=%v", err, c.ok)
			}
		})
	}
}

func TestFrame_Payload(t *testing.T) {
	f := Frame{DLC: 3, Data: [8]byte{1, 2, 3, 4}}
	got := f.Payload()
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("Payload() = %v", got)
	}
}

func TestFrame_CopyShallow_Independent(t *testing.T) {
	f := Frame{ID: 5, DLC: 2, Data: [8]byte{0xAA, 0xBB}}
	g := f.CopyShallow()
	g.Data[0] = 0xFF
	if f.Data[0] != 0xAA {
		t.Fatalf("copy aliased original")
	}
}
