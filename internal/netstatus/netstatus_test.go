package netstatus

import "testing"

func TestReporter_JoinLeave(t *testing.T) {
	r := New(Config{SSID: "slcan-adapter", Channel: 6, MaxStations: 2})

	s1 := Station{MAC: [6]byte{1, 2, 3, 4, 5, 6}, AID: 1}
	s2 := Station{MAC: [6]byte{1, 2, 3, 4, 5, 7}, AID: 2}
	r.StationJoined(s1)
	r.StationJoined(s2)

	st := r.Status()
	if st.StationCount != 2 {
		t.Fatalf("station count = %d, want 2", st.StationCount)
	}
	if r.Ready() {
		t.Fatalf("expected not-ready at max stations")
	}

	r.StationLeft(s1.MAC)
	st = r.Status()
	if st.StationCount != 1 {
		t.Fatalf("station count = %d, want 1", st.StationCount)
	}
	if !r.Ready() {
		t.Fatalf("expected ready below max stations")
	}
}

func TestReporter_UnlimitedAlwaysReady(t *testing.T) {
	r := New(Config{SSID: "x"})
	r.StationJoined(Station{MAC: [6]byte{1}, AID: 1})
	if !r.Ready() {
		t.Fatalf("expected ready when MaxStations is unbounded")
	}
}
