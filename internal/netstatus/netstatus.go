// Package netstatus implements the optional access-point status reporter
// (SPEC_FULL.md §4.7), supplementing spec.md §1's note that network bring-up
// is an out-of-scope auxiliary peripheral. It is recovered from
// original_source/main/wifi.c (an ESP32 SoftAP with station join/leave
// events); this package reimagines only the status-reporting shape — it
// does not bring up a radio, since this core has none to own — as a small
// station-tracking reporter the main binary can fold into its /ready
// endpoint or structured logs, grounded on the teacher's hub.Add/Remove
// connected-count idiom.
package netstatus

import (
	"sync"

	"github.com/tinycan/slcan-adapter/internal/logging"
)

// Config mirrors the original firmware's static AP configuration
// (original_source/main/wifi.c's WIFI_AP_* constants), kept here purely as
// reportable status, not as bring-up parameters.
type Config struct {
	SSID        string
	Channel     int
	MaxStations int
}

// Station identifies one associated client by its hardware address and
// association ID, mirroring wifi_event_ap_staconnected_t.
type Station struct {
	MAC [6]byte
	AID int
}

// Reporter tracks currently associated stations and exposes a status
// snapshot. It never touches a radio; StationJoined/StationLeft are called
// by whatever component owns the actual network bring-up, if any.
type Reporter struct {
	mu       sync.RWMutex
	cfg      Config
	stations map[[6]byte]Station
}

// New creates a Reporter advertising cfg in its Status snapshots.
func New(cfg Config) *Reporter {
	return &Reporter{cfg: cfg, stations: make(map[[6]byte]Station)}
}

// StationJoined records a newly associated station, per the
// WIFI_EVENT_AP_STACONNECTED case in original_source/main/wifi.c.
func (r *Reporter) StationJoined(s Station) {
	r.mu.Lock()
	r.stations[s.MAC] = s
	n := len(r.stations)
	r.mu.Unlock()
	logging.L().Info("netstatus_station_joined", "aid", s.AID, "stations", n)
}

// StationLeft removes a station, per WIFI_EVENT_AP_STADISCONNECTED.
func (r *Reporter) StationLeft(mac [6]byte) {
	r.mu.Lock()
	delete(r.stations, mac)
	n := len(r.stations)
	r.mu.Unlock()
	logging.L().Info("netstatus_station_left", "stations", n)
}

// Status is a point-in-time snapshot suitable for a readiness/status
// endpoint.
type Status struct {
	SSID         string
	Channel      int
	MaxStations  int
	StationCount int
}

// Status returns the current snapshot.
func (r *Reporter) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Status{
		SSID:         r.cfg.SSID,
		Channel:      r.cfg.Channel,
		MaxStations:  r.cfg.MaxStations,
		StationCount: len(r.stations),
	}
}

// Ready reports whether the access point has capacity for another station;
// used as a metrics.SetReadinessFunc candidate when netstatus is enabled.
func (r *Reporter) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg.MaxStations <= 0 || len(r.stations) < r.cfg.MaxStations
}
