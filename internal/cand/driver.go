// Package cand defines the abstract CAN controller capability the session
// manager commands (§6): install/start/stop/uninstall, bounded-timeout
// transmit/receive, and mode reporting. The physical CAN controller driver
// itself is out of scope per spec.md §1 — only this interface, a
// SocketCAN-backed implementation and an in-memory loopback fake for tests
// live here.
package cand

import (
	"errors"
	"time"

	"github.com/tinycan/slcan-adapter/internal/canframe"
)

// ErrTimeout is returned by Receive when no frame arrives within the
// bounded wait, and by Transmit when the driver cannot accept the frame
// within its bounded-wait submission window (§4.3, §5 suspension points).
var ErrTimeout = errors.New("cand: timeout")

// Mode mirrors the CAN controller mode exposed to the session manager.
type Mode int

const (
	ModeNormal Mode = iota
	ModeListenOnly
)

// Timing is an opaque, driver-specific timing configuration keyed by one of
// the supported bitrates (§3). Only supported rates can be constructed via
// NewTiming; callers never need to know the encoding.
type Timing struct {
	KilobitsPerSec int
}

// SupportedBitrates lists the SLCAN-recognized and adapter-supported rates.
var SupportedBitrates = []int{50, 100, 125, 250, 500, 800, 1000}

// NewTiming returns a Timing for a supported bitrate, or false if kbit is a
// recognized-but-unsupported SLCAN rate (10/20) or not recognized at all.
func NewTiming(kbit int) (Timing, bool) {
	for _, v := range SupportedBitrates {
		if v == kbit {
			return Timing{KilobitsPerSec: kbit}, true
		}
	}
	return Timing{}, false
}

// GeneralConfig carries controller bring-up parameters that are not part of
// bitrate selection (e.g. TX/RX queue depth). The adapter uses an
// accept-all filter unconditionally, per §4.3.
type GeneralConfig struct {
	Interface  string // e.g. "can0"; meaningful to SocketCAN-backed drivers
	TxQueueLen int
	RxQueueLen int
}

// Driver is the abstract CAN controller capability exposed to the Session
// Manager. Implementations must accept Install with an accept-all filter.
type Driver interface {
	Install(general GeneralConfig, timing Timing) error
	Start() error
	Stop() error
	Uninstall() error
	Transmit(f canframe.Frame, timeout time.Duration) error
	Receive(timeout time.Duration) (canframe.Frame, error)
	Mode() Mode
}
