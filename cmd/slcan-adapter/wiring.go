package main

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/tinycan/slcan-adapter/internal/cand"
	"github.com/tinycan/slcan-adapter/internal/canframe"
	"github.com/tinycan/slcan-adapter/internal/metrics"
	"github.com/tinycan/slcan-adapter/internal/session"
	"github.com/tinycan/slcan-adapter/internal/slcan"
	"github.com/tinycan/slcan-adapter/internal/transport"
)

// openTransport opens the configured physical serial transport, grounded
// on the teacher's cmd/can-server/backend.go backend-selection switch.
func openTransport(cfg *appConfig) (transport.Port, error) {
	switch cfg.transport {
	case "bluetooth":
		conn, err := net.Dial("tcp", cfg.serialDev) // placeholder RFCOMM dial surface
		if err != nil {
			return nil, fmt.Errorf("bluetooth dial %q: %w", cfg.serialDev, err)
		}
		return transport.OpenBluetoothSPP(conn)
	default:
		return transport.OpenUART(cfg.serialDev, cfg.baud, cfg.serialReadTO)
	}
}

// serialIDFromMAC derives the two bytes the N command reports from the low
// two bytes of the first interface's hardware address with one available,
// per spec.md §6; a zeroed SerialID results if none is found.
func serialIDFromMAC() slcan.SerialID {
	ifaces, err := net.Interfaces()
	if err != nil {
		return slcan.SerialID{}
	}
	for _, ifi := range ifaces {
		if n := len(ifi.HardwareAddr); n >= 2 {
			return slcan.SerialID{ifi.HardwareAddr[n-2], ifi.HardwareAddr[n-1]}
		}
	}
	return slcan.SerialID{}
}

// initSession builds the session manager around a SocketCAN-backed driver,
// wired with hooks that log transitions/driver errors and count them in
// metrics, grounded on the teacher's hub_init.go wiring style. onFrame is
// the receive-pump callback (bridge.Bridge.FrameReceived in practice).
func initSession(cfg *appConfig, l *slog.Logger, onFrame func(canframe.Frame)) *session.Session {
	drv := cand.NewSocketCANDriver()
	general := cand.GeneralConfig{Interface: cfg.canInterface}
	hooks := session.Hooks{
		OnTransition: func(from, to session.State) {
			metrics.IncTransition(to.String())
			l.Info("session_transition", "from", from.String(), "to", to.String())
		},
		OnFrameIn: onFrame,
		OnDriverErr: func(err error) {
			metrics.IncDriverError("pump")
			l.Warn("cand_driver_error", "error", err)
		},
	}
	return session.New(drv, general, hooks, l)
}
