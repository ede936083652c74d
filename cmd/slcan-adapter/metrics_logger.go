package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tinycan/slcan-adapter/internal/metrics"
	"github.com/tinycan/slcan-adapter/internal/netstatus"
)

// startMetricsLogger periodically logs a metrics snapshot and, when ap is
// non-nil, the access-point status alongside it.
func startMetricsLogger(ctx context.Context, interval time.Duration, l *slog.Logger, ap *netstatus.Reporter, wg *sync.WaitGroup) {
	if interval <= 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				snap := metrics.Snap()
				args := []any{
					"serial_rx", snap.SerialRx,
					"serial_tx", snap.SerialTx,
					"can_rx", snap.CANRx,
					"can_tx", snap.CANTx,
					"malformed", snap.Malformed,
					"frame_drops", snap.FrameDrops,
					"splitter_overflows", snap.Overflows,
				}
				if ap != nil {
					st := ap.Status()
					args = append(args, "ap_ssid", st.SSID, "ap_stations", st.StationCount, "ap_max_stations", st.MaxStations)
				}
				l.Info("metrics_snapshot", args...)
			case <-ctx.Done():
				return
			}
		}
	}()
}
