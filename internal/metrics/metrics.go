// Package metrics exposes Prometheus counters/gauges for the adapter,
// grounded on the teacher's internal/metrics package (same promauto/
// promhttp wiring), relabeled for the SLCAN domain per SPEC_FULL.md §2.
package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tinycan/slcan-adapter/internal/logging"
)

// Prometheus counters and gauges.
var (
	SerialRxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slcan_serial_rx_frames_total",
		Help: "Total CAN frames decoded from inbound SLCAN lines.",
	})
	SerialTxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slcan_serial_tx_frames_total",
		Help: "Total CAN frames encoded to outbound SLCAN lines.",
	})
	CANRxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slcan_can_rx_frames_total",
		Help: "Total CAN frames received from the CAN driver.",
	})
	CANTxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slcan_can_tx_frames_total",
		Help: "Total CAN frames submitted to the CAN driver.",
	})
	MalformedCommands = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slcan_malformed_commands_total",
		Help: "Total SLCAN command lines rejected as malformed.",
	})
	FrameDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slcan_egress_frame_drops_total",
		Help: "Total asynchronous frame lines dropped due to egress back-pressure.",
	})
	SplitterOverflows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slcan_splitter_overflows_total",
		Help: "Total line-splitter overflows (no CR within the max command length).",
	})
	SessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slcan_session_transitions_total",
		Help: "Total session FSM transitions by destination state.",
	}, []string{"to"})
	DriverErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slcan_driver_errors_total",
		Help: "Total CAN driver errors by operation.",
	}, []string{"op"})
	RelayActiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slcan_relay_active_clients",
		Help: "Current number of connected relay (TCP fan-out) clients.",
	})
	RelayDroppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slcan_relay_dropped_frames_total",
		Help: "Total frames dropped by the relay hub due to slow clients.",
	})
	EgressQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slcan_egress_queue_depth",
		Help: "Most recently observed egress frame-line queue depth.",
	})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})

	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Driver error operation label constants (stable values to bound cardinality).
const (
	OpInstall   = "install"
	OpStart     = "start"
	OpStop      = "stop"
	OpUninstall = "uninstall"
	OpTransmit  = "transmit"
	OpReceive   = "receive"
)

// Local mirrored counters, kept alongside Prometheus so logs/diagnostics
// don't need to scrape the registry in-process.
var (
	localSerialRx   uint64
	localSerialTx   uint64
	localCANRx      uint64
	localCANTx      uint64
	localMalformed  uint64
	localFrameDrops uint64
	localOverflows  uint64
)

// Snapshot is a cheap copy of the local counters.
type Snapshot struct {
	SerialRx   uint64
	SerialTx   uint64
	CANRx      uint64
	CANTx      uint64
	Malformed  uint64
	FrameDrops uint64
	Overflows  uint64
}

func Snap() Snapshot {
	return Snapshot{
		SerialRx:   atomic.LoadUint64(&localSerialRx),
		SerialTx:   atomic.LoadUint64(&localSerialTx),
		CANRx:      atomic.LoadUint64(&localCANRx),
		CANTx:      atomic.LoadUint64(&localCANTx),
		Malformed:  atomic.LoadUint64(&localMalformed),
		FrameDrops: atomic.LoadUint64(&localFrameDrops),
		Overflows:  atomic.LoadUint64(&localOverflows),
	}
}

func IncSerialRx() {
	SerialRxFrames.Inc()
	atomic.AddUint64(&localSerialRx, 1)
}

func IncSerialTx() {
	SerialTxFrames.Inc()
	atomic.AddUint64(&localSerialTx, 1)
}

func IncCANRx() {
	CANRxFrames.Inc()
	atomic.AddUint64(&localCANRx, 1)
}

func IncCANTx() {
	CANTxFrames.Inc()
	atomic.AddUint64(&localCANTx, 1)
}

func IncMalformed() {
	MalformedCommands.Inc()
	atomic.AddUint64(&localMalformed, 1)
}

func IncFrameDrop() {
	FrameDrops.Inc()
	atomic.AddUint64(&localFrameDrops, 1)
}

func IncSplitterOverflow() {
	SplitterOverflows.Inc()
	atomic.AddUint64(&localOverflows, 1)
}

// IncTransition records a session FSM transition to the given state name.
func IncTransition(to string) {
	SessionTransitions.WithLabelValues(to).Inc()
}

// IncDriverError records a CAN driver error for the given operation.
func IncDriverError(op string) {
	DriverErrors.WithLabelValues(op).Inc()
}

// SetRelayClients records the current relay client count.
func SetRelayClients(n int) { RelayActiveClients.Set(float64(n)) }

// IncRelayDrop records a relay frame drop due to a slow client.
func IncRelayDrop() { RelayDroppedFrames.Inc() }

// SetEgressQueueDepth records the most recent egress frame queue depth.
func SetEgressQueueDepth(n int) { EgressQueueDepth.Set(float64(n)) }

// InitBuildInfo sets the build info gauge and pre-registers bounded label
// series so the first observation of each doesn't pay registration latency.
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	for _, op := range []string{OpInstall, OpStart, OpStop, OpUninstall, OpTransmit, OpReceive} {
		DriverErrors.WithLabelValues(op).Add(0)
	}
}

// StartHTTP serves Prometheus metrics at /metrics and readiness at /ready.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// SetReadinessFunc registers the function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) {
	readinessMu.Lock()
	readinessFn = fn
	readinessMu.Unlock()
}

// IsReady invokes the registered readiness function, defaulting to true.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil {
		return true
	}
	return fn()
}
