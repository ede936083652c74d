// Package bridge wires the command path (Line Splitter → Parser/Dispatcher
// → Session) and the frame path (Session receive pump → Frame Codec →
// Egress) into the single data flow spec.md §5 describes. Every other
// package in this repo is reusable in isolation; this is the one place that
// assembles them, mirroring the way the teacher's cmd/can-server/backend.go
// wires hub+server+serial/socketcan together around a shared can.Frame.
package bridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/tinycan/slcan-adapter/internal/canframe"
	"github.com/tinycan/slcan-adapter/internal/iostream"
	"github.com/tinycan/slcan-adapter/internal/metrics"
	"github.com/tinycan/slcan-adapter/internal/session"
	"github.com/tinycan/slcan-adapter/internal/slcan"
	"github.com/tinycan/slcan-adapter/internal/transport"
)

// defaultInQueueLen bounds the ingress buffer queue between the transport
// read loop and command dispatch.
const defaultInQueueLen = 16

// Config selects the optional, off-by-default behaviors SPEC_FULL.md §6
// decided on.
type Config struct {
	// WithTimestamp appends a 4-hex-digit millisecond timestamp to every
	// outbound frame line. Off by default, per the Open Question decision.
	WithTimestamp bool
	SerialID      slcan.SerialID
}

// Bridge assembles the line splitter (C1), parser/dispatcher (C2), session
// manager (C3), frame codec (C4) and egress serializer (C5) into the
// bidirectional path between the serial transport and the CAN session.
type Bridge struct {
	cfg     Config
	session *session.Session
	disp    *slcan.Dispatcher
	egress  *iostream.Egress
	split   slcan.Splitter
	logger  *slog.Logger
	start   time.Time
	inQueue iostream.InQueue

	onFrame func(canframe.Frame)
}

// New assembles a Bridge. egress must already be running (its Run method
// started in its own goroutine) before frames are queued to it.
func New(cfg Config, sess *session.Session, egress *iostream.Egress, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		cfg:     cfg,
		session: sess,
		disp:    slcan.NewDispatcher(sess, cfg.SerialID),
		egress:  egress,
		logger:  logger,
		start:   time.Now(),
		inQueue: make(iostream.InQueue, defaultInQueueLen),
	}
}

// OnFrame registers an additional sink invoked for every frame the receive
// pump reports, after it has already been queued to egress — e.g. relay
// fan-out or sdlog, per SPEC_FULL.md §4.7. At most one sink is supported;
// callers needing more than one should compose them before registering.
func (b *Bridge) OnFrame(fn func(canframe.Frame)) { b.onFrame = fn }

// HandleInbound feeds one chunk of bytes read from the serial transport
// through the line splitter, dispatching every complete command in the
// chunk in order and sending its reply before advancing to the next
// command, preserving the ordering guarantee in §4.2.
func (b *Bridge) HandleInbound(ctx context.Context, chunk []byte) {
	lines, overflow := b.split.Feed(chunk)
	if overflow {
		metrics.IncSplitterOverflow()
		b.egress.SendResponse(ctx, slcan.EncodeError())
	}
	for _, line := range lines {
		cmd, err := slcan.Decode(line)
		if err != nil {
			metrics.IncMalformed()
		} else if slcan.IsTransmit(cmd.Op) {
			metrics.IncSerialRx()
		}
		reply := b.disp.Dispatch(cmd, err)
		if err == nil && slcan.IsTransmit(cmd.Op) && len(reply) > 0 && reply[0] != '\a' {
			metrics.IncCANTx()
		}
		b.egress.SendResponse(ctx, reply)
	}
}

// FrameReceived is the session.Hooks.OnFrameIn callback: it encodes a
// frame the receive pump reported as an SLCAN line, queues it to egress
// (dropped under back-pressure per §5), and fans it out to any registered
// extra sink.
func (b *Bridge) FrameReceived(f canframe.Frame) {
	metrics.IncCANRx()
	metrics.IncSerialTx()
	ts := uint16(time.Since(b.start).Milliseconds())
	line := slcan.EncodeFrame(f, b.cfg.WithTimestamp, ts)
	b.egress.SendFrameLine(line)
	if b.onFrame != nil {
		b.onFrame(f)
	}
}

// RunIngress reads from port in a loop. Each chunk read is handed off as an
// owned iostream.Buffer onto the ingress queue; a dedicated goroutine drains
// that queue into HandleInbound and releases the Buffer once every command
// in the chunk has been dispatched, per §6's "core is responsible for
// releasing the bytes after consumption". RunIngress returns when ctx is
// cancelled or the port read fails.
func (b *Bridge) RunIngress(ctx context.Context, port transport.Port) error {
	go b.runDispatch(ctx)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw := make([]byte, 256)
		n, err := port.Read(raw)
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}
		chunk := make([]byte, n)
		copy(chunk, raw[:n])
		select {
		case b.inQueue <- iostream.NewBuffer(chunk, nil):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// runDispatch drains the ingress queue in order, one chunk at a time,
// preserving the ordering guarantee HandleInbound's doc comment describes
// across chunks as well as within one.
func (b *Bridge) runDispatch(ctx context.Context) {
	for {
		select {
		case buf := <-b.inQueue:
			b.HandleInbound(ctx, buf.Bytes())
			buf.Release()
		case <-ctx.Done():
			return
		}
	}
}
