package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/tinycan/slcan-adapter/internal/canframe"
	"github.com/tinycan/slcan-adapter/internal/logging"
	"github.com/tinycan/slcan-adapter/internal/metrics"
)

// Sentinel errors, classified via errors.Is, grounded on the teacher's
// internal/server/errors.go.
var (
	ErrListen    = errors.New("relay: listen")
	ErrAccept    = errors.New("relay: accept")
	ErrHandshake = errors.New("relay: handshake")
)

// Server is an optional read-only TCP fan-out of decoded CAN frames for
// monitoring clients (SPEC_FULL.md §4.7). Disabled entirely when the main
// binary is not configured with a listen address — the protocol core never
// depends on this package's presence.
type Server struct {
	mu               sync.Mutex
	addr             string
	hub              *Hub
	codec            Codec
	handshakeTimeout time.Duration
	flushInterval    time.Duration
	batchSize        int
	maxClients       int
	logger           *slog.Logger
	listener         net.Listener
	clientsMu        sync.Mutex
	clients          map[*Client]net.Conn
	wg               sync.WaitGroup
}

const (
	defaultHandshakeTimeout = 3 * time.Second
	defaultFlushInterval    = 5 * time.Millisecond
	defaultBatchSize        = 64
)

// NewServer builds a Server broadcasting hub's frames to addr. maxClients
// of 0 means unlimited.
func NewServer(addr string, hub *Hub, maxClients int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.L()
	}
	return &Server{
		addr:             addr,
		hub:              hub,
		handshakeTimeout: defaultHandshakeTimeout,
		flushInterval:    defaultFlushInterval,
		batchSize:        defaultBatchSize,
		maxClients:       maxClients,
		logger:           logger,
		clients:          make(map[*Client]net.Conn),
	}
}

// Addr returns the bound listen address; only meaningful after Serve has
// started accepting.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Serve accepts relay clients until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrListen, err)
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.listener = ln
	s.mu.Unlock()
	s.logger.Info("relay_listen", "addr", s.Addr())
	go func() { <-ctx.Done(); _ = ln.Close() }()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return fmt.Errorf("%w: %v", ErrAccept, err)
		}
		s.handleAccept(ctx, conn)
	}
}

func (s *Server) handleAccept(ctx context.Context, conn net.Conn) {
	connLogger := s.logger.With("remote", conn.RemoteAddr().String())
	if err := Handshake(ctx, conn, s.handshakeTimeout); err != nil {
		connLogger.Warn("relay_handshake_failed", "error", fmt.Errorf("%w: %v", ErrHandshake, err))
		_ = conn.Close()
		return
	}
	if s.maxClients > 0 && s.hub.Count() >= s.maxClients {
		connLogger.Warn("relay_client_reject_max", "max_clients", s.maxClients)
		_ = conn.Close()
		return
	}
	cl := &Client{Out: make(chan canframe.Frame, s.hub.OutBufSize), Closed: make(chan struct{})}
	s.hub.Add(cl)
	s.clientsMu.Lock()
	s.clients[cl] = conn
	s.clientsMu.Unlock()
	connLogger.Info("relay_client_connected")
	s.startWriter(ctx.Done(), conn, cl, connLogger)
	s.startReader(ctx.Done(), conn, cl, connLogger)
}

func (s *Server) startWriter(done <-chan struct{}, conn net.Conn, cl *Client, logger *slog.Logger) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			_ = conn.Close()
			s.hub.Remove(cl)
			logger.Info("relay_client_disconnected")
		}()
		t := time.NewTicker(s.flushInterval)
		defer t.Stop()
		batch := make([]canframe.Frame, 0, s.batchSize)
		flush := func() bool {
			if len(batch) == 0 {
				return true
			}
			n := len(batch)
			if _, err := s.codec.EncodeTo(conn, batch); err != nil {
				metrics.IncDriverError("relay_write")
				batch = batch[:0]
				return false
			}
			batch = batch[:0]
			_ = n
			return true
		}
		for {
			select {
			case f := <-cl.Out:
				batch = append(batch, f)
				if len(batch) >= s.batchSize && !flush() {
					return
				}
			case <-t.C:
				if !flush() {
					return
				}
			case <-cl.Closed:
				flush()
				return
			case <-done:
				flush()
				return
			}
		}
	}()
}

// startReader drains and discards anything a relay client sends: relay is
// read-only monitoring, per SPEC_FULL.md §4.7 — client bytes are never
// decoded or forwarded to the bus. The reader exits on EOF, a closed
// connection, or any read error other than a timeout.
func (s *Server) startReader(done <-chan struct{}, conn net.Conn, cl *Client, logger *slog.Logger) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		buf := make([]byte, 256)
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, err := conn.Read(buf)
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
					return
				}
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					select {
					case <-done:
						return
					default:
						continue
					}
				}
				logger.Debug("relay_reader_closed", "error", err)
				return
			}
		}
	}()
}

// Shutdown closes the listener and all client connections, waiting for
// their goroutines to exit or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()
	if ln != nil {
		_ = ln.Close()
	}
	s.clientsMu.Lock()
	for cl, conn := range s.clients {
		_ = conn.Close()
		s.hub.Remove(cl)
		delete(s.clients, cl)
	}
	s.clientsMu.Unlock()
	done := make(chan struct{})
	go func() { s.wg.Wait(); close(done) }()
	select {
	case <-ctx.Done():
		return fmt.Errorf("relay: shutdown timeout: %w", ctx.Err())
	case <-done:
		return nil
	}
}
