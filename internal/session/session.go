// Package session owns the CAN-controller lifecycle (C3): the FSM in
// spec.md §3, bitrate selection, mode selection, and the permanently
// running receive pump that feeds decoded frames to the egress path.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tinycan/slcan-adapter/internal/canframe"
	"github.com/tinycan/slcan-adapter/internal/cand"
)

// State is the explicit tagged FSM state, replacing the original firmware's
// "open" == non-empty length-1 queue with a real value (Design Notes
// redesign flag).
type State int

const (
	Uninitialized State = iota
	Configured
	OpenNormal
	OpenListen
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Configured:
		return "configured"
	case OpenNormal:
		return "open-normal"
	case OpenListen:
		return "open-listen"
	default:
		return "unknown"
	}
}

// pumpPollTimeout bounds each receive-pump poll of the CAN driver, per §4.3.
const pumpPollTimeout = 100 * time.Millisecond

// transmitTimeout bounds transmit submission to the driver, per §4.3.
const transmitTimeout = 100 * time.Millisecond

var (
	// ErrWrongState is returned when a command's precondition is not met,
	// e.g. opening while already open, or transmitting while closed.
	ErrWrongState = errors.New("session: command not allowed in current state")
	// ErrUnsupportedRate is returned for the recognized-but-unsupported
	// 10/20 kbit/s SLCAN inputs.
	ErrUnsupportedRate = errors.New("session: unsupported bitrate")
	// ErrDriver wraps a failure reported by the CAN driver.
	ErrDriver = errors.New("session: driver failure")
)

// Hooks lets callers observe session lifecycle events (for metrics/logging)
// without coupling this package to those concerns, mirroring the teacher's
// transport.Hooks pattern.
type Hooks struct {
	OnTransition func(from, to State)
	OnFrameIn    func(canframe.Frame) // frame delivered by the receive pump
	OnDriverErr  func(error)
}

// Session is the Session Manager (C3). It exclusively owns the CAN driver
// handle and the selected timing configuration, per the ownership rules in
// §3.
type Session struct {
	mu      sync.Mutex
	state   State
	timing  cand.Timing
	driver  cand.Driver
	general cand.GeneralConfig
	wake    chan struct{}
	hooks   Hooks
	logger  *slog.Logger
}

// New constructs a Session in the Uninitialized state around driver, which
// the spec treats as a single global instance (§6).
func New(driver cand.Driver, general cand.GeneralConfig, hooks Hooks, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		driver:  driver,
		general: general,
		hooks:   hooks,
		wake:    make(chan struct{}, 1),
		logger:  logger,
	}
}

func (s *Session) setState(to State) {
	from := s.state
	s.state = to
	if s.hooks.OnTransition != nil && from != to {
		s.hooks.OnTransition(from, to)
	}
}

// State returns the current FSM state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsOpen reports whether the session is in either open state.
func (s *Session) IsOpen() bool {
	st := s.State()
	return st == OpenNormal || st == OpenListen
}

// Mode returns the driver-reported mode; only meaningful while open.
func (s *Session) Mode() cand.Mode { return s.driver.Mode() }

// SetBitrate handles the S<n> command. It is rejected while Open-*, and
// ErrUnsupportedRate is returned (not a wrong-state error) for syntactically
// valid but unsupported rates, per §4.2.
func (s *Session) SetBitrate(kbit int, recognized bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == OpenNormal || s.state == OpenListen {
		return ErrWrongState
	}
	if !recognized {
		return ErrUnsupportedRate
	}
	timing, ok := cand.NewTiming(kbit)
	if !ok {
		return ErrUnsupportedRate
	}
	s.timing = timing
	s.setState(Configured)
	return nil
}

// Open installs and starts the CAN driver in the requested mode with the
// selected timing and an accept-all filter, then starts the receive pump,
// per §4.3. Requires Configured.
func (s *Session) Open(mode cand.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Configured {
		return ErrWrongState
	}
	if err := s.driver.Install(s.general, s.timing); err != nil {
		return fmt.Errorf("%w: %v", ErrDriver, err)
	}
	if setter, ok := s.driver.(interface{ SetMode(cand.Mode) }); ok {
		setter.SetMode(mode)
	}
	if err := s.driver.Start(); err != nil {
		_ = s.driver.Uninstall()
		return fmt.Errorf("%w: %v", ErrDriver, err)
	}
	if mode == cand.ModeListenOnly {
		s.setState(OpenListen)
	} else {
		s.setState(OpenNormal)
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// Close stops the receive pump (by flipping state out of Open-*, so its
// next polling cycle exits), stops and uninstalls the driver, and returns
// to Configured. Requires Open-*.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != OpenNormal && s.state != OpenListen {
		return ErrWrongState
	}
	s.setState(Configured)
	if err := s.driver.Stop(); err != nil {
		return fmt.Errorf("%w: %v", ErrDriver, err)
	}
	if err := s.driver.Uninstall(); err != nil {
		return fmt.Errorf("%w: %v", ErrDriver, err)
	}
	return nil
}

// Transmit submits f to the driver with a bounded wait. Requires
// Open-Normal; transmitting in listen-only mode is an error.
func (s *Session) Transmit(f canframe.Frame) error {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()
	if st != OpenNormal {
		return ErrWrongState
	}
	if err := f.Valid(); err != nil {
		return err
	}
	if err := s.driver.Transmit(f, transmitTimeout); err != nil {
		if s.hooks.OnDriverErr != nil {
			s.hooks.OnDriverErr(err)
		}
		return fmt.Errorf("%w: %v", ErrDriver, err)
	}
	return nil
}

// Run drives the permanently running receive pump (Design Notes redesign:
// no per-open task creation). It blocks until ctx is cancelled. While the
// session is not Open-*, the pump idles on the wake channel rather than
// polling the driver.
func (s *Session) Run(ctx context.Context) {
	for {
		if !s.IsOpen() {
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
			}
			continue
		}
		f, err := s.driver.Receive(pumpPollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !errors.Is(err, cand.ErrTimeout) && s.hooks.OnDriverErr != nil {
				s.hooks.OnDriverErr(err)
			}
			continue
		}
		if s.hooks.OnFrameIn != nil {
			s.hooks.OnFrameIn(f)
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}
