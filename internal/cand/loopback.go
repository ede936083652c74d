package cand

import (
	"sync"
	"time"

	"github.com/tinycan/slcan-adapter/internal/canframe"
)

// LoopbackDriver is an in-memory Driver fake for tests of the session
// manager and dispatcher, grounded on the teacher's
// internal/socketcan/stub.go + cmd/can-server hook-variable testing
// pattern. Every transmitted frame is immediately visible to Receive,
// unless DropTransmits is set (Transmit then succeeds but the frame is
// discarded). FailInstall and FailTransmit make those operations return
// ErrTimeout, to exercise driver-failure paths.
type LoopbackDriver struct {
	mu            sync.Mutex
	installed     bool
	started       bool
	mode          Mode
	rx            chan canframe.Frame
	DropTransmits bool
	FailInstall   bool
	FailTransmit  bool
}

func NewLoopbackDriver() *LoopbackDriver {
	return &LoopbackDriver{rx: make(chan canframe.Frame, 64)}
}

func (d *LoopbackDriver) Install(general GeneralConfig, timing Timing) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailInstall {
		return ErrTimeout
	}
	d.installed = true
	return nil
}

func (d *LoopbackDriver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = true
	return nil
}

func (d *LoopbackDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = false
	return nil
}

func (d *LoopbackDriver) Uninstall() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.installed = false
	return nil
}

func (d *LoopbackDriver) SetMode(m Mode) {
	d.mu.Lock()
	d.mode = m
	d.mu.Unlock()
}

func (d *LoopbackDriver) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

func (d *LoopbackDriver) Transmit(f canframe.Frame, timeout time.Duration) error {
	if d.FailTransmit {
		return ErrTimeout
	}
	if d.DropTransmits {
		return nil
	}
	select {
	case d.rx <- f:
		return nil
	case <-time.After(timeout):
		return ErrTimeout
	}
}

func (d *LoopbackDriver) Receive(timeout time.Duration) (canframe.Frame, error) {
	select {
	case f := <-d.rx:
		return f, nil
	case <-time.After(timeout):
		return canframe.Frame{}, ErrTimeout
	}
}

// InjectReceive pushes a frame as if the bus delivered it, for tests of the
// receive pump.
func (d *LoopbackDriver) InjectReceive(f canframe.Frame) { d.rx <- f }
