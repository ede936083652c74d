//go:build !linux

package cand

import (
	"errors"
	"time"

	"github.com/tinycan/slcan-adapter/internal/canframe"
)

// SocketCANDriver is unavailable on non-Linux builds; the constructor
// succeeds so callers can compile generically, but every operation fails
// so misconfiguration is caught at runtime rather than at link time.
type SocketCANDriver struct{ mode Mode }

func NewSocketCANDriver() *SocketCANDriver { return &SocketCANDriver{} }

var errUnsupported = errors.New("cand: socketcan unsupported on this platform")

func (d *SocketCANDriver) Install(GeneralConfig, Timing) error { return errUnsupported }
func (d *SocketCANDriver) Start() error                        { return errUnsupported }
func (d *SocketCANDriver) Stop() error                         { return errUnsupported }
func (d *SocketCANDriver) Uninstall() error                    { return nil }
func (d *SocketCANDriver) Mode() Mode                           { return d.mode }
func (d *SocketCANDriver) SetMode(m Mode)                       { d.mode = m }
func (d *SocketCANDriver) Transmit(canframe.Frame, time.Duration) error {
	return errUnsupported
}
func (d *SocketCANDriver) Receive(time.Duration) (canframe.Frame, error) {
	return canframe.Frame{}, errUnsupported
}
