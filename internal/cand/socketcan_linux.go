//go:build linux

package cand

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/sys/unix"

	"github.com/tinycan/slcan-adapter/internal/canframe"
)

// Flag bits carried in can_id, matching <linux/can.h> (same values used by
// the teacher's internal/socketcan/device.go).
const (
	canEFFFlag = 0x80000000
	canRTRFlag = 0x40000000
	canSFFMask = 0x7FF
	canEFFMask = 0x1FFFFFFF
)

// SocketCANDriver binds a raw AF_CAN socket to a pre-existing SocketCAN
// interface and implements the abstract Driver capability over it. Bitrate
// configuration on classic SocketCAN is an ip-link concern, outside this
// core's scope (§1): Install records the requested Timing and SetMode the
// requested mode, but the actual bit timing is owned by the interface the
// platform brought up before this process started.
type SocketCANDriver struct {
	fd     int
	mode   Mode
	timing Timing
}

// NewSocketCANDriver returns a driver bound to no socket yet; Install opens
// the socket for the given interface name.
func NewSocketCANDriver() *SocketCANDriver { return &SocketCANDriver{} }

func (d *SocketCANDriver) Install(general GeneralConfig, timing Timing) error {
	if d.fd != 0 {
		return errors.New("cand: already installed")
	}
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return fmt.Errorf("cand: socket(AF_CAN): %w", err)
	}
	ifi, err := net.InterfaceByName(general.Interface)
	if err != nil {
		_ = unix.Close(fd)
		return fmt.Errorf("cand: interface %q: %w", general.Interface, err)
	}
	sa := &unix.SockaddrCAN{Ifindex: ifi.Index}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return fmt.Errorf("cand: bind(can@%s): %w", general.Interface, err)
	}
	d.fd = fd
	d.timing = timing
	return nil
}

func (d *SocketCANDriver) Start() error {
	if d.fd == 0 {
		return errors.New("cand: not installed")
	}
	return nil
}

func (d *SocketCANDriver) Stop() error { return nil }

func (d *SocketCANDriver) Uninstall() error {
	if d.fd == 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = 0
	return err
}

func (d *SocketCANDriver) Mode() Mode { return d.mode }

// SetMode records the mode selected by the session manager (normal vs.
// listen-only); SocketCAN has no raw-socket "don't ack" toggle so this is
// informational only, matching the abstraction boundary in spec.md §1.
func (d *SocketCANDriver) SetMode(m Mode) { d.mode = m }

func (d *SocketCANDriver) Transmit(f canframe.Frame, timeout time.Duration) error {
	if d.mode == ModeListenOnly {
		return errors.New("cand: transmit not allowed in listen-only mode")
	}
	var buf [unix.CAN_MTU]byte
	id := f.ID
	if f.Extended {
		id |= canEFFFlag
	}
	if f.RTR {
		id |= canRTRFlag
	}
	binary.LittleEndian.PutUint32(buf[0:4], id)
	buf[4] = f.DLC
	copy(buf[8:], f.Data[:f.DLC])
	_ = unix.SetNonblock(d.fd, false)
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	if err := unix.SetsockoptTimeval(d.fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &tv); err != nil {
		return fmt.Errorf("cand: set send timeout: %w", err)
	}
	_, err := unix.Write(d.fd, buf[:])
	if err != nil {
		if errors.Is(err, unix.EAGAIN) {
			return ErrTimeout
		}
		return fmt.Errorf("cand: transmit: %w", err)
	}
	return nil
}

func (d *SocketCANDriver) Receive(timeout time.Duration) (canframe.Frame, error) {
	var f canframe.Frame
	fdSet := &unix.FdSet{}
	fdSet.Set(d.fd)
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	n, err := unix.Select(d.fd+1, fdSet, nil, nil, &tv)
	if err != nil {
		return f, fmt.Errorf("cand: select: %w", err)
	}
	if n == 0 {
		return f, ErrTimeout
	}
	var buf [unix.CAN_MTU]byte
	rn, err := unix.Read(d.fd, buf[:])
	if err != nil {
		return f, fmt.Errorf("cand: receive: %w", err)
	}
	if rn != unix.CAN_MTU {
		return f, fmt.Errorf("cand: short read: %d", rn)
	}
	id := binary.LittleEndian.Uint32(buf[0:4])
	f.Extended = id&canEFFFlag != 0
	f.RTR = id&canRTRFlag != 0
	if f.Extended {
		f.ID = id & canEFFMask
	} else {
		f.ID = id & canSFFMask
	}
	dlc := buf[4]
	if dlc > canframe.MaxDLC {
		dlc = canframe.MaxDLC
	}
	f.DLC = dlc
	copy(f.Data[:], buf[8:8+dlc])
	return f, nil
}
