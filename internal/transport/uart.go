package transport

import (
	"time"

	"github.com/tarm/serial"
)

// OpenUART opens a wired serial port, grounded on the teacher's
// internal/serial/port.go (same underlying github.com/tarm/serial
// dependency).
func OpenUART(name string, baud int, readTimeout time.Duration) (Port, error) {
	cfg := &serial.Config{Name: name, Baud: baud, ReadTimeout: readTimeout}
	return serial.OpenPort(cfg)
}
