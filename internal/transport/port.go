// Package transport provides the physical serial transport the core
// bridges to: a wired UART port and a Bluetooth SPP (wireless serial
// profile) port, both satisfying the same Port interface. Per spec.md §1
// these are external collaborators; only their interfaces matter to the
// core, which consumes/produces byte buffers through the two queues in
// internal/iostream.
package transport

import "io"

// Port abstracts the physical serial transport for testability, grounded
// on the teacher's internal/serial.Port interface.
type Port interface {
	io.Reader
	io.Writer
	io.Closer
}
