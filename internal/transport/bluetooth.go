package transport

import (
	"fmt"
	"net"
)

// OpenBluetoothSPP wraps an already-paired Bluetooth Serial Port Profile
// connection as a Port. Pairing and RFCOMM channel bring-up are platform
// concerns explicitly out of scope (spec.md §1's "platform bring-up...
// link-layer pairing"); this function only needs a net.Conn that already
// represents the paired SPP channel, which on Linux is typically dialed
// via an AF_BLUETOOTH/RFCOMM socket and handed in here as conn.
//
// This supplements the wired UART transport with the wireless serial
// profile named in spec.md §1 ("a UART driver or a wireless serial
// profile"), recovered from original_source/components/bluetooth/bt.c.
func OpenBluetoothSPP(conn net.Conn) (Port, error) {
	if conn == nil {
		return nil, fmt.Errorf("transport: nil bluetooth connection")
	}
	return conn, nil
}
