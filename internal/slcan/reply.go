package slcan

// The three wire-level reply shapes from §4.5/§6: a bare CR for OK, a bare
// BEL for error, and data bytes plus CR for OK-with-data.

// EncodeOK returns the single-CR OK reply.
func EncodeOK() []byte { return []byte{'\r'} }

// EncodeError returns the single-BEL error reply.
func EncodeError() []byte { return []byte{'\a'} }

// EncodeOKData returns data followed by CR.
func EncodeOKData(data []byte) []byte {
	out := make([]byte, len(data)+1)
	copy(out, data)
	out[len(data)] = '\r'
	return out
}

// VersionReply is the literal adapter-version reply from §6.
const VersionReply = "V0000"

// SerialReply formats the adapter-serial reply from the low two bytes of a
// hardware address, per §6 ("N followed by four uppercase hex digits
// derived from the low two bytes of the device's hardware address").
func SerialReply(macLow2 [2]byte) []byte {
	out := make([]byte, 0, 5)
	out = append(out, 'N')
	out = append(out, hexUpper[macLow2[0]>>4], hexUpper[macLow2[0]&0xF])
	out = append(out, hexUpper[macLow2[1]>>4], hexUpper[macLow2[1]&0xF])
	return out
}
