// Package wireproto holds the wire-level framing constants and header
// parsers shared by the classic and extended protocol framers. It
// does not parse anything past the header: payload bytes are always
// opaque to the routing core.
package wireproto

import "encoding/binary"

const (
	// ClassicHeaderLen is uint24_le length + uint8 seq.
	ClassicHeaderLen = 4
	// ExtendedHeaderLen is uint32_le length + uint8 type.
	ExtendedHeaderLen = 5
	// ExtendedConnectionCloseType is the message type of a graceful
	// termination notice in the extended protocol.
	ExtendedConnectionCloseType = 3
)

// ConnectionClose is the exact five-byte extended-protocol message
// that signals graceful termination: length=1, type=3.
var ConnectionClose = [ExtendedHeaderLen]byte{0x01, 0x00, 0x00, 0x00, 0x03}

// ClassicHeader is a parsed classic-protocol packet header.
type ClassicHeader struct {
	PayloadLen uint32
	Seq        uint8
}

// TotalLen is the on-wire size of the packet this header describes.
func (h ClassicHeader) TotalLen() int {
	return ClassicHeaderLen + int(h.PayloadLen)
}

// ParseClassicHeader reads a uint24_le length + uint8 seq header from
// the front of buf. It reports ok=false if buf is shorter than
// ClassicHeaderLen (the caller must buffer more before retrying).
func ParseClassicHeader(buf []byte) (ClassicHeader, bool) {
	if len(buf) < ClassicHeaderLen {
		return ClassicHeader{}, false
	}
	length := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16
	return ClassicHeader{PayloadLen: length, Seq: buf[3]}, true
}

// ExtendedHeader is a parsed extended-protocol message header.
type ExtendedHeader struct {
	PayloadLen uint32
	Type       uint8
}

// TotalLen is the on-wire size of the message this header describes.
// Per the extended protocol's framing, PayloadLen counts the type
// byte plus the payload that follows it.
func (h ExtendedHeader) TotalLen() int {
	return 4 + int(h.PayloadLen)
}

// IsConnectionClose reports whether this header describes the
// graceful-termination notice (type=3, length=1).
func (h ExtendedHeader) IsConnectionClose() bool {
	return h.Type == ExtendedConnectionCloseType && h.PayloadLen == 1
}

// ParseExtendedHeader reads a uint32_le length + uint8 type header
// from the front of buf. It reports ok=false if buf is shorter than
// ExtendedHeaderLen.
func ParseExtendedHeader(buf []byte) (ExtendedHeader, bool) {
	if len(buf) < ExtendedHeaderLen {
		return ExtendedHeader{}, false
	}
	length := binary.LittleEndian.Uint32(buf[0:4])
	return ExtendedHeader{PayloadLen: length, Type: buf[4]}, true
}
