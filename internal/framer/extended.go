package framer

import (
	"github.com/dbrouter/routingcore/internal/socketops"
	"github.com/dbrouter/routingcore/internal/wireproto"
)

// ExtendedFramer pumps one direction of an extended-protocol relay.
// It has no sequence counter (the extended protocol frames by
// length+type, not a per-packet sequence number) but does track
// whether a graceful ConnectionClose notice has been observed, so the
// Route can treat a subsequent EOF as a clean shutdown rather than a
// RelayIoError.
type ExtendedFramer struct {
	tail     []byte
	sawClose bool
}

// NewExtendedFramer returns a fresh extended-protocol framer.
func NewExtendedFramer() *ExtendedFramer {
	return &ExtendedFramer{}
}

// SawConnectionClose reports whether a ConnectionClose message
// (type=3, length=1) has been observed on this direction.
func (f *ExtendedFramer) SawConnectionClose() bool {
	return f.sawClose
}

// CopyOnce implements Framer.
func (f *ExtendedFramer) CopyOnce(ops socketops.SocketOps, src, dst socketops.Handle, buf []byte, handshakeDone, passThrough bool) (int64, error) {
	n, err := readOnce(ops, src, buf)
	if err != nil {
		return 0, err
	}

	if err := writeAll(ops, dst, buf[:n]); err != nil {
		return 0, err
	}

	if handshakeDone {
		f.scanMessages(buf[:n])
	}

	return int64(n), nil
}

// scanMessages walks whole extended messages out of the residual tail
// plus the freshly read bytes, flagging ConnectionClose and buffering
// any underfilled tail message for the next call.
func (f *ExtendedFramer) scanMessages(fresh []byte) {
	data := fresh
	if len(f.tail) > 0 {
		data = append(append([]byte(nil), f.tail...), fresh...)
	}

	off := 0
	for {
		hdr, ok := wireproto.ParseExtendedHeader(data[off:])
		if !ok {
			break
		}
		total := hdr.TotalLen()
		if off+total > len(data) {
			break
		}
		if hdr.IsConnectionClose() {
			f.sawClose = true
		}
		off += total
	}

	if off < len(data) {
		f.tail = append([]byte(nil), data[off:]...)
	} else {
		f.tail = nil
	}
}

var _ Framer = (*ExtendedFramer)(nil)
