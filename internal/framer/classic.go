package framer

import (
	"github.com/dbrouter/routingcore/internal/socketops"
	"github.com/dbrouter/routingcore/internal/wireproto"
)

// ClassicFramer pumps one direction of a classic-protocol relay. It
// owns the running packet-sequence counter and the residual-tail
// buffer for a partial packet straddling two reads.
type ClassicFramer struct {
	seq  uint8
	tail []byte
}

// NewClassicFramer returns a framer with seq initialized to 0; Route
// assigns the real starting sequence via Reset if one is known.
func NewClassicFramer() *ClassicFramer {
	return &ClassicFramer{}
}

// Seq returns the current packet-sequence counter.
func (f *ClassicFramer) Seq() uint8 {
	return f.seq
}

// Reset sets the starting sequence counter, e.g. when a pair resumes
// accounting after the handshake.
func (f *ClassicFramer) Reset(seq uint8) {
	f.seq = seq
	f.tail = nil
}

// CopyOnce implements Framer.
func (f *ClassicFramer) CopyOnce(ops socketops.SocketOps, src, dst socketops.Handle, buf []byte, handshakeDone, passThrough bool) (int64, error) {
	n, err := readOnce(ops, src, buf)
	if err != nil {
		return 0, err
	}

	if err := writeAll(ops, dst, buf[:n]); err != nil {
		return 0, err
	}

	if handshakeDone && !passThrough {
		f.accountPackets(buf[:n])
	}

	return int64(n), nil
}

// accountPackets walks whole classic packets out of the residual tail
// plus the freshly read bytes, advancing seq (mod 256) for each
// complete packet and preserving any underfilled tail for next time.
func (f *ClassicFramer) accountPackets(fresh []byte) {
	data := fresh
	if len(f.tail) > 0 {
		data = append(append([]byte(nil), f.tail...), fresh...)
	}

	off := 0
	for {
		hdr, ok := wireproto.ParseClassicHeader(data[off:])
		if !ok {
			break
		}
		total := hdr.TotalLen()
		if off+total > len(data) {
			// Partial packet at the end; buffer it for next call.
			break
		}
		f.seq = uint8((int(f.seq) + 1) % 256)
		off += total
	}

	if off < len(data) {
		f.tail = append([]byte(nil), data[off:]...)
	} else {
		f.tail = nil
	}
}

var _ Framer = (*ClassicFramer)(nil)
