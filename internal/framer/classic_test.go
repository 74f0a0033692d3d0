package framer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dbrouter/routingcore/internal/socketops"
	"github.com/dbrouter/routingcore/internal/socketops/socketopsmock"
)

func TestCopyPacketsSingleWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ops := socketopsmock.NewMockSocketOps(ctrl)

	const senderFD, receiverFD socketops.Handle = 1, 2
	buf := make([]byte, 500)

	ops.EXPECT().Read(senderFD, gomock.Any()).Return(200, nil)
	ops.EXPECT().Write(receiverFD, gomock.Any()).Return(200, nil)

	f := NewClassicFramer()
	n, err := f.CopyOnce(ops, senderFD, receiverFD, buf, true, false)
	require.NoError(t, err)
	assert.EqualValues(t, 200, n)
}

func TestCopyPacketsMultipleWrites(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ops := socketopsmock.NewMockSocketOps(ctrl)

	const senderFD, receiverFD socketops.Handle = 1, 2
	buf := make([]byte, 500)

	gomock.InOrder(
		ops.EXPECT().Read(senderFD, gomock.Any()).Return(200, nil),
		ops.EXPECT().Write(receiverFD, gomock.Any()).Return(100, nil),
		ops.EXPECT().Write(receiverFD, gomock.Any()).Return(0, nil),
		ops.EXPECT().Poll(gomock.Any(), gomock.Any()).Return(1, nil),
		ops.EXPECT().Write(receiverFD, gomock.Any()).Return(100, nil),
	)

	f := NewClassicFramer()
	n, err := f.CopyOnce(ops, senderFD, receiverFD, buf, true, false)
	require.NoError(t, err)
	assert.EqualValues(t, 200, n)
}

func TestCopyPacketsWriteError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ops := socketopsmock.NewMockSocketOps(ctrl)

	const senderFD, receiverFD socketops.Handle = 1, 2
	buf := make([]byte, 500)

	ops.EXPECT().Read(senderFD, gomock.Any()).Return(200, nil)
	ops.EXPECT().Write(receiverFD, gomock.Any()).Return(-1, assert.AnError)

	f := NewClassicFramer()
	_, err := f.CopyOnce(ops, senderFD, receiverFD, buf, true, false)
	assert.Error(t, err)
}

func TestCopyPacketsEOF(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ops := socketopsmock.NewMockSocketOps(ctrl)

	const senderFD, receiverFD socketops.Handle = 1, 2
	buf := make([]byte, 500)

	ops.EXPECT().Read(senderFD, gomock.Any()).Return(0, nil)

	f := NewClassicFramer()
	_, err := f.CopyOnce(ops, senderFD, receiverFD, buf, true, false)
	assert.Error(t, err)
}

func TestClassicSeqAdvancesOnePerPacket(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ops := socketopsmock.NewMockSocketOps(ctrl)

	const senderFD, receiverFD socketops.Handle = 1, 2
	buf := make([]byte, 500)

	// Two complete 4-byte-header packets with 2-byte payloads each:
	// total on wire = (4+2) * 2 = 12 bytes.
	packet := func(seq byte, payload ...byte) []byte {
		length := len(payload)
		return append([]byte{byte(length), byte(length >> 8), byte(length >> 16), seq}, payload...)
	}
	wire := append(packet(0, 0xAA, 0xBB), packet(1, 0xCC, 0xDD)...)

	ops.EXPECT().Read(senderFD, gomock.Any()).DoAndReturn(func(_ socketops.Handle, b []byte) (int, error) {
		return copy(b, wire), nil
	})
	ops.EXPECT().Write(receiverFD, gomock.Any()).Return(len(wire), nil)

	f := NewClassicFramer()
	n, err := f.CopyOnce(ops, senderFD, receiverFD, buf, true, false)
	require.NoError(t, err)
	assert.EqualValues(t, len(wire), n)
	assert.EqualValues(t, 2, f.Seq())
}

func TestClassicSeqBuffersPartialTail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ops := socketopsmock.NewMockSocketOps(ctrl)

	const senderFD, receiverFD socketops.Handle = 1, 2
	buf := make([]byte, 500)

	// One full packet (length=2) followed by a 2-byte partial header.
	full := []byte{2, 0, 0, 0, 0xAA, 0xBB}
	partialHeader := []byte{9, 0}
	first := append(append([]byte(nil), full...), partialHeader...)

	ops.EXPECT().Read(senderFD, gomock.Any()).Return(copyInto(buf, first), nil)
	ops.EXPECT().Write(receiverFD, gomock.Any()).Return(len(first), nil)

	f := NewClassicFramer()
	_, err := f.CopyOnce(ops, senderFD, receiverFD, buf, true, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.Seq(), "only the one complete packet advances seq")
	assert.NotEmpty(t, f.tail, "partial header must be buffered")

	// Completing the packet on the next read should advance seq again.
	rest := []byte{0, 1, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF} // last length byte + seq byte + 9-byte payload
	ops.EXPECT().Read(senderFD, gomock.Any()).Return(copyInto(buf, rest), nil)
	ops.EXPECT().Write(receiverFD, gomock.Any()).Return(len(rest), nil)

	_, err = f.CopyOnce(ops, senderFD, receiverFD, buf, true, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.Seq())
}

func copyInto(dst, src []byte) int {
	return copy(dst, src)
}
