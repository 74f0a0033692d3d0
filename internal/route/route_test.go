package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dbrouter/routingcore/internal/config"
	"github.com/dbrouter/routingcore/internal/metadatacache"
	"github.com/dbrouter/routingcore/internal/netaddr"
	"github.com/dbrouter/routingcore/internal/socketops"
	"github.com/dbrouter/routingcore/internal/socketops/socketopsmock"
)

func baseCfg() config.RouteConfig {
	cfg := config.RouteConfig{
		Name:         "routing:test_ro",
		BindAddress:  "127.0.0.1:6446",
		Mode:         "read-write",
		Protocol:     "classic",
		Destinations: "10.0.0.1:3306",
	}
	return cfg
}

func TestNewRejectsUndefinedMode(t *testing.T) {
	cfg := baseCfg()
	cfg.Mode = "bogus"
	_, err := New(cfg, socketopsmock.NewMockSocketOps(gomock.NewController(t)), metadatacache.NewStaticClient())
	assert.Error(t, err)
}

func TestNewRejectsSelfLoop(t *testing.T) {
	cfg := baseCfg()
	cfg.BindAddress = "127.0.0.1:3306"
	cfg.Destinations = "127.0.0.1:3306"
	_, err := New(cfg, socketopsmock.NewMockSocketOps(gomock.NewController(t)), metadatacache.NewStaticClient())
	assert.Error(t, err)
}

func TestNewAcceptsNonLoopDestination(t *testing.T) {
	cfg := baseCfg()
	cfg.BindAddress = "127.0.0.1:3306"
	cfg.Destinations = "127.0.0.1:33060"
	r, err := New(cfg, socketopsmock.NewMockSocketOps(gomock.NewController(t)), metadatacache.NewStaticClient())
	require.NoError(t, err)
	assert.Equal(t, "routing:test_ro", r.Name())
}

func TestAdmissionRejectsBlockedIP(t *testing.T) {
	cfg := baseCfg()
	r, err := New(cfg, socketopsmock.NewMockSocketOps(gomock.NewController(t)), metadatacache.NewStaticClient())
	require.NoError(t, err)

	r.blocked["10.0.0.5"] = struct{}{}
	reason, reject := r.admissionReject("10.0.0.5")
	assert.True(t, reject)
	assert.NotEmpty(t, reason)
}

func TestAdmissionRejectsWhenFull(t *testing.T) {
	cfg := baseCfg()
	cfg.MaxConnections = 1
	r, err := New(cfg, socketopsmock.NewMockSocketOps(gomock.NewController(t)), metadatacache.NewStaticClient())
	require.NoError(t, err)

	r.active.Store(1)
	_, reject := r.admissionReject("10.0.0.9")
	assert.True(t, reject)
}

func TestAdmissionAllowsWithinLimit(t *testing.T) {
	cfg := baseCfg()
	r, err := New(cfg, socketopsmock.NewMockSocketOps(gomock.NewController(t)), metadatacache.NewStaticClient())
	require.NoError(t, err)

	_, reject := r.admissionReject("10.0.0.9")
	assert.False(t, reject)
}

func TestRecordConnectErrorBlacklistsAtThreshold(t *testing.T) {
	cfg := baseCfg()
	cfg.MaxConnectErrors = 3
	r, err := New(cfg, socketopsmock.NewMockSocketOps(gomock.NewController(t)), metadatacache.NewStaticClient())
	require.NoError(t, err)

	ip := "10.1.1.1"
	for i := 0; i < 2; i++ {
		r.recordConnectError(ip)
		_, blocked := r.blocked[ip]
		assert.False(t, blocked, "must not block before reaching the threshold")
	}
	r.recordConnectError(ip)
	_, blocked := r.blocked[ip]
	assert.True(t, blocked, "must block exactly at the threshold")
	assert.Equal(t, uint64(3), r.errorCounters[ip])
}

func TestResetErrorCounterSkipsBlockedIP(t *testing.T) {
	cfg := baseCfg()
	r, err := New(cfg, socketopsmock.NewMockSocketOps(gomock.NewController(t)), metadatacache.NewStaticClient())
	require.NoError(t, err)

	ip := "10.1.1.2"
	r.errorCounters[ip] = 5
	r.blocked[ip] = struct{}{}

	r.resetErrorCounter(ip)
	assert.Equal(t, uint64(5), r.errorCounters[ip], "a blocked ip's counter is never reset by a later success")
}

func TestDialDestinationSucceedsOnSecondCandidate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ops := socketopsmock.NewMockSocketOps(ctrl)

	cfg := baseCfg()
	cfg.Destinations = "10.0.0.1:3306,10.0.0.2:3306"
	cfg.ConnectTimeoutSec = 1
	r, err := New(cfg, ops, metadatacache.NewStaticClient())
	require.NoError(t, err)

	cand1 := netaddr.New("10.0.0.1", 3306)
	cand2 := netaddr.New("10.0.0.2", 3306)
	const h1, h2 socketops.Handle = 11, 12

	ops.EXPECT().Resolve(cand1.Host, cand1.Port).Return([]netaddr.Address{cand1}, nil)
	ops.EXPECT().Open(socketops.FamilyINet, socketops.SockStream).Return(h1, nil)
	ops.EXPECT().SetBlocking(h1, false).Return(nil)
	ops.EXPECT().Connect(h1, cand1).Return(socketops.ConnectFailed, nil)
	ops.EXPECT().Close(h1).Return(nil)

	ops.EXPECT().Resolve(cand2.Host, cand2.Port).Return([]netaddr.Address{cand2}, nil)
	ops.EXPECT().Open(socketops.FamilyINet, socketops.SockStream).Return(h2, nil)
	ops.EXPECT().SetBlocking(h2, false).Return(nil)
	ops.EXPECT().Connect(h2, cand2).Return(socketops.ConnectOK, nil)
	ops.EXPECT().SetBlocking(h2, true).Return(nil)
	ops.EXPECT().SetNoDelay(h2, true).Return(nil)

	h, ok := r.dialDestination("10.9.9.9")
	assert.True(t, ok)
	assert.Equal(t, h2, h)
}

func TestDialDestinationExhaustsAndRecordsError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ops := socketopsmock.NewMockSocketOps(ctrl)

	cfg := baseCfg()
	cfg.MaxConnectErrors = 1
	r, err := New(cfg, ops, metadatacache.NewStaticClient())
	require.NoError(t, err)

	cand := netaddr.New("10.0.0.1", 3306)
	const h socketops.Handle = 21

	ops.EXPECT().Resolve(cand.Host, cand.Port).Return([]netaddr.Address{cand}, nil)
	ops.EXPECT().Open(socketops.FamilyINet, socketops.SockStream).Return(h, nil)
	ops.EXPECT().SetBlocking(h, false).Return(nil)
	ops.EXPECT().Connect(h, cand).Return(socketops.ConnectFailed, nil)
	ops.EXPECT().Close(h).Return(nil)

	_, ok := r.dialDestination("10.9.9.8")
	assert.False(t, ok)

	_, blocked := r.blocked["10.9.9.8"]
	assert.True(t, blocked)
}

func TestStopIsIdempotentAndAwaitsAcceptLoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ops := socketopsmock.NewMockSocketOps(ctrl)

	cfg := baseCfg()
	r, err := New(cfg, ops, metadatacache.NewStaticClient())
	require.NoError(t, err)

	bindAddr, _ := netaddr.Parse(cfg.BindAddress)
	const ln socketops.Handle = 1

	stopSignal := make(chan struct{})

	ops.EXPECT().Open(socketops.FamilyINet, socketops.SockStream).Return(ln, nil)
	ops.EXPECT().Bind(ln, bindAddr).Return(nil)
	ops.EXPECT().Listen(ln, 128).Return(nil)
	ops.EXPECT().Accept(ln).DoAndReturn(func(socketops.Handle) (socketops.Handle, netaddr.Address, error) {
		<-stopSignal
		return 0, netaddr.Address{}, assert.AnError
	}).AnyTimes()
	ops.EXPECT().Shutdown(ln).DoAndReturn(func(socketops.Handle) error {
		close(stopSignal)
		return nil
	})
	ops.EXPECT().Close(ln).Return(nil)

	require.NoError(t, r.Start())

	require.NoError(t, r.Stop())
	require.NoError(t, r.Stop(), "second Stop must be a no-op")

	assert.Equal(t, uint32(0), r.active.Load())
}

func TestRejectionBytesClassicHasErrMarker(t *testing.T) {
	pkt := rejectionBytes(netaddr.ProtocolClassic, "too many connections")
	require.True(t, len(pkt) > 4)
	assert.Equal(t, byte(0xFF), pkt[4])
}

func TestRejectionBytesExtendedHasNoticeType(t *testing.T) {
	pkt := rejectionBytes(netaddr.ProtocolExtended, "too many connections")
	require.True(t, len(pkt) > 5)
	assert.Equal(t, byte(extendedRejectionType), pkt[4])
}
