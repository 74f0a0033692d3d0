// Package socketopsmock provides a hand-authored gomock.Controller
// based mock of socketops.SocketOps, in the shape mockgen would
// produce, for tests that need to script an exact call sequence (the
// framer's TestCopyPackets* tests, the connect procedure's refused
// versus timed-out tests, and the route tests).
package socketopsmock

import (
	"reflect"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/dbrouter/routingcore/internal/netaddr"
	"github.com/dbrouter/routingcore/internal/socketops"
)

// MockSocketOps is a mock of the SocketOps interface.
type MockSocketOps struct {
	ctrl     *gomock.Controller
	recorder *MockSocketOpsMockRecorder
}

// MockSocketOpsMockRecorder is the recorder for MockSocketOps.
type MockSocketOpsMockRecorder struct {
	mock *MockSocketOps
}

// NewMockSocketOps constructs a new mock.
func NewMockSocketOps(ctrl *gomock.Controller) *MockSocketOps {
	m := &MockSocketOps{ctrl: ctrl}
	m.recorder = &MockSocketOpsMockRecorder{m}
	return m
}

// EXPECT returns the recorder used to set up expectations.
func (m *MockSocketOps) EXPECT() *MockSocketOpsMockRecorder {
	return m.recorder
}

func (m *MockSocketOps) Open(family socketops.Family, typ socketops.SockType) (socketops.Handle, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Open", family, typ)
	h, _ := ret[0].(socketops.Handle)
	err, _ := ret[1].(error)
	return h, err
}

func (mr *MockSocketOpsMockRecorder) Open(family, typ any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Open", reflect.TypeOf((*MockSocketOps)(nil).Open), family, typ)
}

func (m *MockSocketOps) Bind(h socketops.Handle, addr netaddr.Address) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Bind", h, addr)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockSocketOpsMockRecorder) Bind(h, addr any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Bind", reflect.TypeOf((*MockSocketOps)(nil).Bind), h, addr)
}

func (m *MockSocketOps) BindUnix(h socketops.Handle, path string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BindUnix", h, path)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockSocketOpsMockRecorder) BindUnix(h, path any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BindUnix", reflect.TypeOf((*MockSocketOps)(nil).BindUnix), h, path)
}

func (m *MockSocketOps) Listen(h socketops.Handle, backlog int) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Listen", h, backlog)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockSocketOpsMockRecorder) Listen(h, backlog any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Listen", reflect.TypeOf((*MockSocketOps)(nil).Listen), h, backlog)
}

func (m *MockSocketOps) Accept(h socketops.Handle) (socketops.Handle, netaddr.Address, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Accept", h)
	nh, _ := ret[0].(socketops.Handle)
	addr, _ := ret[1].(netaddr.Address)
	err, _ := ret[2].(error)
	return nh, addr, err
}

func (mr *MockSocketOpsMockRecorder) Accept(h any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Accept", reflect.TypeOf((*MockSocketOps)(nil).Accept), h)
}

func (m *MockSocketOps) Connect(h socketops.Handle, addr netaddr.Address) (socketops.ConnectStatus, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Connect", h, addr)
	st, _ := ret[0].(socketops.ConnectStatus)
	err, _ := ret[1].(error)
	return st, err
}

func (mr *MockSocketOpsMockRecorder) Connect(h, addr any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Connect", reflect.TypeOf((*MockSocketOps)(nil).Connect), h, addr)
}

func (m *MockSocketOps) ConnectStatus(h socketops.Handle) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ConnectStatus", h)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockSocketOpsMockRecorder) ConnectStatus(h any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ConnectStatus", reflect.TypeOf((*MockSocketOps)(nil).ConnectStatus), h)
}

func (m *MockSocketOps) Poll(entries []socketops.PollEntry, timeout time.Duration) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Poll", entries, timeout)
	n, _ := ret[0].(int)
	err, _ := ret[1].(error)
	return n, err
}

func (mr *MockSocketOpsMockRecorder) Poll(entries, timeout any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Poll", reflect.TypeOf((*MockSocketOps)(nil).Poll), entries, timeout)
}

func (m *MockSocketOps) Read(h socketops.Handle, buf []byte) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Read", h, buf)
	n, _ := ret[0].(int)
	err, _ := ret[1].(error)
	return n, err
}

func (mr *MockSocketOpsMockRecorder) Read(h, buf any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Read", reflect.TypeOf((*MockSocketOps)(nil).Read), h, buf)
}

func (m *MockSocketOps) Write(h socketops.Handle, buf []byte) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Write", h, buf)
	n, _ := ret[0].(int)
	err, _ := ret[1].(error)
	return n, err
}

func (mr *MockSocketOpsMockRecorder) Write(h, buf any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Write", reflect.TypeOf((*MockSocketOps)(nil).Write), h, buf)
}

func (m *MockSocketOps) SetBlocking(h socketops.Handle, blocking bool) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SetBlocking", h, blocking)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockSocketOpsMockRecorder) SetBlocking(h, blocking any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetBlocking", reflect.TypeOf((*MockSocketOps)(nil).SetBlocking), h, blocking)
}

func (m *MockSocketOps) SetNoDelay(h socketops.Handle, enabled bool) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SetNoDelay", h, enabled)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockSocketOpsMockRecorder) SetNoDelay(h, enabled any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetNoDelay", reflect.TypeOf((*MockSocketOps)(nil).SetNoDelay), h, enabled)
}

func (m *MockSocketOps) Shutdown(h socketops.Handle) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Shutdown", h)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockSocketOpsMockRecorder) Shutdown(h any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Shutdown", reflect.TypeOf((*MockSocketOps)(nil).Shutdown), h)
}

func (m *MockSocketOps) Close(h socketops.Handle) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Close", h)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockSocketOpsMockRecorder) Close(h any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Close", reflect.TypeOf((*MockSocketOps)(nil).Close), h)
}

func (m *MockSocketOps) Resolve(host string, port uint16) ([]netaddr.Address, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Resolve", host, port)
	addrs, _ := ret[0].([]netaddr.Address)
	err, _ := ret[1].(error)
	return addrs, err
}

func (mr *MockSocketOpsMockRecorder) Resolve(host, port any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Resolve", reflect.TypeOf((*MockSocketOps)(nil).Resolve), host, port)
}

var _ socketops.SocketOps = (*MockSocketOps)(nil)
