// Package socketops narrows every raw network syscall the routing
// core needs down to one capability interface, so that Route and
// ConnectProcedure can be driven from a mock in tests instead of a
// live kernel.
package socketops

import (
	"time"

	"github.com/dbrouter/routingcore/internal/netaddr"
)

// Handle is an opaque, comparable reference to a kernel socket. The
// zero Handle is never valid.
type Handle int

// Family selects the address family passed to Open.
type Family int

const (
	FamilyUnspec Family = iota
	FamilyINet
	FamilyINet6
	FamilyUnix
)

// SockType selects the socket type passed to Open.
type SockType int

const (
	SockStream SockType = iota
)

// ConnectStatus is the tri-state result of a non-blocking Connect
// attempt, mirroring the distinction the connect procedure needs
// between "connected immediately", "in progress, wait for
// writability" and "failed outright".
type ConnectStatus int

const (
	ConnectOK ConnectStatus = iota
	ConnectInProgress
	ConnectFailed
)

// PollEntry mirrors one pollfd: a handle plus the events of interest.
// Only "wait for writability" is used by this core (waiting on a
// non-blocking connect), but the shape stays general.
type PollEntry struct {
	Handle       Handle
	WantWritable bool
	Writable     bool
}

// SocketOps is the process-wide singleton capability used for every
// blocking or non-blocking network operation in the core. Production
// code is handed the real implementation (see Real()); tests inject a
// scripted mock (see socketops/socketopsmock).
type SocketOps interface {
	Open(family Family, typ SockType) (Handle, error)
	Bind(h Handle, addr netaddr.Address) error
	BindUnix(h Handle, path string) error
	Listen(h Handle, backlog int) error
	Accept(h Handle) (Handle, netaddr.Address, error)

	// Connect attempts a non-blocking connect. ConnectOK means the
	// socket is usable immediately; ConnectInProgress means the
	// caller must Poll for writability before calling ConnectStatus.
	Connect(h Handle, addr netaddr.Address) (ConnectStatus, error)
	// ConnectStatus reads SO_ERROR after a poll-for-writable returns,
	// distinguishing a completed connect from a failed one.
	ConnectStatus(h Handle) error

	// Poll blocks up to timeout waiting for the requested readiness
	// on every entry, mutating Writable in place. It returns the
	// number of ready entries, 0 on timeout, or an error.
	Poll(entries []PollEntry, timeout time.Duration) (int, error)

	// Read performs one read; n==0 with a nil error is orderly EOF.
	Read(h Handle, buf []byte) (int, error)
	// Write performs one write attempt; n==0 with a nil error is not
	// an error and must be retried by the caller.
	Write(h Handle, buf []byte) (int, error)

	SetBlocking(h Handle, blocking bool) error
	SetNoDelay(h Handle, enabled bool) error

	Shutdown(h Handle) error
	Close(h Handle) error

	// Resolve stands in for getaddrinfo(AF_UNSPEC, SOCK_STREAM, ...):
	// it returns every candidate address for host, in the order the
	// resolver produced them.
	Resolve(host string, port uint16) ([]netaddr.Address, error)
}
