//go:build unix

package socketops

import (
	"context"
	"net"
	"time"

	"github.com/dbrouter/routingcore/internal/netaddr"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// real is the production SocketOps: every operation is a thin wrapper
// over golang.org/x/sys/unix, build-tagged to unix targets only.
type real struct {
	resolver *net.Resolver
}

// Real returns the production SocketOps singleton implementation. Its
// lifetime is meant to span from program start to program exit, and
// it is threaded explicitly into Route/Router construction rather than
// hidden behind a package-level global.
func Real() SocketOps {
	return &real{resolver: net.DefaultResolver}
}

func toSockaddr(addr netaddr.Address) (unix.Sockaddr, int, error) {
	ip := net.ParseIP(addr.Host)
	if ip == nil {
		ips, err := net.DefaultResolver.LookupIPAddr(context.Background(), addr.Host)
		if err != nil || len(ips) == 0 {
			return nil, 0, errors.Errorf("cannot resolve %q", addr.Host)
		}
		ip = ips[0].IP
	}
	if v4 := ip.To4(); v4 != nil {
		var sa unix.SockaddrInet4
		sa.Port = int(addr.Port)
		copy(sa.Addr[:], v4)
		return &sa, unix.AF_INET, nil
	}
	v6 := ip.To16()
	if v6 == nil {
		return nil, 0, errors.Errorf("address %q is neither v4 nor v6", addr.Host)
	}
	var sa unix.SockaddrInet6
	sa.Port = int(addr.Port)
	copy(sa.Addr[:], v6)
	return &sa, unix.AF_INET6, nil
}

func (r *real) Open(family Family, _ SockType) (Handle, error) {
	domain := unix.AF_INET
	switch family {
	case FamilyINet6:
		domain = unix.AF_INET6
	case FamilyUnix:
		domain = unix.AF_UNIX
	}
	fd, err := unix.Socket(domain, unix.SOCK_STREAM, 0)
	if err != nil {
		return 0, errors.Wrap(err, "socket")
	}
	return Handle(fd), nil
}

func (r *real) Bind(h Handle, addr netaddr.Address) error {
	sa, _, err := toSockaddr(addr)
	if err != nil {
		return err
	}
	return errors.Wrap(unix.Bind(int(h), sa), "bind")
}

func (r *real) BindUnix(h Handle, path string) error {
	return errors.Wrap(unix.Bind(int(h), &unix.SockaddrUnix{Name: path}), "bind unix")
}

func (r *real) Listen(h Handle, backlog int) error {
	return errors.Wrap(unix.Listen(int(h), backlog), "listen")
}

func (r *real) Accept(h Handle) (Handle, netaddr.Address, error) {
	fd, sa, err := unix.Accept(int(h))
	if err != nil {
		return 0, netaddr.Address{}, errors.Wrap(err, "accept")
	}
	return Handle(fd), sockaddrToAddress(sa), nil
}

func sockaddrToAddress(sa unix.Sockaddr) netaddr.Address {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return netaddr.New(net.IP(v.Addr[:]).String(), uint16(v.Port))
	case *unix.SockaddrInet6:
		return netaddr.New(net.IP(v.Addr[:]).String(), uint16(v.Port))
	case *unix.SockaddrUnix:
		return netaddr.New(v.Name, 0)
	default:
		return netaddr.Address{}
	}
}

func (r *real) Connect(h Handle, addr netaddr.Address) (ConnectStatus, error) {
	sa, _, err := toSockaddr(addr)
	if err != nil {
		return ConnectFailed, err
	}
	err = unix.Connect(int(h), sa)
	if err == nil {
		return ConnectOK, nil
	}
	if errors.Is(err, unix.EINPROGRESS) {
		return ConnectInProgress, nil
	}
	return ConnectFailed, err
}

func (r *real) ConnectStatus(h Handle) error {
	soErr, err := unix.GetsockoptInt(int(h), unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return errors.Wrap(err, "getsockopt(SO_ERROR)")
	}
	if soErr != 0 {
		return unix.Errno(soErr)
	}
	return nil
}

func (r *real) Poll(entries []PollEntry, timeout time.Duration) (int, error) {
	fds := make([]unix.PollFd, len(entries))
	for i, e := range entries {
		fds[i] = unix.PollFd{Fd: int32(e.Handle)}
		if e.WantWritable {
			fds[i].Events |= unix.POLLOUT
		}
	}
	n, err := unix.Poll(fds, int(timeout.Milliseconds()))
	if err != nil {
		return 0, errors.Wrap(err, "poll")
	}
	for i := range entries {
		entries[i].Writable = fds[i].Revents&unix.POLLOUT != 0
	}
	return n, nil
}

func (r *real) Read(h Handle, buf []byte) (int, error) {
	n, err := unix.Read(int(h), buf)
	if err != nil {
		return -1, errors.Wrap(err, "read")
	}
	return n, nil
}

func (r *real) Write(h Handle, buf []byte) (int, error) {
	n, err := unix.Write(int(h), buf)
	if err != nil {
		return -1, errors.Wrap(err, "write")
	}
	return n, nil
}

func (r *real) SetBlocking(h Handle, blocking bool) error {
	return errors.Wrap(unix.SetNonblock(int(h), !blocking), "set_blocking")
}

func (r *real) SetNoDelay(h Handle, enabled bool) error {
	v := 0
	if enabled {
		v = 1
	}
	return errors.Wrap(unix.SetsockoptInt(int(h), unix.IPPROTO_TCP, unix.TCP_NODELAY, v), "setsockopt(TCP_NODELAY)")
}

func (r *real) Shutdown(h Handle) error {
	err := unix.Shutdown(int(h), unix.SHUT_RDWR)
	if err != nil && !errors.Is(err, unix.ENOTCONN) {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

func (r *real) Close(h Handle) error {
	err := unix.Close(int(h))
	if err != nil && !errors.Is(err, unix.EBADF) {
		return errors.Wrap(err, "close")
	}
	return nil
}

func (r *real) Resolve(host string, port uint16) ([]netaddr.Address, error) {
	ips, err := r.resolver.LookupIPAddr(context.Background(), host)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %q", host)
	}
	addrs := make([]netaddr.Address, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, netaddr.New(ip.IP.String(), port))
	}
	return addrs, nil
}

var _ SocketOps = (*real)(nil)
