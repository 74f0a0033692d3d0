// Package route implements Route (C6): the accept loops, admission
// control and client<->backend relay for one configured route.
package route

import (
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/dbrouter/routingcore/internal/accessmode"
	"github.com/dbrouter/routingcore/internal/config"
	"github.com/dbrouter/routingcore/internal/connectproc"
	"github.com/dbrouter/routingcore/internal/destination"
	"github.com/dbrouter/routingcore/internal/framer"
	"github.com/dbrouter/routingcore/internal/metadatacache"
	"github.com/dbrouter/routingcore/internal/netaddr"
	"github.com/dbrouter/routingcore/internal/rlog"
	"github.com/dbrouter/routingcore/internal/socketops"
	"github.com/dbrouter/routingcore/internal/threadname"
	"github.com/dbrouter/routingcore/pkg/errcounter"
)

// Error-type labels reported through errcounter, exposed via Stats.
const (
	errTypeBlocked       = "admission_blocked_ip"
	errTypeAtCapacity    = "admission_at_capacity"
	errTypeDialExhausted = "dial_exhausted"
)

// state is the Route lifecycle: Configured -> Started -> Stopping -> Stopped.
type state int

const (
	stateConfigured state = iota
	stateStarted
	stateStopping
	stateStopped
)

// ConnectionPair owns the two fds of one client<->backend relay. The
// per-direction framers that account classic sequence numbers or
// watch for extended ConnectionClose are created by relay, one per
// direction, and are not stored here.
type ConnectionPair struct {
	id      string
	client  socketops.Handle
	backend socketops.Handle
}

// Route binds one or more listeners for a single named route and
// relays accepted clients to a destination set, enforcing admission
// control and per-IP error blacklisting.
type Route struct {
	name       string
	mode       accessmode.AccessMode
	protocol   netaddr.Protocol
	bindTCP    *netaddr.Address
	bindLocal  string
	netBufLen  uint32

	destinations destination.Set

	ops            socketops.SocketOps
	connectTimeout time.Duration
	clientTimeout  time.Duration
	maxConnections uint32
	maxConnErrors  uint64

	mu       sync.Mutex
	st       state
	tcpLn    socketops.Handle
	localLn  socketops.Handle
	hasTCP   bool
	hasLocal bool

	active  atomic.Uint32
	wg      sync.WaitGroup

	countersMu     sync.Mutex
	errorCounters  map[string]uint64
	blocked        map[string]struct{}

	totalAccepts atomic.Uint64
	errs         errcounter.ErrCounter
}

// Stats is a snapshot of a Route's runtime counters, for Router's
// aggregate reporting.
type Stats struct {
	Name           string
	Active         uint32
	TotalAccepts   uint64
	BlockedIPCount int
	ErrorCounts    map[string]uint64
}

// New validates cfg and constructs a Route in the Configured state.
// Every failure here is a ConfigInvalid-class error: bad CSV,
// self-loop destination, unknown URI scheme, missing role, undefined
// access mode, or an out-of-range port.
func New(cfg config.RouteConfig, ops socketops.SocketOps, mdClient metadatacache.Client) (*Route, error) {
	cfg.ApplyDefaults()

	mode := accessmode.Parse(cfg.Mode)
	if mode == accessmode.Undefined {
		return nil, errors.Errorf("route %q: undefined access mode %q", cfg.Name, cfg.Mode)
	}

	protocol := netaddr.ProtocolClassic
	if cfg.Protocol == "x" || cfg.Protocol == "extended" {
		protocol = netaddr.ProtocolExtended
	}

	var bindTCP *netaddr.Address
	if cfg.BindAddress != "" {
		addr, err := netaddr.Parse(cfg.BindAddress)
		if err != nil {
			return nil, errors.Wrapf(err, "route %q: bind_address", cfg.Name)
		}
		if cfg.BindPort != 0 {
			addr.Port = cfg.BindPort
		}
		addr = addr.WithDefaultPort(protocol)
		bindTCP = &addr
	}

	if bindTCP == nil && cfg.Socket == "" {
		return nil, errors.Errorf("route %q: neither bind_address nor socket configured", cfg.Name)
	}

	dests, err := parseDestinations(cfg.Destinations, protocol, bindTCP, mdClient)
	if err != nil {
		return nil, errors.Wrapf(err, "route %q: destinations", cfg.Name)
	}

	r := &Route{
		name:           cfg.Name,
		mode:           mode,
		protocol:       protocol,
		bindTCP:        bindTCP,
		bindLocal:      cfg.Socket,
		netBufLen:      cfg.NetBufferLength,
		destinations:   dests,
		ops:            ops,
		connectTimeout: time.Duration(cfg.ConnectTimeoutSec) * time.Second,
		clientTimeout:  time.Duration(cfg.ClientConnTimeoutSec) * time.Second,
		maxConnections: cfg.MaxConnections,
		maxConnErrors:  cfg.MaxConnectErrors,
		errorCounters:  make(map[string]uint64),
		blocked:        make(map[string]struct{}),
		errs:           errcounter.New(),
		st:             stateConfigured,
	}
	return r, nil
}

func parseDestinations(raw string, protocol netaddr.Protocol, bindTCP *netaddr.Address, mdClient metadatacache.Client) (destination.Set, error) {
	if raw == "" {
		return nil, errors.New("destinations must not be empty")
	}
	if len(raw) > len("metadata-cache://") && raw[:len("metadata-cache://")] == "metadata-cache://" {
		return destination.NewFromURI(raw, mdClient)
	}

	var bind netaddr.Address
	if bindTCP != nil {
		bind = *bindTCP
	}
	return destination.NewStaticFromCSV(raw, protocol, bind)
}

// Name returns the route's configured name.
func (r *Route) Name() string { return r.name }

// Start transitions Configured -> Started: binds and listens on every
// configured listener and spawns one accept-loop goroutine per
// listener. A bind/listen failure is FatalSetup and leaves the Route
// in Configured so the caller can retry or give up.
func (r *Route) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.st != stateConfigured {
		return errors.Errorf("route %q: Start called in state %d", r.name, r.st)
	}

	if r.bindTCP != nil {
		h, err := r.ops.Open(socketops.FamilyINet, socketops.SockStream)
		if err != nil {
			return errors.Wrap(err, "open TCP listener")
		}
		if err := r.ops.Bind(h, *r.bindTCP); err != nil {
			return errors.Wrapf(err, "bind %s", r.bindTCP)
		}
		if err := r.ops.Listen(h, 128); err != nil {
			return errors.Wrapf(err, "listen %s", r.bindTCP)
		}
		r.tcpLn = h
		r.hasTCP = true
	}

	if r.bindLocal != "" {
		h, err := r.ops.Open(socketops.FamilyUnix, socketops.SockStream)
		if err != nil {
			return errors.Wrap(err, "open unix listener")
		}
		if err := r.ops.BindUnix(h, r.bindLocal); err != nil {
			return errors.Wrapf(err, "bind %s", r.bindLocal)
		}
		if err := r.ops.Listen(h, 128); err != nil {
			return errors.Wrapf(err, "listen %s", r.bindLocal)
		}
		r.localLn = h
		r.hasLocal = true
	}

	r.st = stateStarted

	threadPrefix := threadname.Make(r.name, "RtS")
	if r.hasTCP {
		r.wg.Add(1)
		go r.acceptLoop(r.tcpLn, threadPrefix)
	}
	if r.hasLocal {
		r.wg.Add(1)
		go r.acceptLoop(r.localLn, threadPrefix)
	}
	return nil
}

// Stop transitions Started -> Stopping -> Stopped, idempotently: it
// shuts down every listener (unblocking accept), waits for the
// accept loops to return, then waits for every pair worker to finish.
// It does not shut down the sockets of active pairs, so it returns
// only once each of those relays has ended on its own. Calling Stop
// on an already-stopped or never-started Route is a no-op.
func (r *Route) Stop() error {
	r.mu.Lock()
	if r.st == stateStopped || r.st == stateConfigured {
		r.mu.Unlock()
		return nil
	}
	if r.st == stateStopping {
		r.mu.Unlock()
		r.wg.Wait()
		return nil
	}
	r.st = stateStopping
	if r.hasTCP {
		_ = r.ops.Shutdown(r.tcpLn)
	}
	if r.hasLocal {
		_ = r.ops.Shutdown(r.localLn)
	}
	r.mu.Unlock()

	r.wg.Wait()

	r.mu.Lock()
	if r.hasTCP {
		_ = r.ops.Close(r.tcpLn)
	}
	if r.hasLocal {
		_ = r.ops.Close(r.localLn)
	}
	r.st = stateStopped
	r.mu.Unlock()
	return nil
}

// Stats returns a snapshot of the route's counters.
func (r *Route) Stats() Stats {
	r.countersMu.Lock()
	blocked := len(r.blocked)
	r.countersMu.Unlock()
	return Stats{
		Name:           r.name,
		Active:         r.active.Load(),
		TotalAccepts:   r.totalAccepts.Load(),
		BlockedIPCount: blocked,
		ErrorCounts:    r.errs.ErrorCounts(),
	}
}

// acceptLoop repeatedly accepts clients on listener until the Route's
// stop flag unblocks it via Shutdown, at which point Accept returns
// an error and the loop returns.
func (r *Route) acceptLoop(listener socketops.Handle, threadPrefix string) {
	defer r.wg.Done()
	for {
		client, peer, err := r.ops.Accept(listener)
		if err != nil {
			r.mu.Lock()
			stopping := r.st != stateStarted
			r.mu.Unlock()
			if stopping {
				return
			}
			rlog.Zero.Debug().Err(err).Str("route", r.name).Msg("accept failed")
			continue
		}
		r.totalAccepts.Inc()
		r.handleAccept(client, peer, threadPrefix)
	}
}

// handleAccept applies admission control to a freshly accepted
// client: the blacklist is checked under the counters lock and
// max_connections against the atomic active counter, and exactly one
// of {reject-and-close, admit-and-spawn} happens per accepted fd.
func (r *Route) handleAccept(client socketops.Handle, peer netaddr.Address, threadPrefix string) {
	if reason, reject := r.admissionReject(peer.Host); reject {
		_, _ = r.ops.Write(client, rejectionBytes(r.protocol, reason))
		_ = r.ops.Shutdown(client)
		_ = r.ops.Close(client)
		return
	}

	r.active.Inc()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.runPair(client, peer, threadPrefix)
	}()
}

// admissionReject reports whether a newly accepted client from ip
// must be rejected, and why.
func (r *Route) admissionReject(ip string) (string, bool) {
	r.countersMu.Lock()
	_, blocked := r.blocked[ip]
	r.countersMu.Unlock()
	if blocked {
		r.errs.ReportError(errTypeBlocked)
		return "Too many connection errors from this host; host is blocked", true
	}
	if r.active.Load() >= r.maxConnections {
		r.errs.ReportError(errTypeAtCapacity)
		return "Too many connections", true
	}
	return "", false
}

// runPair dials a destination, relays bytes in both directions until
// either side closes or errors, then tears the pair down. It always
// decrements active exactly once on return.
func (r *Route) runPair(client socketops.Handle, peer netaddr.Address, threadPrefix string) {
	defer r.active.Dec()

	backend, ok := r.dialDestination(peer.Host)
	if !ok {
		_, _ = r.ops.Write(client, rejectionBytes(r.protocol, "Unable to connect to any configured destination"))
		_ = r.ops.Shutdown(client)
		_ = r.ops.Close(client)
		return
	}

	r.resetErrorCounter(peer.Host)

	pair := &ConnectionPair{id: uuid.NewString(), client: client, backend: backend}
	rlog.Zero.Debug().Str("route", r.name).Str("pair", pair.id).Str("thread", threadPrefix).Msg("pair started")

	var wg sync.WaitGroup
	wg.Add(2)
	go r.relay(pair, pair.client, pair.backend, &wg)
	go r.relay(pair, pair.backend, pair.client, &wg)
	wg.Wait()

	_ = r.ops.Shutdown(pair.client)
	_ = r.ops.Shutdown(pair.backend)
	_ = r.ops.Close(pair.client)
	_ = r.ops.Close(pair.backend)
}

// relay pumps one direction of pair using the protocol's framer until
// a nonzero-return error or a clean EOF.
func (r *Route) relay(pair *ConnectionPair, src, dst socketops.Handle, wg *sync.WaitGroup) {
	defer wg.Done()

	var f framer.Framer
	if r.protocol == netaddr.ProtocolExtended {
		f = framer.NewExtendedFramer()
	} else {
		f = framer.NewClassicFramer()
	}

	bufLen := r.netBufLen
	if bufLen == 0 {
		bufLen = config.DefaultNetBufferLength
	}
	buf := make([]byte, bufLen)

	for {
		_, err := f.CopyOnce(r.ops, src, dst, buf, true, false)
		if err != nil {
			if isGracefulEOF(f, err) {
				rlog.Zero.Debug().Str("pair", pair.id).Msg("relay direction closed cleanly")
			} else {
				rlog.Zero.Debug().Str("pair", pair.id).Err(err).Msg("relay io error")
			}
			return
		}
	}
}

// isGracefulEOF reports whether err is an ordinary EOF on a framer
// that already observed an extended ConnectionClose notice -- such an
// EOF is expected shutdown, not a RelayIoError.
func isGracefulEOF(f framer.Framer, err error) bool {
	ext, ok := f.(*framer.ExtendedFramer)
	return ok && ext.SawConnectionClose() && errors.Is(err, io.EOF)
}

// dialDestination iterates the destination set up to its current
// size, trying each candidate via ConnectProcedure, and counts a
// failure toward blacklisting only after every candidate is
// exhausted.
func (r *Route) dialDestination(clientIP string) (socketops.Handle, bool) {
	attempts := r.destinations.Size()
	if attempts == 0 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		addr, ok := r.destinations.Next(r.mode)
		if !ok {
			break
		}
		h, outcome, err := connectproc.Connect(r.ops, addr, r.connectTimeout)
		if err == nil && outcome == connectproc.OutcomeConnected {
			return h, true
		}
	}

	r.errs.ReportError(errTypeDialExhausted)
	r.recordConnectError(clientIP)
	return 0, false
}

// recordConnectError increments clientIP's failure counter and moves
// it into the blacklist once it reaches max_connect_errors.
func (r *Route) recordConnectError(clientIP string) {
	r.countersMu.Lock()
	defer r.countersMu.Unlock()
	r.errorCounters[clientIP]++
	if r.errorCounters[clientIP] >= r.maxConnErrors {
		r.blocked[clientIP] = struct{}{}
	}
}

// resetErrorCounter clears clientIP's failure counter after a
// successful connect, per the Route invariant that error_counters[ip]
// >= max_connect_errors iff ip is blocked -- a successful connect
// never un-blocks an already-blocked ip, it only stops a
// not-yet-blocked ip from accumulating further.
func (r *Route) resetErrorCounter(clientIP string) {
	r.countersMu.Lock()
	defer r.countersMu.Unlock()
	if _, blocked := r.blocked[clientIP]; !blocked {
		r.errorCounters[clientIP] = 0
	}
}
