// Package destination implements DestinationSet (C4): the ordered or
// dynamically-resolved set of backend addresses a Route selects from
// for each new client connection.
package destination

import (
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/dbrouter/routingcore/internal/accessmode"
	"github.com/dbrouter/routingcore/internal/metadatacache"
	"github.com/dbrouter/routingcore/internal/netaddr"
)

// Set selects the next backend address to try for a new connection.
// Next returns ok=false when the set has no usable address right now
// (NoDestination).
type Set interface {
	// Next returns the next candidate address to try, round-robin.
	Next(mode accessmode.AccessMode) (netaddr.Address, bool)
	// Size reports how many distinct candidates currently back this
	// set, for bounding the pair worker's exhaustion loop.
	Size() int
}

// Static is a fixed, CSV-configured destination list. The round-robin
// cursor is sticky: it is not reset between connections, so repeated
// failures on one backend do not monopolize every new client's first
// attempt.
type Static struct {
	mu   sync.Mutex
	list []netaddr.Address
	idx  int
}

// NewStaticFromCSV parses a comma-separated Address list. Elements
// without an explicit port take protocol's default port. It fails if
// the list is empty, any element fails to parse, or any element's
// (host,port) equals bindAddr (self-loop prevention).
func NewStaticFromCSV(csv string, protocol netaddr.Protocol, bindAddr netaddr.Address) (*Static, error) {
	parts := strings.Split(csv, ",")
	list := make([]netaddr.Address, 0, len(parts))
	for _, raw := range parts {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		addr, err := netaddr.Parse(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "destination %q", raw)
		}
		addr = addr.WithDefaultPort(protocol)
		if addr.Equal(bindAddr) {
			return nil, errors.Errorf("destination %s is the same as the route's own bind address (self-loop)", addr)
		}
		list = append(list, addr)
	}
	if len(list) == 0 {
		return nil, errors.New("destination CSV list is empty")
	}
	return &Static{list: list}, nil
}

// Next implements Set.
func (s *Static) Next(_ accessmode.AccessMode) (netaddr.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.list) == 0 {
		return netaddr.Address{}, false
	}
	addr := s.list[s.idx%len(s.list)]
	s.idx = (s.idx + 1) % len(s.list)
	return addr, true
}

// Size implements Set.
func (s *Static) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.list)
}

// Dynamic resolves its candidate list lazily, once per new-connection
// event, from a metadata cache client filtered by role, then
// round-robins within that snapshot.
type Dynamic struct {
	mu        sync.Mutex
	client    metadatacache.Client
	cacheName string
	role      metadatacache.Role
	idx       int
}

// NewDynamic constructs a Dynamic destination set backed by client,
// looking up cacheName filtered by role on every Next call.
func NewDynamic(client metadatacache.Client, cacheName string, role metadatacache.Role) *Dynamic {
	return &Dynamic{client: client, cacheName: cacheName, role: role}
}

// Next implements Set. access_mode=ReadOnly on a PRIMARY_AND_SECONDARY
// set prefers Secondary when the snapshot has one and falls back to
// Primary otherwise; on any other set it looks up the configured role.
// ReadWrite requires Primary and fails (NoDestination) if the snapshot
// has none.
func (d *Dynamic) Next(mode accessmode.AccessMode) (netaddr.Address, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	role := d.role
	switch mode {
	case accessmode.ReadOnly:
		if role == metadatacache.RolePrimaryAndSecondary {
			role = metadatacache.RoleSecondary
		}
	case accessmode.ReadWrite:
		role = metadatacache.RolePrimary
	}

	snapshot, err := d.client.Lookup(d.cacheName, role)
	if mode == accessmode.ReadOnly && d.role == metadatacache.RolePrimaryAndSecondary && err == nil && len(snapshot) == 0 {
		snapshot, err = d.client.Lookup(d.cacheName, metadatacache.RolePrimary)
	}
	if err != nil || len(snapshot) == 0 {
		return netaddr.Address{}, false
	}
	addr := snapshot[d.idx%len(snapshot)]
	d.idx = (d.idx + 1) % len(snapshot)
	return addr, true
}

// Size implements Set. For a Dynamic set this is necessarily a
// best-effort snapshot size, since membership can change between
// calls; it is used only to bound a single connection's exhaustion
// loop, never as a persisted invariant.
func (d *Dynamic) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	snapshot, err := d.client.Lookup(d.cacheName, d.role)
	if err != nil {
		return 0
	}
	return len(snapshot)
}

const uriScheme = "metadata-cache"

// NewFromURI parses a "metadata-cache://<name>?role=..." destination
// URI and constructs a Dynamic set against client. The cache name is
// everything between "://" and "?" with one trailing '/' removed, so
// "metadata-cache://c/default?role=PRIMARY" names the cache "c/default".
func NewFromURI(raw string, client metadatacache.Client) (*Dynamic, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return nil, errors.Errorf("invalid destination URI: %q", raw)
	}
	if scheme != uriScheme {
		return nil, errors.Errorf("Invalid URI scheme; expecting: 'metadata-cache' is: '%s'", scheme)
	}

	name, query, _ := strings.Cut(rest, "?")
	name = strings.TrimSuffix(name, "/")
	if name == "" {
		return nil, errors.New("destination URI is missing a cache name")
	}

	roleStr := ""
	for _, kv := range strings.Split(query, "&") {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k == "role" {
			roleStr = v
		}
	}
	if roleStr == "" {
		return nil, errors.New("Missing 'role' in routing destination specification")
	}

	role, err := metadatacache.ParseRole(roleStr)
	if err != nil {
		return nil, err
	}

	return NewDynamic(client, name, role), nil
}

// ErrNoDestination reports that a Set has no currently usable
// address, e.g. an empty Static list segment or an empty Dynamic
// snapshot for the requested role.
var ErrNoDestination = errors.New("destination: no usable destination for this access mode")

var _ Set = (*Static)(nil)
var _ Set = (*Dynamic)(nil)
