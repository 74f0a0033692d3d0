package metadatacache

import (
	"sync"

	"github.com/dbrouter/routingcore/internal/netaddr"
)

// StaticClient is an in-memory Client used by tests and by the
// "metadata-cache" sample config that ships without etcd configured.
// It is safe for concurrent use.
type StaticClient struct {
	mu      sync.RWMutex
	members map[string]map[Role][]netaddr.Address
}

// NewStaticClient returns an empty StaticClient; populate it with Set.
func NewStaticClient() *StaticClient {
	return &StaticClient{members: make(map[string]map[Role][]netaddr.Address)}
}

// Set replaces the address list for cacheName/role.
func (c *StaticClient) Set(cacheName string, role Role, addrs []netaddr.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.members[cacheName] == nil {
		c.members[cacheName] = make(map[Role][]netaddr.Address)
	}
	c.members[cacheName][role] = append([]netaddr.Address(nil), addrs...)
}

// Lookup implements Client.
func (c *StaticClient) Lookup(cacheName string, role Role) ([]netaddr.Address, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]netaddr.Address(nil), c.members[cacheName][role]...), nil
}

var _ Client = (*StaticClient)(nil)
