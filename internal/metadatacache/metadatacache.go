// Package metadatacache provides the lookup client a Dynamic
// destination set uses to resolve the current member list of a
// cluster by role.
package metadatacache

import (
	"github.com/pkg/errors"

	"github.com/dbrouter/routingcore/internal/netaddr"
)

// Role selects which members of a cluster a lookup returns.
type Role int

const (
	// RolePrimary selects the single read-write member.
	RolePrimary Role = iota
	// RoleSecondary selects read-only members.
	RoleSecondary
	// RolePrimaryAndSecondary names members of either role. Client
	// implementations look it up under its own key, like the other two
	// roles: StaticClient and EtcdClient return only the addresses
	// stored under PRIMARY_AND_SECONDARY, not the union of the PRIMARY
	// and SECONDARY entries.
	RolePrimaryAndSecondary
)

func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "PRIMARY"
	case RoleSecondary:
		return "SECONDARY"
	case RolePrimaryAndSecondary:
		return "PRIMARY_AND_SECONDARY"
	default:
		return "UNKNOWN"
	}
}

// ParseRole maps a destination URI's role= value to a Role. It
// returns an error for any value other than the three recognized
// spellings.
func ParseRole(s string) (Role, error) {
	switch s {
	case "PRIMARY":
		return RolePrimary, nil
	case "SECONDARY":
		return RoleSecondary, nil
	case "PRIMARY_AND_SECONDARY":
		return RolePrimaryAndSecondary, nil
	default:
		return 0, errors.Errorf("unsupported destination role %q", s)
	}
}

// Client resolves the current address list for a named cluster,
// filtered by role.
type Client interface {
	Lookup(cacheName string, role Role) ([]netaddr.Address, error)
}
