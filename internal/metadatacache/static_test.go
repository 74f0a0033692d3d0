package metadatacache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbrouter/routingcore/internal/netaddr"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole("PRIMARY")
	require.NoError(t, err)
	assert.Equal(t, RolePrimary, r)

	_, err = ParseRole("bogus")
	assert.Error(t, err)
}

func TestStaticClientRoundTrip(t *testing.T) {
	c := NewStaticClient()
	addr := netaddr.New("10.0.0.1", 3306)
	c.Set("mycluster", RolePrimary, []netaddr.Address{addr})

	got, err := c.Lookup("mycluster", RolePrimary)
	require.NoError(t, err)
	assert.Equal(t, []netaddr.Address{addr}, got)

	got, err = c.Lookup("unknown", RolePrimary)
	require.NoError(t, err)
	assert.Empty(t, got)
}
