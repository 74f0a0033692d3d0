package destination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbrouter/routingcore/internal/accessmode"
	"github.com/dbrouter/routingcore/internal/metadatacache"
	"github.com/dbrouter/routingcore/internal/netaddr"
)

func mustAddr(t *testing.T, raw string) netaddr.Address {
	t.Helper()
	a, err := netaddr.Parse(raw)
	require.NoError(t, err)
	return a
}

func TestStaticFromCSVRoundRobin(t *testing.T) {
	bind := mustAddr(t, "127.0.0.1:6446")
	set, err := NewStaticFromCSV("10.0.0.1:3306,10.0.0.2:3306", netaddr.ProtocolClassic, bind)
	require.NoError(t, err)
	require.Equal(t, 2, set.Size())

	first, ok := set.Next(accessmode.ReadWrite)
	require.True(t, ok)
	second, ok := set.Next(accessmode.ReadWrite)
	require.True(t, ok)
	third, ok := set.Next(accessmode.ReadWrite)
	require.True(t, ok)

	assert.Equal(t, first, third, "round robin wraps back to the first element")
	assert.NotEqual(t, first, second)
}

func TestStaticFromCSVEmptyFails(t *testing.T) {
	bind := mustAddr(t, "127.0.0.1:6446")
	_, err := NewStaticFromCSV("  ,  ", netaddr.ProtocolClassic, bind)
	assert.Error(t, err)
}

func TestStaticFromCSVSelfLoopFails(t *testing.T) {
	bind := mustAddr(t, "127.0.0.1:3306")

	_, err := NewStaticFromCSV("127.0.0.1", netaddr.ProtocolClassic, bind)
	assert.Error(t, err, "bare host defaults to the classic port and self-loops")

	_, err = NewStaticFromCSV("127.0.0.1:3306", netaddr.ProtocolClassic, bind)
	assert.Error(t, err)

	_, err = NewStaticFromCSV("127.0.0.1:33060", netaddr.ProtocolClassic, bind)
	assert.NoError(t, err, "a different port is not a self-loop")
}

func TestDynamicFiltersByAccessMode(t *testing.T) {
	client := metadatacache.NewStaticClient()
	primary := mustAddr(t, "10.0.0.1:3306")
	secondary := mustAddr(t, "10.0.0.2:3306")
	client.Set("mycluster", metadatacache.RolePrimary, []netaddr.Address{primary})
	client.Set("mycluster", metadatacache.RoleSecondary, []netaddr.Address{secondary})

	set := NewDynamic(client, "mycluster", metadatacache.RolePrimaryAndSecondary)

	got, ok := set.Next(accessmode.ReadWrite)
	require.True(t, ok)
	assert.Equal(t, primary, got)

	got, ok = set.Next(accessmode.ReadOnly)
	require.True(t, ok)
	assert.Equal(t, secondary, got)
}

func TestDynamicNoDestinationWhenEmpty(t *testing.T) {
	client := metadatacache.NewStaticClient()
	set := NewDynamic(client, "mycluster", metadatacache.RolePrimary)

	_, ok := set.Next(accessmode.ReadWrite)
	assert.False(t, ok)
}

func TestNewFromURIValid(t *testing.T) {
	client := metadatacache.NewStaticClient()
	set, err := NewFromURI("metadata-cache://mycluster?role=SECONDARY", client)
	require.NoError(t, err)
	assert.Equal(t, metadatacache.RoleSecondary, set.role)
	assert.Equal(t, "mycluster", set.cacheName)
}

func TestNewFromURIMissingRole(t *testing.T) {
	client := metadatacache.NewStaticClient()
	_, err := NewFromURI("metadata-cache://mycluster", client)
	require.Error(t, err)
	assert.Equal(t, "Missing 'role' in routing destination specification", err.Error())
}

func TestNewFromURIWrongScheme(t *testing.T) {
	client := metadatacache.NewStaticClient()
	_, err := NewFromURI("http://mycluster?role=PRIMARY", client)
	require.Error(t, err)
	assert.Equal(t, "Invalid URI scheme; expecting: 'metadata-cache' is: 'http'", err.Error())
}
