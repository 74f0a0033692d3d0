package accessmode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameRoundTrip(t *testing.T) {
	for _, s := range []string{"read-write", "read-only"} {
		m := Parse(s)
		name, err := m.Name()
		require.NoError(t, err)
		assert.Equal(t, s, name)
	}
}

func TestUndefined(t *testing.T) {
	assert.Equal(t, Undefined, Parse("bogus"))
	_, err := Undefined.Name()
	assert.Error(t, err)
}
