package uuid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDProducesUniqueUUIDs(t *testing.T) {
	t.Parallel()

	g := New()
	a, err := g.NewID()
	require.NoError(t, err)
	b, err := g.NewID()
	require.NoError(t, err)

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
