package sha256

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashIsStableHex(t *testing.T) {
	t.Parallel()

	h := New()
	got, err := h.Hash([]byte("https://example.com/reading"))
	require.NoError(t, err)

	again, err := h.Hash([]byte("https://example.com/reading"))
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Len(t, got, 64)

	other, err := h.Hash([]byte("https://example.com/other"))
	require.NoError(t, err)
	assert.NotEqual(t, got, other)
}
