package solana

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePublicKey(t *testing.T) {
	const sol = "So11111111111111111111111111111111111111112"
	pk, err := ParsePublicKey(sol)
	require.NoError(t, err)
	assert.Equal(t, sol, pk.String())
	assert.True(t, IsPublicKey(sol))

	assert.False(t, IsPublicKey(""))
	assert.False(t, IsPublicKey("abc"))
	assert.False(t, IsPublicKey("0000000000000000000000000000000000000000000"))
}
