package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLength(t *testing.T) {
	s, err := Generate()
	require.NoError(t, err)
	assert.Len(t, s, 32)
	assert.NotContains(t, s, ".")
}

func TestGenerateIndependentDraws(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		s, err := Generate()
		require.NoError(t, err)
		_, dup := seen[s]
		require.False(t, dup, "duplicate identifier generated: %s", s)
		seen[s] = struct{}{}
	}
}
