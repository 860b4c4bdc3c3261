package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCacheKeyDeterministic(t *testing.T) {
	embedding := []float32{0.1, 0.2, 0.3}
	k1, err := searchCacheKey(embedding, 10)
	require.NoError(t, err)
	k2, err := searchCacheKey(embedding, 10)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestSearchCacheKeyChangesWithTopK(t *testing.T) {
	embedding := []float32{0.1, 0.2, 0.3}
	k1, err := searchCacheKey(embedding, 10)
	require.NoError(t, err)
	k2, err := searchCacheKey(embedding, 5)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestSearchCacheKeyUsesOnlyLeadingDimensions(t *testing.T) {
	base := make([]float32, 10)
	for i := range base {
		base[i] = float32(i) / 10
	}
	extended := append(append([]float32{}, base...), 0.999)

	k1, err := searchCacheKey(base, 10)
	require.NoError(t, err)
	k2, err := searchCacheKey(extended, 10)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}
