package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCentralityParamsClampTopN(t *testing.T) {
	p := CentralityParams{TopN: 2000}.Clamp()
	assert.Equal(t, 1000, p.TopN)
}

func TestCentralityParamsClampDamping(t *testing.T) {
	p := CentralityParams{Damping: 1.5}.Clamp()
	assert.Equal(t, 0.99, p.Damping)
}

func TestCentralityParamsClampDampingBelowMin(t *testing.T) {
	p := CentralityParams{TopN: 10, Damping: 0.001}.Clamp()
	assert.Equal(t, 0.01, p.Damping)
}

func TestCentralityParamsClampMaxIter(t *testing.T) {
	p := CentralityParams{MaxIter: 5000}.Clamp()
	assert.Equal(t, 1000, p.MaxIter)
}

func TestCentralityParamsZeroValuesUseDefaults(t *testing.T) {
	p := CentralityParams{}.Clamp()
	assert.Equal(t, 20, p.TopN)
	assert.Equal(t, 0.85, p.Damping)
	assert.Equal(t, 20, p.MaxIter)
	assert.Equal(t, 1, p.MinInDegree)
}

func TestCentralityParamsWithinRangeUnchanged(t *testing.T) {
	p := CentralityParams{TopN: 50, Damping: 0.5, MaxIter: 30, MinBetweenness: 0.2, MinInDegree: 3}.Clamp()
	assert.Equal(t, 50, p.TopN)
	assert.Equal(t, 0.5, p.Damping)
	assert.Equal(t, 30, p.MaxIter)
	assert.Equal(t, 0.2, p.MinBetweenness)
	assert.Equal(t, 3, p.MinInDegree)
}
