package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SchemaRecorder(t *testing.T) {
	r := New()

	r.JSONPass()
	r.JSONRetryPass()
	r.JSONFail()
	r.JSONFallback()
	r.JSONEnforceDuration(50 * time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(r.jsonPass))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.jsonRetryPass))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.jsonFail))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.jsonFallback))
}

func TestRegistry_OnIndexGrow(t *testing.T) {
	r := New()
	grow := r.OnIndexGrow()
	grow("grades")
	grow("grades")

	assert.Equal(t, float64(2), testutil.ToFloat64(r.provenanceIndexSize.WithLabelValues("grades")))
}

func TestRegistry_Gatherer(t *testing.T) {
	r := New()
	r.ObserveHTTP("/api/chat", "POST", "200", 10*time.Millisecond)

	families, err := r.Gatherer().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
