package provenance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

func TestHardStaleMissingTag(t *testing.T) {
	assert.True(t, HardStale(nil, time.Now()))
}

func TestHardStaleExpiry(t *testing.T) {
	now := time.Now()
	expired := now.Add(-time.Minute).Unix()
	tag := &models.ProvenanceTag{ExpiresAt: &expired}
	assert.True(t, HardStale(tag, now))

	future := now.Add(time.Minute).Unix()
	tag2 := &models.ProvenanceTag{ExpiresAt: &future}
	assert.False(t, HardStale(tag2, now))
}

func TestHardStaleNoExpiryIsNotStale(t *testing.T) {
	tag := &models.ProvenanceTag{}
	assert.False(t, HardStale(tag, time.Now()))
}

func TestSoftStale(t *testing.T) {
	now := time.Now()
	soft := int64(10)
	tag := &models.ProvenanceTag{FetchedAt: now.Add(-20 * time.Second).Unix(), SoftTTLSeconds: &soft}
	assert.True(t, SoftStale(tag, now))

	fresh := &models.ProvenanceTag{FetchedAt: now.Unix(), SoftTTLSeconds: &soft}
	assert.False(t, SoftStale(fresh, now))
}

func TestSoftStaleUnconfiguredNeverStale(t *testing.T) {
	tag := &models.ProvenanceTag{FetchedAt: time.Now().Add(-time.Hour).Unix()}
	assert.False(t, SoftStale(tag, time.Now()))
}
