package convstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationKeyCarriesTenantSegment(t *testing.T) {
	// The tenant segment is reserved for a later multi-tenant split; v1
	// always writes under "default".
	assert.Equal(t, "conversation:default:abc-123", conversationKey("abc-123"))
}

func TestConversationKeyDistinctPerID(t *testing.T) {
	assert.NotEqual(t, conversationKey("a"), conversationKey("b"))
}
