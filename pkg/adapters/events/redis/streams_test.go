package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamKey(t *testing.T) {
	assert.Equal(t, "convreg:events:registry.events", getStreamKey("registry.events"))
}

// Two subscriptions must never share a consumer group: group members
// compete for messages, and subscribers on the same topic each need
// to see every event.
func TestSubscriptionGroup_Unique(t *testing.T) {
	first := subscriptionGroup("convreg-workers")
	second := subscriptionGroup("convreg-workers")

	assert.NotEqual(t, first, second)
	assert.Contains(t, first, "convreg-workers-")
	assert.Contains(t, second, "convreg-workers-")
}
