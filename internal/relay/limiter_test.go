package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserLimiter_Disabled(t *testing.T) {
	l := newUserLimiter(0, 3)
	assert.Nil(t, l)
	for i := 0; i < 100; i++ {
		assert.True(t, l.allow(1, time.Now()))
	}
}

func TestUserLimiter_PerUser(t *testing.T) {
	l := newUserLimiter(60, 2)
	now := time.Now()

	assert.True(t, l.allow(1, now))
	assert.True(t, l.allow(1, now))
	assert.False(t, l.allow(1, now), "burst exhausted")
	assert.True(t, l.allow(2, now), "other users are not affected")

	assert.True(t, l.allow(1, now.Add(time.Second)), "one token per second refills")
}

func TestUserLimiter_SweepsIdleEntries(t *testing.T) {
	l := newUserLimiter(60, 1)
	start := time.Now()

	l.allow(1, start)
	l.allow(2, start)
	assert.Len(t, l.entries, 2)

	l.allow(3, start.Add(2*limiterIdleTTL))
	assert.Len(t, l.entries, 1)
}
