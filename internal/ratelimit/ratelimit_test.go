package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenBucketBurstThenDenies(t *testing.T) {
	tb := NewTokenBucket(1, 2)
	require.True(t, tb.Allow())
	require.True(t, tb.Allow())
	require.False(t, tb.Allow())
}

func TestPerSessionIsolatesBuckets(t *testing.T) {
	p := NewPerSession(1, 1)
	require.True(t, p.Allow("bot-a"))
	require.False(t, p.Allow("bot-a"))
	require.True(t, p.Allow("bot-b"))
}
