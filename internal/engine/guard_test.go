package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReentrancyGuardAllow(t *testing.T) {
	guard := NewReentrancyGuard(1)
	require.True(t, guard.Allow(0))
	require.True(t, guard.Allow(1))
	require.False(t, guard.Allow(2))

	guard = NewReentrancyGuard(2)
	require.True(t, guard.Allow(2))
	require.False(t, guard.Allow(3))
}

func TestReentrancyGuardDefaultsDepthOne(t *testing.T) {
	guard := NewReentrancyGuard(0)
	require.True(t, guard.Allow(1))
	require.False(t, guard.Allow(2))
}
