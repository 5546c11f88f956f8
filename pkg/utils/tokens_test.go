package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountTokens(t *testing.T) {
	tc, err := NewTokenCounter("gpt-4o")
	require.NoError(t, err)

	assert.Equal(t, 0, tc.CountTokens(""))
	assert.Greater(t, tc.CountTokens("A two bedroom apartment in Andheri West."), 5)

	short := tc.CountTokens("yield")
	long := tc.CountTokens(strings.Repeat("yield ", 50))
	assert.Greater(t, long, short)
}

func TestCountTokens_NilCodecFallback(t *testing.T) {
	tc := &TokenCounter{}

	// Character-based estimation: 4 chars per token.
	assert.Equal(t, 10, tc.CountTokens(strings.Repeat("a", 40)))
}

func TestValidateTokenLimit(t *testing.T) {
	tc, err := NewTokenCounter("gpt-4o")
	require.NoError(t, err)

	assert.True(t, tc.ValidateTokenLimit("short", 100))
	assert.False(t, tc.ValidateTokenLimit(strings.Repeat("valuation ", 200), 10))
}

func TestTruncateToTokenLimit(t *testing.T) {
	tc, err := NewTokenCounter("gpt-4o")
	require.NoError(t, err)

	within := "fits comfortably"
	assert.Equal(t, within, tc.TruncateToTokenLimit(within, 100))

	long := strings.Repeat("market absorption trends in suburban corridors ", 100)
	truncated := tc.TruncateToTokenLimit(long, 50)
	assert.Less(t, len(truncated), len(long))
	assert.True(t, strings.HasSuffix(truncated, "..."))
	assert.LessOrEqual(t, tc.CountTokens(truncated), 60, "truncation should land near the limit")
}
