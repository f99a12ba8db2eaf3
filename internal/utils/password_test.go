package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-portal", 4)
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret-portal"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret-portal"))
}

func TestHashPasswordClampsCost(t *testing.T) {
	// A misconfigured cost must not break registration.
	hash, err := HashPassword("s3cret-portal", 99)
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret-portal"))
}
