package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInterval(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		iv, err := NewInterval(1000, 2000)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), iv.StartMS)
		assert.Equal(t, int64(2000), iv.EndMS)
	})

	t.Run("rejects start after end", func(t *testing.T) {
		_, err := NewInterval(2000, 1000)
		assert.Error(t, err)
	})

	t.Run("rejects zero-length", func(t *testing.T) {
		_, err := NewInterval(1500, 1500)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive timestamps", func(t *testing.T) {
		_, err := NewInterval(0, 2000)
		assert.Error(t, err)
		_, err = NewInterval(-5, 2000)
		assert.Error(t, err)
	})
}

func TestIntervalOverlaps(t *testing.T) {
	base, err := NewInterval(1000, 2000)
	require.NoError(t, err)

	cases := []struct {
		name     string
		startMS  int64
		endMS    int64
		overlaps bool
	}{
		{"identical", 1000, 2000, true},
		{"contained", 1200, 1800, true},
		{"containing", 500, 2500, true},
		{"overlap left edge", 500, 1001, true},
		{"overlap right edge", 1999, 2500, true},
		{"adjacent before does not overlap", 500, 1000, false},
		{"adjacent after does not overlap", 2000, 2500, false},
		{"disjoint before", 100, 900, false},
		{"disjoint after", 2100, 3000, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			other, err := NewInterval(tc.startMS, tc.endMS)
			require.NoError(t, err)
			assert.Equal(t, tc.overlaps, base.Overlaps(other))
			// Overlap is symmetric.
			assert.Equal(t, tc.overlaps, other.Overlaps(base))
		})
	}
}

func TestParseInterval(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		iv, err := NewInterval(1700000000000, 1700003600000)
		require.NoError(t, err)
		parsed, err := ParseInterval(iv.Encode())
		require.NoError(t, err)
		assert.Equal(t, iv, parsed)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		for _, raw := range []string{"", "123", "a-b", "100-", "-200", "300-200", "1-2-3"} {
			_, err := ParseInterval(raw)
			assert.Error(t, err, "input %q", raw)
		}
	})
}

func TestStatusDBCodec(t *testing.T) {
	cases := []struct {
		status Status
		db     string
	}{
		{StatusPending, "non"},
		{StatusApproved, "yes"},
		{StatusRejected, "no"},
	}
	for _, tc := range cases {
		v, err := tc.status.DBValue()
		require.NoError(t, err)
		assert.Equal(t, tc.db, v)

		back, err := StatusFromDB(tc.db)
		require.NoError(t, err)
		assert.Equal(t, tc.status, back)
	}

	_, err := StatusFromDB("maybe")
	assert.Error(t, err)

	_, err = Status("bogus").DBValue()
	assert.Error(t, err)
}
