package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestSetFoldWidens(t *testing.T) {
	key := RequestKey{Network: "II", Station: "BFO", Location: "00", Channel: "BHZ"}
	rs := NewRequestSet()

	require.NoError(t, rs.Fold(key, "2005-01-01T00:00:00", "2008-01-01T00:00:00"))
	require.NoError(t, rs.Fold(key, "2001-01-01T00:00:00", "2003-01-01T00:00:00"))
	require.NoError(t, rs.Fold(key, "2009-01-01T00:00:00", "2012-01-01T00:00:00"))

	require.Equal(t, 1, rs.Len())
	rng, ok := rs.Range(key)
	require.True(t, ok)
	assert.Equal(t, "2001-01-01T00:00:00", rng.Start)
	assert.Equal(t, "2012-01-01T00:00:00", rng.End)
}

func TestRequestSetFoldOpenEnd(t *testing.T) {
	key := RequestKey{Network: "IU", Station: "ANMO", Location: "00", Channel: "LHZ"}
	rs := NewRequestSet()

	require.NoError(t, rs.Fold(key, "2001-01-01T00:00:00", "2003-01-01T00:00:00"))
	require.NoError(t, rs.Fold(key, "2003-01-01T00:00:00", ""))
	// A later bounded epoch must not close an already open end.
	require.NoError(t, rs.Fold(key, "2004-01-01T00:00:00", "2005-01-01T00:00:00"))

	rng, _ := rs.Range(key)
	assert.Equal(t, "2001-01-01T00:00:00", rng.Start)
	assert.Empty(t, rng.End)
}

func TestRequestSetKeyOrderAndIdentity(t *testing.T) {
	a := RequestKey{Network: "II", Station: "BFO", Channel: "BHZ", Quality: "B"}
	b := RequestKey{Network: "II", Station: "BFO", Channel: "BHZ", Quality: "M"}
	c := RequestKey{Network: "II", Station: "BFO", Channel: "BHZ", Quality: "B",
		WindowStart: "2011-01-01T00:00:00"}

	rs := NewRequestSet()
	require.NoError(t, rs.Fold(b, "2001-01-01T00:00:00", "2002-01-01T00:00:00"))
	require.NoError(t, rs.Fold(a, "2001-01-01T00:00:00", "2002-01-01T00:00:00"))
	require.NoError(t, rs.Fold(c, "2001-01-01T00:00:00", "2002-01-01T00:00:00"))
	require.NoError(t, rs.Fold(a, "2003-01-01T00:00:00", "2004-01-01T00:00:00"))

	// Quality and requested window are part of the key; order is
	// first-seen.
	assert.Equal(t, []RequestKey{b, a, c}, rs.Keys())
}

func TestRequestSetFoldRejectsBadTimestamp(t *testing.T) {
	rs := NewRequestSet()
	err := rs.Fold(RequestKey{}, "not a time", "")
	assert.Error(t, err)
	assert.Equal(t, 0, rs.Len())
}

func TestEpochSeconds(t *testing.T) {
	sec, err := EpochSeconds("1970-01-01T00:00:01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), sec)

	dateOnly, err := EpochSeconds("1970-01-02")
	require.NoError(t, err)
	assert.Equal(t, int64(86400), dateOnly)

	frac, err := EpochSeconds("1970-01-01T00:00:01.5")
	require.NoError(t, err)
	assert.Equal(t, int64(1), frac)
}
