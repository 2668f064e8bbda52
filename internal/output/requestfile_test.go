package output

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seisquery/fdsnfetch/internal/models"
)

func TestRequestFileRoundTrip(t *testing.T) {
	reqs := models.NewRequestSet()
	keyA := models.RequestKey{Network: "II", Station: "BFO", Location: "00", Channel: "BHZ",
		Quality: "B", WindowStart: "2011-01-01T00:00:00", WindowEnd: "2011-02-01T00:00:00"}
	keyB := models.RequestKey{Network: "IU", Station: "ANMO", Location: "--", Channel: "LHZ"}
	require.NoError(t, reqs.Fold(keyA, "2011-01-01T00:00:00", "2011-02-01T00:00:00"))
	require.NoError(t, reqs.Fold(keyB, "2001-01-01T00:00:00", ""))

	path := filepath.Join(t.TempDir(), "requests.mp")
	runID, err := SaveRequests(path, reqs)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	loaded, loadedID, err := LoadRequests(path)
	require.NoError(t, err)
	assert.Equal(t, runID, loadedID)
	require.Equal(t, []models.RequestKey{keyA, keyB}, loaded.Keys())

	rngA, ok := loaded.Range(keyA)
	require.True(t, ok)
	assert.Equal(t, "2011-01-01T00:00:00", rngA.Start)
	assert.Equal(t, "2011-02-01T00:00:00", rngA.End)

	rngB, ok := loaded.Range(keyB)
	require.True(t, ok)
	assert.Equal(t, "2001-01-01T00:00:00", rngB.Start)
	assert.Empty(t, rngB.End)
}

func TestLoadRequestsMissingFile(t *testing.T) {
	_, _, err := LoadRequests(filepath.Join(t.TempDir(), "absent.mp"))
	assert.Error(t, err)
}
