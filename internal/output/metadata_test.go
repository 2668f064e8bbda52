package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seisquery/fdsnfetch/internal/models"
)

func TestWriteChannelMetadata(t *testing.T) {
	epochs := []models.ChannelEpoch{
		{
			Network: "II", Station: "BFO", Location: "00", Channel: "BHZ",
			Latitude: "48.3319", Longitude: "8.3311", Elevation: "589.0",
			Depth: "5.0", Azimuth: "0.0", Dip: "-90.0",
			Instrument: "Streckeisen STS-1", Sensitivity: "2430000000.0",
			SensitivityFreq: "0.02", SensitivityUnits: "M/S",
			SampleRate: "20.0",
			Start:      "2001-01-01T00:00:00", End: "2010-01-01T00:00:00",
		},
		{Network: "IU", Station: "ANMO", Location: "--", Channel: "LHZ"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteChannelMetadata(&buf, epochs))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "#net|sta|loc|chan|lat|lon|elev|depth|azimuth|dip|instrument|scale|scalefreq|scaleunits|samplerate|start|end", lines[0])
	assert.Equal(t, "II|BFO|00|BHZ|48.3319|8.3311|589.0|5.0|0.0|-90.0|Streckeisen STS-1|2430000000.0|0.02|M/S|20.0|2001-01-01T00:00:00|2010-01-01T00:00:00", lines[1])
	// Absent values stay blank rather than collapsing to zero.
	assert.Equal(t, "IU|ANMO|--|LHZ|||||||||||||", lines[2])
}

func TestWriteStationMetadata(t *testing.T) {
	epochs := []models.StationEpoch{{
		Network: "II", Station: "BFO",
		Latitude: "48.3319", Longitude: "8.3311", Elevation: "589.0",
		SiteName: "Black Forest Observatory",
		Start:    "1991-01-01T00:00:00", End: "2599-12-31T23:59:59",
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteStationMetadata(&buf, epochs))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "#net|sta|lat|lon|elev|site|start|end", lines[0])
	assert.Equal(t, "II|BFO|48.3319|8.3311|589.0|Black Forest Observatory|1991-01-01T00:00:00|2599-12-31T23:59:59", lines[1])
}
