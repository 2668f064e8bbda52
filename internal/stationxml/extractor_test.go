package stationxml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seisquery/fdsnfetch/internal/models"
)

func channelXML(loc, cha, start, end, body string) string {
	endAttr := ""
	if end != "" {
		endAttr = ` endDate="` + end + `"`
	}
	return `<Channel code="` + cha + `" locationCode="` + loc + `" startDate="` + start + `"` + endAttr + `>` +
		body + `</Channel>`
}

func stationDoc(channels ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<FDSNStationXML schemaVersion="1.1">
 <Network code="II">
  <Station code="BFO" startDate="1991-01-01T00:00:00.0000" endDate="2599-12-31T23:59:59.0000">
   <Latitude>48.3319</Latitude>
   <Longitude>8.3311</Longitude>
   <Elevation>589.0</Elevation>
   <Site><Name>Black Forest Observatory
</Name></Site>` + strings.Join(channels, "\n") + `
  </Station>
 </Network>
</FDSNStationXML>`
}

const channelBody = `
    <Latitude>48.3319</Latitude>
    <Longitude>8.3311</Longitude>
    <Elevation>589.0</Elevation>
    <Depth>5.0</Depth>
    <Azimuth>0.0</Azimuth>
    <Dip>-90.0</Dip>
    <SampleRate>20.0</SampleRate>
    <Sensor><Type>Streckeisen STS-1
</Type></Sensor>
    <Response>
      <InstrumentSensitivity>
        <Value>2430000000.0</Value>
        <Frequency>0.02</Frequency>
        <InputUnits><Name>M/S</Name></InputUnits>
      </InstrumentSensitivity>
    </Response>`

func TestExtractChannelEpoch(t *testing.T) {
	doc := stationDoc(channelXML("00", "BHZ",
		"2001-01-01T00:00:00.0000", "2010-01-01T00:00:00.0000", channelBody))

	reqs := models.NewRequestSet()
	sel := models.SelectionRecord{Network: "II", Station: "BFO", Channel: "BHZ"}
	result, err := Extract(strings.NewReader(doc), sel, false, reqs)
	require.NoError(t, err)
	require.Len(t, result.Channels, 1)

	ch := result.Channels[0]
	assert.Equal(t, "II", ch.Network)
	assert.Equal(t, "BFO", ch.Station)
	assert.Equal(t, "00", ch.Location)
	assert.Equal(t, "BHZ", ch.Channel)
	assert.Equal(t, "48.3319", ch.Latitude)
	assert.Equal(t, "8.3311", ch.Longitude)
	assert.Equal(t, "589.0", ch.Elevation)
	assert.Equal(t, "5.0", ch.Depth)
	assert.Equal(t, "0.0", ch.Azimuth)
	assert.Equal(t, "-90.0", ch.Dip)
	assert.Equal(t, "20.0", ch.SampleRate)
	// Newlines stripped, trailing whitespace trimmed.
	assert.Equal(t, "Streckeisen STS-1", ch.Instrument)
	assert.Equal(t, "2430000000.0", ch.Sensitivity)
	assert.Equal(t, "0.02", ch.SensitivityFreq)
	assert.Equal(t, "M/S", ch.SensitivityUnits)
	// Attribute timestamps truncated to the six-component form.
	assert.Equal(t, "2001-01-01T00:00:00", ch.Start)
	assert.Equal(t, "2010-01-01T00:00:00", ch.End)

	require.Equal(t, 1, reqs.Len())
	rng, ok := reqs.Range(models.RequestKey{
		Network: "II", Station: "BFO", Location: "00", Channel: "BHZ",
	})
	require.True(t, ok)
	assert.Equal(t, "2001-01-01T00:00:00", rng.Start)
	assert.Equal(t, "2010-01-01T00:00:00", rng.End)
}

func TestExtractBlankLocationPlaceholder(t *testing.T) {
	doc := stationDoc(channelXML("  ", "LHZ", "2001-01-01T00:00:00", "", channelBody))

	result, err := Extract(strings.NewReader(doc), models.SelectionRecord{}, false, nil)
	require.NoError(t, err)
	require.Len(t, result.Channels, 1)
	assert.Equal(t, "--", result.Channels[0].Location)
}

func TestExtractWindowFilter(t *testing.T) {
	doc := stationDoc(
		channelXML("00", "BHZ", "2001-01-01T00:00:00", "2002-01-01T00:00:00", channelBody),
		channelXML("00", "BHZ", "2005-01-01T00:00:00", "2006-01-01T00:00:00", channelBody),
	)

	t.Run("epoch outside window dropped", func(t *testing.T) {
		sel := models.SelectionRecord{
			Start: "2003-01-01T00:00:00",
			End:   "2004-01-01T00:00:00",
		}
		result, err := Extract(strings.NewReader(doc), sel, false, nil)
		require.NoError(t, err)
		assert.Empty(t, result.Channels)
	})

	t.Run("overlapping epoch retained", func(t *testing.T) {
		sel := models.SelectionRecord{
			Start: "2001-06-01T00:00:00",
			End:   "2001-07-01T00:00:00",
		}
		result, err := Extract(strings.NewReader(doc), sel, false, nil)
		require.NoError(t, err)
		require.Len(t, result.Channels, 1)
		assert.Equal(t, "2001-01-01T00:00:00", result.Channels[0].Start)
	})

	t.Run("open window merges both epochs under one key", func(t *testing.T) {
		reqs := models.NewRequestSet()
		result, err := Extract(strings.NewReader(doc), models.SelectionRecord{}, false, reqs)
		require.NoError(t, err)
		assert.Len(t, result.Channels, 2)
		require.Equal(t, 1, reqs.Len())

		rng, _ := reqs.Range(reqs.Keys()[0])
		assert.Equal(t, "2001-01-01T00:00:00", rng.Start)
		assert.Equal(t, "2006-01-01T00:00:00", rng.End)
	})

	t.Run("open epoch end satisfies window end", func(t *testing.T) {
		openDoc := stationDoc(channelXML("00", "BHZ", "2001-01-01T00:00:00", "", channelBody))
		sel := models.SelectionRecord{
			Start: "2020-01-01T00:00:00",
			End:   "2020-02-01T00:00:00",
		}
		result, err := Extract(strings.NewReader(openDoc), sel, false, nil)
		require.NoError(t, err)
		assert.Len(t, result.Channels, 1)
	})
}

func TestExtractStationLevel(t *testing.T) {
	doc := stationDoc()
	result, err := Extract(strings.NewReader(doc), models.SelectionRecord{}, true, nil)
	require.NoError(t, err)
	require.Len(t, result.Stations, 1)

	sta := result.Stations[0]
	assert.Equal(t, "II", sta.Network)
	assert.Equal(t, "BFO", sta.Station)
	assert.Equal(t, "48.3319", sta.Latitude)
	assert.Equal(t, "8.3311", sta.Longitude)
	assert.Equal(t, "589.0", sta.Elevation)
	assert.Equal(t, "Black Forest Observatory", sta.SiteName)
	assert.Equal(t, "1991-01-01T00:00:00", sta.Start)
}

func TestExtractEntityChardataConcatenated(t *testing.T) {
	// Entities split chardata into multiple decoder callbacks; the
	// accumulated value must concatenate, not overwrite.
	doc := stationDoc(channelXML("00", "BHZ", "2001-01-01T00:00:00", "",
		`<Sensor><Type>STS&#45;1 seismometer</Type></Sensor>`))
	result, err := Extract(strings.NewReader(doc), models.SelectionRecord{}, false, nil)
	require.NoError(t, err)
	require.Len(t, result.Channels, 1)
	assert.Equal(t, "STS-1 seismometer", result.Channels[0].Instrument)
}

func TestExtractMalformedXML(t *testing.T) {
	_, err := Extract(strings.NewReader("<FDSNStationXML><Network>"), models.SelectionRecord{}, false, nil)
	assert.Error(t, err)
}

func TestBuildQuery(t *testing.T) {
	t.Run("empty fields omitted", func(t *testing.T) {
		sel := models.SelectionRecord{Network: "II", Channel: "BHZ"}
		got := BuildQuery("https://example.org/station", sel, QueryOptions{})
		assert.Contains(t, got, "net=II")
		assert.Contains(t, got, "cha=BHZ")
		assert.Contains(t, got, "level=channel")
		assert.Contains(t, got, "format=xml")
		assert.NotContains(t, got, "sta=")
		assert.NotContains(t, got, "loc=")
		assert.NotContains(t, got, "starttime=")
	})

	t.Run("full selection with options", func(t *testing.T) {
		sel := models.SelectionRecord{
			Network: "II", Station: "BFO", Location: "00", Channel: "BHZ",
			Start: "2011-01-01T00:00:00", End: "2011-01-02T00:00:00",
		}
		got := BuildQuery("https://example.org/station", sel, QueryOptions{
			Level:           LevelStation,
			UpdatedAfter:    "2012-01-01T00:00:00",
			MatchTimeSeries: true,
		})
		assert.Contains(t, got, "level=station")
		assert.Contains(t, got, "matchtimeseries=true")
		assert.Contains(t, got, "updatedafter=2012-01-01T00%3A00%3A00")
		assert.Contains(t, got, "starttime=2011-01-01T00%3A00%3A00")
	})
}
