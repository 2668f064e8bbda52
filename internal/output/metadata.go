// Package output renders the pipeline's flat output files: the delimited
// metadata listing and the portable request-key file.
package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/seisquery/fdsnfetch/internal/models"
)

// The metadata listing is pipe-delimited. Historical variants of these
// tools disagreed on comma vs pipe and on the field set; this is the one
// schema we emit.
const channelHeader = "#net|sta|loc|chan|lat|lon|elev|depth|azimuth|dip|instrument|scale|scalefreq|scaleunits|samplerate|start|end"

const stationHeader = "#net|sta|lat|lon|elev|site|start|end"

// WriteChannelMetadata writes the header line and one row per channel
// epoch, preserving the order the epochs were extracted in.
func WriteChannelMetadata(w io.Writer, epochs []models.ChannelEpoch) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(channelHeader + "\n"); err != nil {
		return err
	}
	for _, ep := range epochs {
		row := strings.Join([]string{
			ep.Network, ep.Station, ep.Location, ep.Channel,
			ep.Latitude, ep.Longitude, ep.Elevation, ep.Depth,
			ep.Azimuth, ep.Dip, ep.Instrument,
			ep.Sensitivity, ep.SensitivityFreq, ep.SensitivityUnits,
			ep.SampleRate, ep.Start, ep.End,
		}, "|")
		if _, err := bw.WriteString(row + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteStationMetadata is the station-level variant.
func WriteStationMetadata(w io.Writer, epochs []models.StationEpoch) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(stationHeader + "\n"); err != nil {
		return err
	}
	for _, ep := range epochs {
		row := strings.Join([]string{
			ep.Network, ep.Station, ep.Latitude, ep.Longitude,
			ep.Elevation, ep.SiteName, ep.Start, ep.End,
		}, "|")
		if _, err := bw.WriteString(row + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
