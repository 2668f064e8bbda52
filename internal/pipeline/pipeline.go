// Package pipeline runs the metadata-collection stage: one metadata query
// per selection record, streamed through the StationXML extractor, with
// all aggregates threaded through an explicit result value instead of
// process-wide state.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/seisquery/fdsnfetch/internal/diag"
	"github.com/seisquery/fdsnfetch/internal/fdsnws"
	"github.com/seisquery/fdsnfetch/internal/models"
	"github.com/seisquery/fdsnfetch/internal/stationxml"
)

// Config carries the metadata-stage options.
type Config struct {
	MetadataEndpoint string
	Level            stationxml.Level
	UpdatedAfter     string
	MatchTimeSeries  bool
	// RawXMLPath, when set, receives every raw response body appended
	// in query order.
	RawXMLPath string
}

// Metadata is the accumulated outcome of the metadata stage.
type Metadata struct {
	Channels []models.ChannelEpoch
	Stations []models.StationEpoch
	Requests *models.RequestSet
	// HTTPErrors counts selections abandoned on an HTTP error status.
	// Any non-zero value surfaces as a non-zero process exit.
	HTTPErrors int
}

// CollectMetadata queries the metadata service once per selection,
// strictly in order, and folds every retained channel epoch into the
// request set. "No data" responses are notices, not errors; HTTP error
// statuses abandon the one selection and continue.
func CollectMetadata(ctx context.Context, client *fdsnws.Client, log *diag.Logger, cfg Config, selections []models.SelectionRecord) (*Metadata, error) {
	md := &Metadata{Requests: models.NewRequestSet()}

	var rawXML *os.File
	if cfg.RawXMLPath != "" {
		f, err := os.Create(cfg.RawXMLPath)
		if err != nil {
			return nil, fmt.Errorf("cannot open raw XML output: %w", err)
		}
		defer f.Close()
		rawXML = f
	}

	for _, sel := range selections {
		url := stationxml.BuildQuery(cfg.MetadataEndpoint, sel, stationxml.QueryOptions{
			Level:           cfg.Level,
			UpdatedAfter:    cfg.UpdatedAfter,
			MatchTimeSeries: cfg.MatchTimeSeries,
		})
		log.Debug("metadata query: %s", url)

		data, status, err := client.GetBytes(ctx, url)
		switch status {
		case fdsnws.StatusNoData:
			log.Info("%s.%s.%s.%s: no metadata available", sel.Network, sel.Station, sel.Location, sel.Channel)
			continue
		case fdsnws.StatusError:
			md.HTTPErrors++
			log.Error("metadata request failed: %v", err)
			continue
		}
		// An empty body never reaches the XML parser.
		if len(data) == 0 {
			log.Info("%s.%s.%s.%s: empty metadata response", sel.Network, sel.Station, sel.Location, sel.Channel)
			continue
		}

		if rawXML != nil {
			if _, err := rawXML.Write(data); err != nil {
				return nil, fmt.Errorf("cannot write raw XML output: %w", err)
			}
		}

		stationLevel := cfg.Level == stationxml.LevelStation
		result, err := stationxml.Extract(bytes.NewReader(data), sel, stationLevel, md.Requests)
		if err != nil {
			md.HTTPErrors++
			log.Error("metadata parse failed: %v", err)
			continue
		}
		md.Channels = append(md.Channels, result.Channels...)
		md.Stations = append(md.Stations, result.Stations...)
	}

	return md, nil
}
