// Package stationxml extracts channel and station epochs from FDSN
// StationXML metadata responses, streaming the document token by token
// instead of materializing a parsed tree.
package stationxml

import (
	"net/url"

	"github.com/seisquery/fdsnfetch/internal/models"
)

// Level selects how deep the metadata query descends.
type Level string

const (
	LevelStation  Level = "station"
	LevelChannel  Level = "channel"
	LevelResponse Level = "response"
)

// QueryOptions carries the non-selection query parameters.
type QueryOptions struct {
	Level           Level
	UpdatedAfter    string // canonical timestamp, optional
	MatchTimeSeries bool
}

// BuildQuery renders the metadata query URL for one selection. Selection
// fields that are empty are omitted entirely, never defaulted to "*".
func BuildQuery(endpoint string, sel models.SelectionRecord, opts QueryOptions) string {
	v := url.Values{}
	setNonEmpty(v, "net", sel.Network)
	setNonEmpty(v, "sta", sel.Station)
	setNonEmpty(v, "loc", sel.Location)
	setNonEmpty(v, "cha", sel.Channel)
	setNonEmpty(v, "starttime", sel.Start)
	setNonEmpty(v, "endtime", sel.End)

	level := opts.Level
	if level == "" {
		level = LevelChannel
	}
	v.Set("level", string(level))
	setNonEmpty(v, "updatedafter", opts.UpdatedAfter)
	if opts.MatchTimeSeries {
		v.Set("matchtimeseries", "true")
	}
	v.Set("format", "xml")

	return endpoint + "?" + v.Encode()
}

func setNonEmpty(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
