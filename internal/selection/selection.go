package selection

import (
	"fmt"
	"strings"

	"github.com/seisquery/fdsnfetch/internal/models"
)

// FromFlags builds one SelectionRecord from command-line fields. Unlike
// the file parsers, a malformed timestamp here is a hard error: the whole
// run cannot proceed on a bad CLI window.
func FromFlags(network, station, location, channel, quality, start, end string) (models.SelectionRecord, error) {
	rec := models.SelectionRecord{
		Network:  network,
		Station:  station,
		Location: location,
		Channel:  channel,
		Quality:  strings.ToUpper(quality),
	}

	if start != "" {
		s, err := NormalizeTime(start)
		if err != nil {
			return models.SelectionRecord{}, fmt.Errorf("start time: %w", err)
		}
		rec.Start = s
	}
	if end != "" {
		e, err := NormalizeTime(end)
		if err != nil {
			return models.SelectionRecord{}, fmt.Errorf("end time: %w", err)
		}
		rec.End = e
	}
	return rec, nil
}
