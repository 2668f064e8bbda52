package stationxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/seisquery/fdsnfetch/internal/models"
)

// elemContext is one entry of the extractor's element-context stack. The
// decoder pushes a context for every start tag and pops it on the matching
// end tag, so illegal nesting cannot leave the extractor confused about
// where it is.
type elemContext int

const (
	ctxOther elemContext = iota
	ctxNetwork
	ctxStation
	ctxSite
	ctxChannel
	ctxSensor
	ctxResponse
	ctxSensitivity
	ctxInputUnits
	ctxLeaf // a value element whose chardata feeds the current target
)

// Result is what one metadata response yields.
type Result struct {
	Channels []models.ChannelEpoch
	Stations []models.StationEpoch
}

// extractor is the streaming state: the context stack, the single field
// the next chardata chunk is appended to, and the records being built.
type extractor struct {
	stack  []elemContext
	target *string

	sel          models.SelectionRecord
	stationLevel bool
	reqs         *models.RequestSet

	network string
	station models.StationEpoch
	channel models.ChannelEpoch

	out Result
}

// Extract incrementally parses one StationXML response body. Channel
// epochs (or station epochs when stationLevel is set) that overlap the
// selection's requested window are emitted in response order; retained
// channel epochs are folded into reqs when it is non-nil.
func Extract(r io.Reader, sel models.SelectionRecord, stationLevel bool, reqs *models.RequestSet) (*Result, error) {
	e := &extractor{sel: sel, stationLevel: stationLevel, reqs: reqs}
	dec := xml.NewDecoder(r)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed metadata response: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			e.enter(t)
		case xml.EndElement:
			e.leave()
		case xml.CharData:
			// Chardata arrives in chunks; append, never overwrite.
			if e.target != nil {
				*e.target += string(t)
			}
		}
	}
	return &e.out, nil
}

func (e *extractor) top() elemContext {
	if len(e.stack) == 0 {
		return ctxOther
	}
	return e.stack[len(e.stack)-1]
}

func (e *extractor) enter(t xml.StartElement) {
	name := t.Name.Local
	ctx := ctxOther

	switch e.top() {
	case ctxOther:
		if name == "Network" {
			ctx = ctxNetwork
			e.network = attr(t, "code")
		}
	case ctxNetwork:
		if name == "Station" {
			ctx = ctxStation
			e.station = models.StationEpoch{
				Network: e.network,
				Station: attr(t, "code"),
				Start:   truncateTime(attr(t, "startDate")),
				End:     truncateTime(attr(t, "endDate")),
			}
		}
	case ctxStation:
		switch name {
		case "Channel":
			ctx = ctxChannel
			e.channel = models.ChannelEpoch{
				Network:  e.network,
				Station:  e.station.Station,
				Location: attr(t, "locationCode"),
				Channel:  attr(t, "code"),
				Start:    truncateTime(attr(t, "startDate")),
				End:      truncateTime(attr(t, "endDate")),
			}
		case "Site":
			ctx = ctxSite
		case "Latitude":
			ctx = e.leaf(&e.station.Latitude)
		case "Longitude":
			ctx = e.leaf(&e.station.Longitude)
		case "Elevation":
			ctx = e.leaf(&e.station.Elevation)
		}
	case ctxSite:
		if name == "Name" {
			ctx = e.leaf(&e.station.SiteName)
		}
	case ctxChannel:
		switch name {
		case "Latitude":
			ctx = e.leaf(&e.channel.Latitude)
		case "Longitude":
			ctx = e.leaf(&e.channel.Longitude)
		case "Elevation":
			ctx = e.leaf(&e.channel.Elevation)
		case "Depth":
			ctx = e.leaf(&e.channel.Depth)
		case "Azimuth":
			ctx = e.leaf(&e.channel.Azimuth)
		case "Dip":
			ctx = e.leaf(&e.channel.Dip)
		case "SampleRate":
			ctx = e.leaf(&e.channel.SampleRate)
		case "Sensor":
			ctx = ctxSensor
		case "Response":
			ctx = ctxResponse
		}
	case ctxSensor:
		if name == "Type" {
			ctx = e.leaf(&e.channel.Instrument)
		}
	case ctxResponse:
		if name == "InstrumentSensitivity" {
			ctx = ctxSensitivity
		}
	case ctxSensitivity:
		switch name {
		case "Value":
			ctx = e.leaf(&e.channel.Sensitivity)
		case "Frequency":
			ctx = e.leaf(&e.channel.SensitivityFreq)
		case "InputUnits":
			ctx = ctxInputUnits
		}
	case ctxInputUnits:
		if name == "Name" {
			ctx = e.leaf(&e.channel.SensitivityUnits)
		}
	}

	e.stack = append(e.stack, ctx)
}

func (e *extractor) leaf(target *string) elemContext {
	e.target = target
	return ctxLeaf
}

func (e *extractor) leave() {
	if len(e.stack) == 0 {
		return
	}
	popped := e.top()
	e.stack = e.stack[:len(e.stack)-1]

	switch popped {
	case ctxLeaf:
		e.target = nil
	case ctxChannel:
		e.finishChannel()
	case ctxStation:
		e.finishStation()
	}
}

func (e *extractor) finishChannel() {
	ch := e.channel
	ch.Location = normalizeLocation(ch.Location)
	ch.Instrument = cleanFreeText(ch.Instrument)

	if !windowsOverlap(e.sel.Start, e.sel.End, ch.Start, ch.End) {
		return
	}

	e.out.Channels = append(e.out.Channels, ch)

	if e.reqs != nil {
		key := models.RequestKey{
			Network:     ch.Network,
			Station:     ch.Station,
			Location:    ch.Location,
			Channel:     ch.Channel,
			Quality:     e.sel.Quality,
			WindowStart: e.sel.Start,
			WindowEnd:   e.sel.End,
		}
		// Folding fails only on an epoch with no usable start date;
		// such an epoch cannot carry a request window.
		_ = e.reqs.Fold(key, ch.Start, ch.End)
	}
}

func (e *extractor) finishStation() {
	if !e.stationLevel {
		return
	}
	sta := e.station
	sta.SiteName = cleanFreeText(sta.SiteName)
	if !windowsOverlap(e.sel.Start, e.sel.End, sta.Start, sta.End) {
		return
	}
	e.out.Stations = append(e.out.Stations, sta)
}

func attr(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// truncateTime reduces a service timestamp to the canonical six-component
// form, dropping sub-second and timezone suffixes.
func truncateTime(ts string) string {
	if len(ts) > 19 {
		return ts[:19]
	}
	return ts
}

// normalizeLocation maps a blank (or all-space) location code to the
// two-character placeholder used everywhere downstream.
func normalizeLocation(loc string) string {
	if strings.TrimSpace(loc) == "" {
		return "--"
	}
	return loc
}

// cleanFreeText strips embedded newlines and trailing whitespace from
// free-text metadata fields.
func cleanFreeText(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimRight(s, " \t")
}

// windowsOverlap reports whether the requested [reqStart, reqEnd] window
// and an epoch's [epStart, epEnd] interval intersect. Absent requested
// bounds and an absent epoch end are open-ended and always satisfy their
// side of the test. Comparison uses converted epoch seconds.
func windowsOverlap(reqStart, reqEnd, epStart, epEnd string) bool {
	if reqEnd != "" && epStart != "" {
		reqEndSec, err1 := models.EpochSeconds(reqEnd)
		epStartSec, err2 := models.EpochSeconds(epStart)
		if err1 != nil || err2 != nil {
			return false
		}
		if epStartSec > reqEndSec {
			return false
		}
	}
	if reqStart != "" && epEnd != "" {
		reqStartSec, err1 := models.EpochSeconds(reqStart)
		epEndSec, err2 := models.EpochSeconds(epEnd)
		if err1 != nil || err2 != nil {
			return false
		}
		if epEndSec < reqStartSec {
			return false
		}
	}
	return true
}
