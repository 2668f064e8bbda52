package models

import (
	"fmt"
	"time"
)

// RequestKey identifies one deduplicated data request: a channel plus the
// window the user asked for. Every epoch of the same channel that matched
// the same requested window folds into a single key.
type RequestKey struct {
	Network     string `msgpack:"network"`
	Station     string `msgpack:"station"`
	Location    string `msgpack:"location"`
	Channel     string `msgpack:"channel"`
	Quality     string `msgpack:"quality"`
	WindowStart string `msgpack:"windowStart"` // requested, may be empty
	WindowEnd   string `msgpack:"windowEnd"`
}

// RequestRange is the widened [earliest epoch start, latest epoch end]
// observed for a key. It only ever grows as epochs fold in.
type RequestRange struct {
	Start      string `msgpack:"start"`
	End        string `msgpack:"end"` // empty when every folded epoch was open-ended
	startEpoch int64
	endEpoch   int64
	openEnd    bool
}

// RequestSet accumulates request keys in first-seen order.
type RequestSet struct {
	keys   []RequestKey
	ranges map[RequestKey]*RequestRange
}

func NewRequestSet() *RequestSet {
	return &RequestSet{ranges: make(map[RequestKey]*RequestRange)}
}

// Fold merges one epoch interval into the set. Comparison happens on
// converted epoch seconds, not string order. An empty epoch end means the
// channel is still operating and forces the stored range open-ended.
func (rs *RequestSet) Fold(key RequestKey, epochStart, epochEnd string) error {
	startSec, err := EpochSeconds(epochStart)
	if err != nil {
		return fmt.Errorf("epoch start %q: %w", epochStart, err)
	}
	var endSec int64
	open := epochEnd == ""
	if !open {
		if endSec, err = EpochSeconds(epochEnd); err != nil {
			return fmt.Errorf("epoch end %q: %w", epochEnd, err)
		}
	}

	r, ok := rs.ranges[key]
	if !ok {
		rs.keys = append(rs.keys, key)
		rs.ranges[key] = &RequestRange{
			Start:      epochStart,
			End:        epochEnd,
			startEpoch: startSec,
			endEpoch:   endSec,
			openEnd:    open,
		}
		return nil
	}

	if startSec < r.startEpoch {
		r.startEpoch = startSec
		r.Start = epochStart
	}
	if open {
		r.openEnd = true
		r.End = ""
	} else if !r.openEnd && endSec > r.endEpoch {
		r.endEpoch = endSec
		r.End = epochEnd
	}
	return nil
}

// Keys returns the keys in first-seen order.
func (rs *RequestSet) Keys() []RequestKey { return rs.keys }

// Range returns the widened range for a key.
func (rs *RequestSet) Range(key RequestKey) (RequestRange, bool) {
	r, ok := rs.ranges[key]
	if !ok {
		return RequestRange{}, false
	}
	return *r, true
}

// Len reports the number of distinct keys folded so far.
func (rs *RequestSet) Len() int { return len(rs.keys) }

// epochLayouts covers the canonical timestamp form with and without
// fractional seconds, and the date-only form a requested window may carry.
var epochLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// EpochSeconds converts a canonical timestamp to Unix seconds (UTC).
func EpochSeconds(ts string) (int64, error) {
	for _, layout := range epochLayouts {
		if t, err := time.ParseInLocation(layout, ts, time.UTC); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, fmt.Errorf("unparseable timestamp %q", ts)
}
