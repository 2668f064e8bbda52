package selection

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/seisquery/fdsnfetch/internal/models"
)

// Legacy fixed-field request format: one request per line,
//
//	STA NET YYYY MM DD HH MM SS.FFFF YYYY MM DD HH MM SS.FFFF #CH CHA... [LOC]
//
// plus header lines starting with '.'. A ".QUALITY X" header sets the
// quality code applied to all subsequent lines until changed; other
// dot-headers are ignored.

var (
	legacyStationRe  = regexp.MustCompile(`^[A-Za-z0-9*?]{1,5}$`)
	legacyNetworkRe  = regexp.MustCompile(`^[-_A-Za-z0-9*?]+$`)
	legacyYearRe     = regexp.MustCompile(`^\d{4}$`)
	legacyDateNumRe  = regexp.MustCompile(`^\d{1,2}$`)
	legacySecondsRe  = regexp.MustCompile(`^\d{1,2}(\.\d+)?$`)
	legacyChannelRe  = regexp.MustCompile(`^[A-Za-z0-9*?]{1,3}$`)
	legacyLocationRe = regexp.MustCompile(`^[A-Za-z0-9*?-]{1,2}$`)
)

// legacyLine is one tokenized request line with named fields.
type legacyLine struct {
	station  string
	network  string
	start    [6]string // year month day hour minute second
	end      [6]string
	count    string
	channels []string
	location string
}

// fieldError is a structured per-field validation failure.
type fieldError struct {
	field  string
	value  string
	reason string
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.field, e.value, e.reason)
}

// splitLegacyLine tokenizes a whitespace-separated request line into named
// fields. The trailing location token is present exactly when one more
// token follows the declared channel count than the count itself.
func splitLegacyLine(line string) (*legacyLine, error) {
	tok := strings.Fields(line)
	if len(tok) < 16 {
		return nil, fmt.Errorf("need at least 16 fields, got %d", len(tok))
	}

	l := &legacyLine{
		station: tok[0],
		network: tok[1],
		count:   tok[14],
	}
	copy(l.start[:], tok[2:8])
	copy(l.end[:], tok[8:14])

	count, err := strconv.Atoi(l.count)
	if err != nil || count <= 0 {
		return nil, &fieldError{"channel count", l.count, "not a positive integer"}
	}

	trailing := tok[15:]
	switch len(trailing) {
	case count:
		l.channels = trailing
	case count + 1:
		l.channels = trailing[:count]
		l.location = trailing[count]
	default:
		return nil, &fieldError{"channel count", l.count,
			fmt.Sprintf("declared %d but found %d channel fields", count, len(trailing))}
	}
	return l, nil
}

// validate checks every named field against its pattern, returning the
// first structured failure.
func (l *legacyLine) validate() error {
	if !legacyStationRe.MatchString(l.station) {
		return &fieldError{"station", l.station, "must match [A-Za-z0-9*?]{1,5}"}
	}
	if !legacyNetworkRe.MatchString(l.network) {
		return &fieldError{"network", l.network, "must match [-_A-Za-z0-9*?]+"}
	}
	for _, group := range []struct {
		name   string
		fields [6]string
	}{{"start", l.start}, {"end", l.end}} {
		if !legacyYearRe.MatchString(group.fields[0]) {
			return &fieldError{group.name + " year", group.fields[0], "must be 4 digits"}
		}
		for i := 1; i < 5; i++ {
			if !legacyDateNumRe.MatchString(group.fields[i]) {
				return &fieldError{group.name + " date field", group.fields[i], "must be 1-2 digits"}
			}
		}
		if !legacySecondsRe.MatchString(group.fields[5]) {
			return &fieldError{group.name + " seconds", group.fields[5], "must be seconds with optional fraction"}
		}
	}
	for _, ch := range l.channels {
		if !legacyChannelRe.MatchString(ch) {
			return &fieldError{"channel", ch, "must match [A-Za-z0-9*?]{1,3}"}
		}
	}
	if l.location != "" && !legacyLocationRe.MatchString(l.location) {
		return &fieldError{"location", l.location, "must match [A-Za-z0-9*?-]{1,2}"}
	}
	return nil
}

// ParseLegacyFile reads a legacy fixed-field request file and emits one
// SelectionRecord per valid channel code per valid line. Invalid lines
// are skipped and reported; they never abort the remaining lines.
func ParseLegacyFile(r io.Reader) ([]models.SelectionRecord, []*models.ParseError) {
	var (
		records []models.SelectionRecord
		skipped []*models.ParseError
		quality string
		scanner = bufio.NewScanner(r)
		lineNum = 0
	)

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			fields := strings.Fields(line)
			if len(fields) == 2 && strings.EqualFold(fields[0], ".QUALITY") {
				quality = strings.ToUpper(fields[1])
			}
			continue
		}

		l, err := splitLegacyLine(line)
		if err == nil {
			err = l.validate()
		}
		if err != nil {
			skipped = append(skipped, &models.ParseError{Line: lineNum, Content: line, Reason: err.Error()})
			continue
		}

		start, err := NormalizeTime(strings.Join(l.start[:], " "))
		if err != nil {
			skipped = append(skipped, &models.ParseError{Line: lineNum, Content: line, Reason: err.Error()})
			continue
		}
		end, err := NormalizeTime(strings.Join(l.end[:], " "))
		if err != nil {
			skipped = append(skipped, &models.ParseError{Line: lineNum, Content: line, Reason: err.Error()})
			continue
		}

		for _, ch := range l.channels {
			records = append(records, models.SelectionRecord{
				Network:  l.network,
				Station:  l.station,
				Location: l.location,
				Channel:  ch,
				Quality:  quality,
				Start:    start,
				End:      end,
			})
		}
	}

	return records, skipped
}
