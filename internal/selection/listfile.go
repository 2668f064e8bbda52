package selection

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/seisquery/fdsnfetch/internal/models"
)

// ParseListFile reads a whitespace-separated selection list:
//
//	Network Station Location Channel [Quality] [Start] [End]
//
// Lines starting with '#' are comments. A line must supply at least the
// four identifier fields; malformed or incomplete lines are skipped and
// reported in the returned ParseError slice, never fatal.
func ParseListFile(r io.Reader) ([]models.SelectionRecord, []*models.ParseError) {
	var (
		records []models.SelectionRecord
		skipped []*models.ParseError
		scanner = bufio.NewScanner(r)
		lineNum = 0
	)

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			skipped = append(skipped, &models.ParseError{
				Line: lineNum, Content: line,
				Reason: fmt.Sprintf("need at least 4 fields, got %d", len(fields)),
			})
			continue
		}

		rec := models.SelectionRecord{
			Network:  fields[0],
			Station:  fields[1],
			Location: fields[2],
			Channel:  fields[3],
		}

		rest := fields[4:]
		// A single-character token after the channel is a quality code;
		// anything longer must be a timestamp.
		if len(rest) > 0 && isQualityToken(rest[0]) {
			rec.Quality = strings.ToUpper(rest[0])
			rest = rest[1:]
		}

		ok := true
		if len(rest) > 0 {
			start, err := NormalizeTime(rest[0])
			if err != nil {
				skipped = append(skipped, &models.ParseError{Line: lineNum, Content: line, Reason: err.Error()})
				ok = false
			} else {
				rec.Start = start
			}
			rest = rest[1:]
		}
		if ok && len(rest) > 0 {
			end, err := NormalizeTime(rest[0])
			if err != nil {
				skipped = append(skipped, &models.ParseError{Line: lineNum, Content: line, Reason: err.Error()})
				ok = false
			} else {
				rec.End = end
			}
			rest = rest[1:]
		}
		if ok && len(rest) > 0 {
			skipped = append(skipped, &models.ParseError{
				Line: lineNum, Content: line,
				Reason: fmt.Sprintf("unexpected trailing field %q", rest[0]),
			})
			ok = false
		}

		if ok {
			records = append(records, rec)
		}
	}

	return records, skipped
}

// isQualityToken reports whether a token is a one-letter quality code
// rather than the start of a timestamp.
func isQualityToken(tok string) bool {
	if len(tok) != 1 {
		return false
	}
	c := tok[0]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '*' || c == '?'
}
