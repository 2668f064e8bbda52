// Package selection normalizes heterogeneous selection input (CLI fields,
// selection-list files, legacy BREQ_FAST request files) into ordered
// SelectionRecord sequences. Pure parsing and validation, no network access.
package selection

import (
	"fmt"
	"strings"
)

// NormalizeTime reassembles a timestamp whose fields may be separated by
// any of "-:,./T" or whitespace into the canonical
// YYYY-MM-DDTHH:MM:SS[.ffffff] form. Accepted field counts are 3 (date
// only, time defaults to midnight), 6 (date and time) and 7 (with
// fractional seconds). Normalization is idempotent: canonical input
// splits back into the same fields.
func NormalizeTime(ts string) (string, error) {
	fields := strings.FieldsFunc(ts, func(r rune) bool {
		switch r {
		case '-', ':', ',', '.', '/', 'T', ' ', '\t':
			return true
		}
		return false
	})

	switch len(fields) {
	case 3, 6, 7:
	default:
		return "", fmt.Errorf("time %q: expected 3, 6 or 7 fields, got %d", ts, len(fields))
	}

	if len(fields[0]) != 4 || !allDigits(fields[0]) {
		return "", fmt.Errorf("time %q: bad year field %q", ts, fields[0])
	}
	for i, f := range fields[1:] {
		max := 2
		if i == 5 { // fractional seconds
			max = 6
		}
		if len(f) < 1 || len(f) > max || !allDigits(f) {
			return "", fmt.Errorf("time %q: bad field %q", ts, f)
		}
	}

	var b strings.Builder
	b.WriteString(fields[0])
	b.WriteByte('-')
	b.WriteString(pad2(fields[1]))
	b.WriteByte('-')
	b.WriteString(pad2(fields[2]))
	b.WriteByte('T')
	if len(fields) == 3 {
		b.WriteString("00:00:00")
		return b.String(), nil
	}
	b.WriteString(pad2(fields[3]))
	b.WriteByte(':')
	b.WriteString(pad2(fields[4]))
	b.WriteByte(':')
	b.WriteString(pad2(fields[5]))
	if len(fields) == 7 {
		b.WriteByte('.')
		b.WriteString(fields[6])
	}
	return b.String(), nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
