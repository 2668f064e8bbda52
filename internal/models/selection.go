// Package models contains domain types shared across the fetch pipeline.
package models

// SelectionRecord is one normalized data selection. Network, station,
// location and channel are FDSN source identifier patterns: `*` and `?`
// wildcards and comma-separated alternation lists pass through to the
// services verbatim, no local expansion. An empty field means "not
// constrained" and is omitted from outgoing queries entirely.
type SelectionRecord struct {
	Network  string `json:"network"`
	Station  string `json:"station"`
	Location string `json:"location"`
	Channel  string `json:"channel"`
	Quality  string `json:"quality,omitempty"`
	Start    string `json:"start,omitempty"` // canonical YYYY-MM-DDTHH:MM:SS[.ffffff]
	End      string `json:"end,omitempty"`
}

// ParseError records a line that a file-based selection parser skipped.
// File parsers never fail the run on a bad line; they collect these for
// diagnostic output instead.
type ParseError struct {
	Line    int    `json:"line"`
	Content string `json:"content"`
	Reason  string `json:"reason"`
}
