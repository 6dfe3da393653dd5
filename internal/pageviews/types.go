package pageviews

import (
	"errors"
	"fmt"
	"time"
)

// TimestampLayout formats UpdatedAt as an ISO 8601 UTC instant with milliseconds.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Run outcomes reported to the metrics recorder.
const (
	OutcomeSuccess    = "success"
	OutcomeFetchError = "fetch_error"
	OutcomeParseError = "parse_error"
	OutcomeWriteError = "write_error"
)

// ErrNoValue is returned when the page does not carry a usable pageview count.
var ErrNoValue = errors.New("could not parse Total Pageviews")

// Record is the single persisted document describing the latest known count.
type Record struct {
	TotalPageviews int64  `json:"totalPageviews"`
	Since          string `json:"since"`
	Source         string `json:"source"`
	UpdatedAt      string `json:"updatedAt"`
}

// Change is the payload published when the stored count moves.
type Change struct {
	Record   Record `json:"record"`
	Previous *int64 `json:"previousTotalPageviews,omitempty"`
}

// Result describes one completed run.
type Result struct {
	RunID       string
	Record      Record
	Previous    Record
	HadPrevious bool
	Changed     bool
	MirrorURI   string
	MessageID   string
}

// Summary renders the one-line console report for the run.
func (r Result) Summary() string {
	state := "unchanged"
	if r.Changed {
		state = "updated"
	}
	return fmt.Sprintf("Total Pageviews: %d (%s)", r.Record.TotalPageviews, state)
}

// IsChanged reports whether next differs from the previous record, treating a
// missing previous record as a change.
func IsChanged(prev Record, hadPrevious bool, next Record) bool {
	return !hadPrevious || prev.TotalPageviews != next.TotalPageviews
}

// FormatTimestamp renders t the way UpdatedAt is stored.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
