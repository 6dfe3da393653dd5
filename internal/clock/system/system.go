// Package system provides the wall clock used for record timestamps.
package system

import "time"

// Clock implements pageviews.Clock. Times are returned in UTC so UpdatedAt
// always carries a Z suffix.
type Clock struct{}

// New creates a new Clock.
func New() Clock {
	return Clock{}
}

// Now returns the current time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
