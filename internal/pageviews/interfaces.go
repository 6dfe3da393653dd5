package pageviews

import (
	"context"
	"time"
)

// Fetcher retrieves the analytics page body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Store loads and saves the persisted record. Load never fails: any problem
// reading the previous record is reported as ok == false.
type Store interface {
	Load(ctx context.Context) (Record, bool)
	Save(ctx context.Context, record Record) error
}

// Mirror copies the written record to secondary storage and returns its URI.
type Mirror interface {
	PutRecord(ctx context.Context, record Record) (string, error)
}

// Publisher pushes change notifications to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// RunRecorder captures run metrics and flushes them at the end of a run.
type RunRecorder interface {
	ObserveRun(outcome string, total int64, duration time.Duration, finishedAt time.Time)
	Flush() error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function such as time.Now to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time {
	return f()
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
