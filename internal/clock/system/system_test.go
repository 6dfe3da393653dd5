package system_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/JakeFAU/pageviews/internal/clock/system"
	"github.com/JakeFAU/pageviews/internal/pageviews"
)

var _ pageviews.Clock = system.Clock{}

func TestClockNowUTC(t *testing.T) {
	t.Parallel()

	before := time.Now().Add(-time.Second)
	got := system.New().Now()
	after := time.Now().Add(time.Second)

	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.After(before) && got.Before(after), "got %v", got)
}

func TestClockFormatsWithZuluSuffix(t *testing.T) {
	t.Parallel()

	stamp := pageviews.FormatTimestamp(system.New().Now())
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`, stamp)
}
