package pageviews

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Config controls Updater behavior.
type Config struct {
	SourceURL string
	Since     string
	Topic     string
}

// Sinks are the optional side channels of a run. Nil members are skipped.
type Sinks struct {
	Mirror    Mirror
	Publisher Publisher
	Metrics   RunRecorder
}

// Updater runs the fetch, parse, compare and write pipeline once per call.
type Updater struct {
	cfg     Config
	fetcher Fetcher
	store   Store
	clock   Clock
	ids     IDGenerator
	sinks   Sinks
	logger  *zap.Logger
}

// NewUpdater constructs an Updater.
func NewUpdater(
	cfg Config,
	fetcher Fetcher,
	store Store,
	clock Clock,
	ids IDGenerator,
	sinks Sinks,
	logger *zap.Logger,
) *Updater {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	return &Updater{
		cfg:     cfg,
		fetcher: fetcher,
		store:   store,
		clock:   clock,
		ids:     ids,
		sinks:   sinks,
		logger:  logger,
	}
}

// Run executes one scrape. The record is written even when the count did not
// change, so UpdatedAt always reflects the last successful run.
func (u *Updater) Run(ctx context.Context) (Result, error) {
	started := u.clock.Now()
	runID := u.newRunID()
	logger := u.logger.With(zap.String("run_id", runID), zap.String("source", u.cfg.SourceURL))

	result, outcome, err := u.run(ctx, runID, logger)
	u.observe(logger, outcome, result.Record.TotalPageviews, started)
	if err != nil {
		logger.Error("pageview update failed", zap.String("outcome", outcome), zap.Error(err))
		return Result{}, err
	}
	logger.Info("pageview update finished",
		zap.Int64("total_pageviews", result.Record.TotalPageviews),
		zap.Bool("changed", result.Changed),
		zap.Bool("had_previous", result.HadPrevious),
	)
	return result, nil
}

func (u *Updater) run(ctx context.Context, runID string, logger *zap.Logger) (Result, string, error) {
	body, err := u.fetcher.Fetch(ctx, u.cfg.SourceURL)
	if err != nil {
		return Result{}, OutcomeFetchError, fmt.Errorf("fetch analytics page: %w", err)
	}
	logger.Debug("fetched analytics page", zap.Int("bytes", len(body)))

	total, ok := ParseTotalPageviews(string(body))
	if !ok {
		return Result{}, OutcomeParseError, ErrNoValue
	}

	prev, hadPrevious := u.store.Load(ctx)
	if !hadPrevious {
		logger.Info("no previous record, treating as first run")
	}

	next := Record{
		TotalPageviews: total,
		Since:          u.cfg.Since,
		Source:         u.cfg.SourceURL,
		UpdatedAt:      FormatTimestamp(u.clock.Now()),
	}
	result := Result{
		RunID:       runID,
		Record:      next,
		Previous:    prev,
		HadPrevious: hadPrevious,
		Changed:     IsChanged(prev, hadPrevious, next),
	}

	if err := u.store.Save(ctx, next); err != nil {
		return Result{}, OutcomeWriteError, fmt.Errorf("save record: %w", err)
	}

	result.MirrorURI = u.mirror(ctx, logger, next)
	if result.Changed {
		result.MessageID = u.notify(ctx, logger, result)
	}
	return result, OutcomeSuccess, nil
}

func (u *Updater) newRunID() string {
	if u.ids == nil {
		return ""
	}
	id, err := u.ids.NewID()
	if err != nil {
		u.logger.Warn("run id generation failed", zap.Error(err))
		return ""
	}
	return id
}

func (u *Updater) mirror(ctx context.Context, logger *zap.Logger, record Record) string {
	if u.sinks.Mirror == nil {
		return ""
	}
	uri, err := u.sinks.Mirror.PutRecord(ctx, record)
	if err != nil {
		logger.Warn("mirror upload failed", zap.Error(err))
		return ""
	}
	logger.Debug("record mirrored", zap.String("uri", uri))
	return uri
}

func (u *Updater) notify(ctx context.Context, logger *zap.Logger, result Result) string {
	if u.sinks.Publisher == nil || u.cfg.Topic == "" {
		return ""
	}
	change := Change{Record: result.Record}
	if result.HadPrevious {
		prev := result.Previous.TotalPageviews
		change.Previous = &prev
	}
	id, err := u.sinks.Publisher.Publish(ctx, u.cfg.Topic, change)
	if err != nil {
		logger.Warn("change notification failed", zap.String("topic", u.cfg.Topic), zap.Error(err))
		return ""
	}
	logger.Debug("change notification published", zap.String("topic", u.cfg.Topic), zap.String("message_id", id))
	return id
}

func (u *Updater) observe(logger *zap.Logger, outcome string, total int64, started time.Time) {
	if u.sinks.Metrics == nil {
		return
	}
	finished := u.clock.Now()
	u.sinks.Metrics.ObserveRun(outcome, total, finished.Sub(started), finished)
	if err := u.sinks.Metrics.Flush(); err != nil {
		logger.Warn("metrics flush failed", zap.Error(err))
	}
}
