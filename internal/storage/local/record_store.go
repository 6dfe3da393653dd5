// Package local persists the pageview record as a JSON file on the local filesystem.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/pageviews/internal/pageviews"
)

// DefaultPath is where the record lives relative to the working directory.
const DefaultPath = "data/pageviews.json"

// Config captures the parameters for the local record store.
type Config struct {
	// Path is the JSON file holding the latest record.
	Path string `mapstructure:"path" yaml:"path"`
}

// RecordStore reads and overwrites a single JSON record file.
type RecordStore struct {
	path   string
	logger *zap.Logger
}

// New creates a RecordStore. The file and its directory are created on Save.
func New(cfg Config, logger *zap.Logger) (*RecordStore, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("record path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordStore{
		path:   filepath.Clean(cfg.Path),
		logger: logger,
	}, nil
}

// Path returns the record file location.
func (s *RecordStore) Path() string {
	return s.path
}

// Load returns the stored record. A missing, unreadable or malformed file
// yields ok == false and is never an error.
func (s *RecordStore) Load(ctx context.Context) (pageviews.Record, bool) {
	_, record, ok := s.read(ctx)
	return record, ok
}

// LoadRaw returns the file contents exactly as stored, provided they decode
// as a record.
func (s *RecordStore) LoadRaw(ctx context.Context) ([]byte, bool) {
	data, _, ok := s.read(ctx)
	return data, ok
}

func (s *RecordStore) read(_ context.Context) ([]byte, pageviews.Record, bool) {
	// #nosec G304 -- path comes from operator configuration.
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("previous record unreadable", zap.String("path", s.path), zap.Error(err))
		}
		return nil, pageviews.Record{}, false
	}
	record, err := pageviews.Decode(data)
	if err != nil {
		s.logger.Debug("previous record malformed", zap.String("path", s.path), zap.Error(err))
		return nil, pageviews.Record{}, false
	}
	return data, record, true
}

// Save overwrites the record file, creating parent directories as needed.
func (s *RecordStore) Save(ctx context.Context, record pageviews.Record) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	payload, err := pageviews.Encode(record)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create parent directories: %w", err)
	}
	// #nosec G306 -- the record is published alongside the site and must be world-readable.
	if err := os.WriteFile(s.path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write record %s: %w", s.path, err)
	}
	return nil
}
