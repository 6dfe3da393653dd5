// Package gcs mirrors the pageview record to a Google Cloud Storage object.
package gcs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/JakeFAU/pageviews/internal/pageviews"
)

const contentType = "application/json; charset=utf-8"

// Config captures the parameters required to mirror to GCS.
type Config struct {
	Bucket string
	Object string
}

// Mirror uploads the record to a fixed object in the configured bucket.
type Mirror struct {
	client *storage.Client
	bucket string
	object string
}

// New creates a GCS-backed mirror.
func New(client *storage.Client, cfg Config) (*Mirror, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if strings.TrimSpace(cfg.Object) == "" {
		return nil, fmt.Errorf("object name is required")
	}
	return &Mirror{
		client: client,
		bucket: cfg.Bucket,
		object: strings.TrimPrefix(cfg.Object, "/"),
	}, nil
}

// PutRecord overwrites the mirrored object and returns its gs:// URI.
func (m *Mirror) PutRecord(ctx context.Context, record pageviews.Record) (string, error) {
	payload, err := pageviews.Encode(record)
	if err != nil {
		return "", err
	}
	writer := m.client.Bucket(m.bucket).Object(m.object).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "no-cache"
	if _, err := io.Copy(writer, bytes.NewReader(payload)); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return "", fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", m.bucket, m.object), nil
}
