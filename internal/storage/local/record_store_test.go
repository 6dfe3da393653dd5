// Package local_test tests the local record store.
package local_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/pageviews/internal/pageviews"
	"github.com/JakeFAU/pageviews/internal/storage/local"
)

func sampleRecord(total int64) pageviews.Record {
	return pageviews.Record{
		TotalPageviews: total,
		Since:          "2020-03-10",
		Source:         "https://clustrmaps.com/site/1b50n",
		UpdatedAt:      "2026-10-18T09:30:00.000Z",
	}
}

func TestNew(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		store, err := local.New(local.Config{Path: filepath.Join(t.TempDir(), "pageviews.json")}, nil)
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("MissingPath", func(t *testing.T) {
		_, err := local.New(local.Config{Path: "  "}, nil)
		assert.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("MissingFile", func(t *testing.T) {
		t.Parallel()
		store, err := local.New(local.Config{Path: filepath.Join(t.TempDir(), "absent.json")}, nil)
		require.NoError(t, err)

		_, ok := store.Load(context.Background())
		assert.False(t, ok)
	})

	t.Run("CorruptFile", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "pageviews.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
		store, err := local.New(local.Config{Path: path}, nil)
		require.NoError(t, err)

		_, ok := store.Load(context.Background())
		assert.False(t, ok)
	})

	t.Run("PathIsDirectory", func(t *testing.T) {
		t.Parallel()
		store, err := local.New(local.Config{Path: t.TempDir()}, nil)
		require.NoError(t, err)

		_, ok := store.Load(context.Background())
		assert.False(t, ok)
	})

	t.Run("ValidFile", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "pageviews.json")
		payload := `{
  "totalPageviews": 100,
  "since": "2020-03-10",
  "source": "https://clustrmaps.com/site/1b50n",
  "updatedAt": "2026-10-18T09:30:00.000Z"
}
`
		require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))
		store, err := local.New(local.Config{Path: path}, nil)
		require.NoError(t, err)

		record, ok := store.Load(context.Background())
		require.True(t, ok)
		assert.Equal(t, sampleRecord(100), record)
	})
}

func TestLoadRaw(t *testing.T) {
	t.Parallel()

	t.Run("KeepsUnknownKeys", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "pageviews.json")
		payload := `{"totalPageviews": 100.0, "since": "2020-03-10", "note": "hand edited"}`
		require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))
		store, err := local.New(local.Config{Path: path}, nil)
		require.NoError(t, err)

		data, ok := store.LoadRaw(context.Background())
		require.True(t, ok)
		assert.Equal(t, payload, string(data))
	})

	t.Run("RejectsMalformed", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "pageviews.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
		store, err := local.New(local.Config{Path: path}, nil)
		require.NoError(t, err)

		data, ok := store.LoadRaw(context.Background())
		assert.False(t, ok)
		assert.Nil(t, data)
	})
}

func TestSave(t *testing.T) {
	t.Parallel()

	t.Run("CreatesNestedDirectories", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "a", "b", "pageviews.json")
		store, err := local.New(local.Config{Path: path}, nil)
		require.NoError(t, err)

		require.NoError(t, store.Save(context.Background(), sampleRecord(42)))

		// #nosec G304 -- test reads from the controlled temp directory.
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		want := `{
  "totalPageviews": 42,
  "since": "2020-03-10",
  "source": "https://clustrmaps.com/site/1b50n",
  "updatedAt": "2026-10-18T09:30:00.000Z"
}
`
		assert.Equal(t, want, string(data))
	})

	t.Run("OverwritesPreviousRecord", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "pageviews.json")
		store, err := local.New(local.Config{Path: path}, nil)
		require.NoError(t, err)

		require.NoError(t, store.Save(context.Background(), sampleRecord(1)))
		require.NoError(t, store.Save(context.Background(), sampleRecord(2)))

		record, ok := store.Load(context.Background())
		require.True(t, ok)
		assert.Equal(t, int64(2), record.TotalPageviews)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "pageviews.json")
		store, err := local.New(local.Config{Path: path}, nil)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.ErrorIs(t, store.Save(ctx, sampleRecord(3)), context.Canceled)
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr))
	})
}
