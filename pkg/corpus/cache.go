package corpus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/CTAG07/bznames/pkg/ngram"
	"github.com/natefinch/atomic"
)

// CachedLoader serves records from a JSON cache file, filling it from Source
// on first use. Records from Source are cleaned before they are cached.
type CachedLoader struct {
	Path   string
	Source Loader
	Logger *slog.Logger // Defaults to discarding all logs.
}

// Load returns the cached records if the cache file exists. Otherwise it
// loads from Source, cleans the result, creates the cache directory and
// writes the cache atomically, so an interrupted run never leaves a partial
// file behind.
func (c *CachedLoader) Load(ctx context.Context) ([]ngram.Record, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	data, err := os.ReadFile(c.Path)
	if err == nil {
		records, err := decodeRecords(data)
		if err != nil {
			return nil, fmt.Errorf("corpus cache %s: %w", c.Path, err)
		}
		logger.DebugContext(ctx, "Corpus loaded from cache",
			slog.String("path", c.Path),
			slog.Int("records", len(records)),
		)
		return records, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read corpus cache: %w", err)
	}

	if c.Source == nil {
		return nil, fmt.Errorf("%w: corpus cache %s is missing and no source is configured", ngram.ErrConfiguration, c.Path)
	}
	records, err := c.Source.Load(ctx)
	if err != nil {
		return nil, err
	}
	records = Clean(records)

	if err := c.write(records); err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Corpus cached",
		slog.String("path", c.Path),
		slog.Int("records", len(records)),
	)
	return records, nil
}

func (c *CachedLoader) write(records []ngram.Record) error {
	if dir := filepath.Dir(c.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create corpus cache directory: %w", err)
		}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal corpus: %w", err)
	}
	if err := atomic.WriteFile(c.Path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write corpus cache: %w", err)
	}
	return nil
}
