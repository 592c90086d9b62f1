package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/CTAG07/bznames/pkg/ngram"
)

// Loader produces an ordered sequence of weighted name records.
type Loader interface {
	Load(ctx context.Context) ([]ngram.Record, error)
}

// FileLoader reads records from a JSON file holding an array of
// {"name": ..., "freq": ...} objects, the same format CachedLoader writes.
type FileLoader struct {
	Path string
}

// Load reads and decodes the file. The context is not consulted; reading a
// local file is not cancellable.
func (f FileLoader) Load(_ context.Context) ([]ngram.Record, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}
	return decodeRecords(data)
}

func decodeRecords(data []byte) ([]ngram.Record, error) {
	var records []ngram.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: failed to parse corpus: %v", ngram.ErrInvalidInput, err)
	}
	return records, nil
}

var (
	_ Loader = FileLoader{}
	_ Loader = (*IBGEClient)(nil)
	_ Loader = (*CachedLoader)(nil)
)
