package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/CTAG07/bznames/pkg/ngram"
	_ "github.com/mattn/go-sqlite3"
)

var testCorpus = []ngram.Record{
	{Name: "maria", Freq: 1173},
	{Name: "jose", Freq: 575},
	{Name: "ana", Freq: 326},
	{Name: "joao", Freq: 297},
	{Name: "antonio", Freq: 288},
	{Name: "francisco", Freq: 251},
	{Name: "carlos", Freq: 214},
	{Name: "paulo", Freq: 205},
	{Name: "pedro", Freq: 190},
	{Name: "lucas", Freq: 173},
}

// setupTestDB creates a new SQLite database in a temporary directory and a
// Store for testing. It uses t.Cleanup to ensure resources are released.
func setupTestDB(t *testing.T) (*sql.DB, *Store) {
	t.Helper()
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbFile+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=-4000")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(s.Close)

	return db, s
}

// setupTestDBWithModel is a convenience helper that also fits and saves a
// trigram model named "test_model".
func setupTestDBWithModel(t *testing.T) (context.Context, *Store, *ngram.Model, ModelInfo) {
	t.Helper()
	_, s := setupTestDB(t)
	ctx := context.Background()

	m, err := ngram.New(3, ngram.WithAlpha(0.5))
	if err != nil {
		t.Fatalf("setup: ngram.New() failed: %v", err)
	}
	if err := m.Fit(testCorpus); err != nil {
		t.Fatalf("setup: Fit() failed: %v", err)
	}
	info, err := s.SaveModel(ctx, "test_model", m)
	if err != nil {
		t.Fatalf("setup: SaveModel() failed: %v", err)
	}
	return ctx, s, m, info
}
