package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
)

// SetupSchema initializes the tables used by the Store in the provided
// database. It is idempotent and safe to call on an already-initialized
// database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaModels = `
CREATE TABLE IF NOT EXISTS ngram_models (
    model_id INTEGER PRIMARY KEY,
    model_name TEXT NOT NULL UNIQUE,
    model_order INTEGER NOT NULL,
    alpha REAL NOT NULL DEFAULT 1.0
);
`
		schemaContexts = `
CREATE TABLE IF NOT EXISTS ngram_contexts (
    context_id INTEGER PRIMARY KEY,
    context_text TEXT NOT NULL UNIQUE
);
`
		schemaTransitions = `
CREATE TABLE IF NOT EXISTS ngram_transitions (
    model_id INTEGER NOT NULL,
    context_id INTEGER NOT NULL,
    next_symbol TEXT NOT NULL,
    count INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (model_id, context_id, next_symbol)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaModels); err != nil {
		return fmt.Errorf("could not create models schema: %w", err)
	}

	if _, err = tx.Exec(schemaContexts); err != nil {
		return fmt.Errorf("could not create contexts schema: %w", err)
	}

	if _, err = tx.Exec(schemaTransitions); err != nil {
		return fmt.Errorf("could not create transitions schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// Store holds the database connection and the prepared statements used to
// save, load and inspect models.
type Store struct {
	db                     *sql.DB
	stmtGetModelInfo       *sql.Stmt
	stmtGetModels          *sql.Stmt
	stmtPruneModel         *sql.Stmt
	stmtModelTransitions   *sql.Stmt
	stmtModelCount         *sql.Stmt
	stmtModelContexts      *sql.Stmt
	stmtModelStarters      *sql.Stmt
	stmtGetContextID       *sql.Stmt
	stmtGetContextLen      *sql.Stmt
	stmtGetOrInsertContext *sql.Stmt
	stmtLoadTransitions    *sql.Stmt
	logger                 *slog.Logger
}

// NewStore creates a Store on an initialized database, pre-compiling every
// statement it needs.
func NewStore(db *sql.DB) (*Store, error) {
	stmtGetModelInfo, err := db.Prepare(`SELECT model_id, model_order, alpha FROM ngram_models WHERE model_name = ?;`)
	if err != nil {
		return nil, err
	}

	stmtGetModels, err := db.Prepare(`SELECT model_id, model_name, model_order, alpha FROM ngram_models;`)
	if err != nil {
		return nil, err
	}

	stmtPruneModel, err := db.Prepare(`DELETE FROM ngram_transitions WHERE model_id = ? AND count <= ?;`)
	if err != nil {
		return nil, err
	}

	stmtModelTransitions, err := db.Prepare(`SELECT COUNT(*) FROM ngram_transitions WHERE model_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtModelCount, err := db.Prepare(`SELECT coalesce(SUM(count), 0) FROM ngram_transitions WHERE model_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtModelContexts, err := db.Prepare(`SELECT COUNT(DISTINCT context_id) FROM ngram_transitions WHERE model_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtModelStarters, err := db.Prepare(`SELECT COUNT(*) FROM ngram_transitions WHERE model_id = ? AND context_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtGetContextID, err := db.Prepare(`SELECT context_id FROM ngram_contexts WHERE context_text = ?;`)
	if err != nil {
		return nil, err
	}

	stmtGetContextLen, err := db.Prepare(`SELECT COUNT(*) FROM ngram_contexts;`)
	if err != nil {
		return nil, err
	}

	stmtGetOrInsertContext, err := db.Prepare(`INSERT INTO ngram_contexts (context_text) VALUES (?) ON CONFLICT(context_text) DO UPDATE SET context_text=excluded.context_text RETURNING context_id;`)
	if err != nil {
		return nil, err
	}

	stmtLoadTransitions, err := db.Prepare(`
		SELECT c.context_text, t.next_symbol, t.count
		FROM ngram_transitions t JOIN ngram_contexts c ON c.context_id = t.context_id
		WHERE t.model_id = ?;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:                     db,
		stmtGetModelInfo:       stmtGetModelInfo,
		stmtGetModels:          stmtGetModels,
		stmtPruneModel:         stmtPruneModel,
		stmtModelTransitions:   stmtModelTransitions,
		stmtModelCount:         stmtModelCount,
		stmtModelContexts:      stmtModelContexts,
		stmtModelStarters:      stmtModelStarters,
		stmtGetContextID:       stmtGetContextID,
		stmtGetContextLen:      stmtGetContextLen,
		stmtGetOrInsertContext: stmtGetOrInsertContext,
		stmtLoadTransitions:    stmtLoadTransitions,
		logger:                 slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases all prepared statements held by the Store. The database
// itself is left open.
func (s *Store) Close() {
	_ = s.stmtGetModelInfo.Close()
	_ = s.stmtGetModels.Close()
	_ = s.stmtPruneModel.Close()
	_ = s.stmtModelTransitions.Close()
	_ = s.stmtModelCount.Close()
	_ = s.stmtModelContexts.Close()
	_ = s.stmtModelStarters.Close()
	_ = s.stmtGetContextID.Close()
	_ = s.stmtGetContextLen.Close()
	_ = s.stmtGetOrInsertContext.Close()
	_ = s.stmtLoadTransitions.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
