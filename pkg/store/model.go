package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"

	"github.com/CTAG07/bznames/pkg/ngram"
)

// ModelInfo holds the metadata of a stored model: its unique ID, name, the
// order of the model and the smoothing pseudocount it was saved with.
type ModelInfo struct {
	Id    int     `json:"id"`
	Name  string  `json:"name"`
	Order int     `json:"order"`
	Alpha float64 `json:"alpha"`
}

// Snapshot is the part of a fitted model the Store needs to persist it.
// *ngram.Model satisfies it.
type Snapshot interface {
	Order() int
	Alpha() float64
	Transitions() ([]ngram.Transition, error)
}

// ExportedModel is the serializable representation of a stored model, used
// for JSON-based import and export.
type ExportedModel struct {
	Name        string               `json:"name"`
	Order       int                  `json:"order"`
	Alpha       float64              `json:"alpha"`
	Contexts    map[string]int       `json:"contexts"` // context_text -> context_id
	Transitions []ExportedTransition `json:"transitions"`
}

// ExportedTransition is the serializable representation of a single
// transition table entry, used within an ExportedModel.
type ExportedTransition struct {
	ContextID int    `json:"context_id"`
	Next      string `json:"next"`
	Count     int64  `json:"count"`
}

// GetModelInfos retrieves metadata for all models currently in the database,
// returning them in a map keyed by model name.
func (s *Store) GetModelInfos(ctx context.Context) (map[string]ModelInfo, error) {
	rows, err := s.stmtGetModels.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	models := make(map[string]ModelInfo)
	for rows.Next() {
		var model ModelInfo
		if err = rows.Scan(&model.Id, &model.Name, &model.Order, &model.Alpha); err != nil {
			return nil, err
		}
		models[model.Name] = model
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return models, nil
}

// GetModelInfo retrieves the metadata for a single model specified by name.
// It returns sql.ErrNoRows if no such model exists.
func (s *Store) GetModelInfo(ctx context.Context, modelName string) (ModelInfo, error) {
	info := ModelInfo{Name: modelName}
	err := s.stmtGetModelInfo.QueryRowContext(ctx, modelName).Scan(&info.Id, &info.Order, &info.Alpha)
	if err != nil {
		return ModelInfo{}, err
	}
	return info, nil
}

// SaveModel stores the transition table of a fitted model under modelName.
// If a model with that name already exists, its order, alpha and table are
// replaced. The operation is performed within a transaction.
func (s *Store) SaveModel(ctx context.Context, modelName string, m Snapshot) (ModelInfo, error) {
	if modelName == "" {
		return ModelInfo{}, fmt.Errorf("%w: model name must not be empty", ngram.ErrConfiguration)
	}
	transitions, err := m.Transitions()
	if err != nil {
		return ModelInfo{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("could not begin transaction for save: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	info := ModelInfo{Name: modelName, Order: m.Order(), Alpha: m.Alpha()}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO ngram_models (model_name, model_order, alpha) VALUES (?, ?, ?)
		ON CONFLICT(model_name) DO UPDATE SET model_order = excluded.model_order, alpha = excluded.alpha
		RETURNING model_id;`, info.Name, info.Order, info.Alpha).Scan(&info.Id)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("failed to upsert model '%s': %w", modelName, err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM ngram_transitions WHERE model_id = ?", info.Id); err != nil {
		return ModelInfo{}, fmt.Errorf("failed to clear transitions for model %d: %w", info.Id, err)
	}

	stmtGetOrInsertContext := tx.StmtContext(ctx, s.stmtGetOrInsertContext)
	stmtInsertTransition, err := tx.PrepareContext(ctx, `INSERT INTO ngram_transitions (model_id, context_id, next_symbol, count) VALUES (?, ?, ?, ?);`)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("failed to prepare transition insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtInsertTransition)

	contextIDs := make(map[ngram.Context]int)
	for _, tr := range transitions {
		contextID, ok := contextIDs[tr.Context]
		if !ok {
			if err := stmtGetOrInsertContext.QueryRowContext(ctx, string(tr.Context)).Scan(&contextID); err != nil {
				return ModelInfo{}, fmt.Errorf("failed to get/insert context %s: %w", tr.Context, err)
			}
			contextIDs[tr.Context] = contextID
		}
		if _, err := stmtInsertTransition.ExecContext(ctx, info.Id, contextID, string(tr.Next), tr.Count); err != nil {
			return ModelInfo{}, fmt.Errorf("failed to insert transition (%s -> %s): %w", tr.Context, ngram.FormatSymbol(tr.Next), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return ModelInfo{}, err
	}

	s.logger.InfoContext(ctx, "Model saved",
		slog.String("model_name", info.Name),
		slog.Int("model_id", info.Id),
		slog.Int("order", info.Order),
		slog.Int("contexts", len(contextIDs)),
		slog.Int("transitions", len(transitions)),
	)
	return info, nil
}

// LoadModel rebuilds a fitted model from the stored transition table. The
// model is created with the stored order and alpha; opts are applied after
// those and can override them or set a seed or logger.
func (s *Store) LoadModel(ctx context.Context, info ModelInfo, opts ...ngram.Option) (*ngram.Model, error) {
	rows, err := s.stmtLoadTransitions.QueryContext(ctx, info.Id)
	if err != nil {
		return nil, fmt.Errorf("could not query transitions for model %d: %w", info.Id, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var transitions []ngram.Transition
	for rows.Next() {
		var contextText, nextText string
		var count int64
		if err := rows.Scan(&contextText, &nextText, &count); err != nil {
			return nil, err
		}
		next, err := decodeSymbol(nextText)
		if err != nil {
			return nil, fmt.Errorf("model %d: %w", info.Id, err)
		}
		transitions = append(transitions, ngram.Transition{
			Context: ngram.Context(contextText),
			Next:    next,
			Count:   count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	allOpts := append([]ngram.Option{ngram.WithAlpha(info.Alpha)}, opts...)
	m, err := ngram.New(info.Order, allOpts...)
	if err != nil {
		return nil, err
	}
	if err := m.Restore(transitions); err != nil {
		return nil, fmt.Errorf("could not restore model '%s': %w", info.Name, err)
	}

	s.logger.DebugContext(ctx, "Model loaded",
		slog.String("model_name", info.Name),
		slog.Int("model_id", info.Id),
		slog.Int("transitions", len(transitions)),
	)
	return m, nil
}

// RemoveModel deletes a model and all of its transitions from the database.
// Contexts are shared between models and are kept. The operation is
// performed within a transaction.
func (s *Store) RemoveModel(ctx context.Context, model ModelInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.ExecContext(ctx, "DELETE FROM ngram_transitions WHERE model_id = ?", model.Id); err != nil {
		return fmt.Errorf("failed to remove transitions for model %d: %w", model.Id, err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM ngram_models WHERE model_id = ?", model.Id); err != nil {
		return fmt.Errorf("failed to remove model %d: %w", model.Id, err)
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Model removed successfully",
		slog.String("model_name", model.Name),
		slog.Int("model_id", model.Id),
	)
	return nil
}

// ExportModel serializes a stored model into JSON and writes it to w.
func (s *Store) ExportModel(ctx context.Context, model ModelInfo, w io.Writer) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.context_id, c.context_text, t.next_symbol, t.count
		FROM ngram_transitions t JOIN ngram_contexts c ON c.context_id = t.context_id
		WHERE t.model_id = ?
		ORDER BY t.context_id, t.next_symbol;`, model.Id)
	if err != nil {
		return fmt.Errorf("could not query transitions for export: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	exported := ExportedModel{
		Name:        model.Name,
		Order:       model.Order,
		Alpha:       model.Alpha,
		Contexts:    make(map[string]int),
		Transitions: []ExportedTransition{},
	}
	for rows.Next() {
		var tr ExportedTransition
		var contextText string
		if err := rows.Scan(&tr.ContextID, &contextText, &tr.Next, &tr.Count); err != nil {
			return err
		}
		exported.Contexts[contextText] = tr.ContextID
		exported.Transitions = append(exported.Transitions, tr)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Model exported",
		slog.String("model_name", model.Name),
		slog.Int("model_id", model.Id),
		slog.Int("contexts_exported", len(exported.Contexts)),
		slog.Int("transitions_exported", len(exported.Transitions)),
	)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exported)
}

// ImportModel reads a JSON model from r and merges it into the database. If a
// model with the same name exists, counts are added to its transitions; its
// order must match. Otherwise the model is created. The entire operation is
// transactional and re-maps context IDs.
func (s *Store) ImportModel(ctx context.Context, r io.Reader) (ModelInfo, error) {
	var imported ExportedModel
	if err := json.NewDecoder(r).Decode(&imported); err != nil {
		return ModelInfo{}, fmt.Errorf("%w: failed to decode json model: %w", ngram.ErrInvalidInput, err)
	}
	if imported.Name == "" {
		return ModelInfo{}, fmt.Errorf("%w: imported model has no name", ngram.ErrInvalidInput)
	}
	if imported.Order < 2 {
		return ModelInfo{}, fmt.Errorf("%w: imported model has order %d", ngram.ErrInvalidInput, imported.Order)
	}
	if !(imported.Alpha > 0) {
		imported.Alpha = ngram.DefaultAlpha
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("could not begin transaction for import: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	info := ModelInfo{Name: imported.Name}
	err = tx.QueryRowContext(ctx, "SELECT model_id, model_order, alpha FROM ngram_models WHERE model_name = ?", imported.Name).
		Scan(&info.Id, &info.Order, &info.Alpha)
	if errors.Is(err, sql.ErrNoRows) {
		res, err := tx.ExecContext(ctx, "INSERT INTO ngram_models (model_name, model_order, alpha) VALUES (?, ?, ?)", imported.Name, imported.Order, imported.Alpha)
		if err != nil {
			return ModelInfo{}, fmt.Errorf("failed to insert new model '%s': %w", imported.Name, err)
		}
		newID, _ := res.LastInsertId()
		info.Id = int(newID)
		info.Order = imported.Order
		info.Alpha = imported.Alpha
	} else if err != nil {
		return ModelInfo{}, fmt.Errorf("failed to query for model '%s': %w", imported.Name, err)
	} else if info.Order != imported.Order {
		return ModelInfo{}, fmt.Errorf("%w: model '%s' has order %d, import has order %d", ngram.ErrConfiguration, info.Name, info.Order, imported.Order)
	}

	stmtGetOrInsertContext := tx.StmtContext(ctx, s.stmtGetOrInsertContext)

	contextIDMap := make(map[int]int)    // old_id -> new_id
	contextTexts := make(map[int]string) // old_id -> context text
	for contextText, oldID := range imported.Contexts {
		if n := utf8.RuneCountInString(contextText); n != imported.Order-1 {
			return ModelInfo{}, fmt.Errorf("%w: context %s has %d symbols, want %d", ngram.ErrInvalidInput, ngram.Context(contextText), n, imported.Order-1)
		}
		var newID int
		if err := stmtGetOrInsertContext.QueryRowContext(ctx, contextText).Scan(&newID); err != nil {
			return ModelInfo{}, fmt.Errorf("failed to get/insert context %s: %w", ngram.Context(contextText), err)
		}
		contextIDMap[oldID] = newID
		contextTexts[oldID] = contextText
	}

	// Counts are added to existing entries instead of overwriting them.
	stmtMergeTransition, err := tx.PrepareContext(ctx, `
		INSERT INTO ngram_transitions (model_id, context_id, next_symbol, count) VALUES (?, ?, ?, ?)
		ON CONFLICT(model_id, context_id, next_symbol) DO UPDATE SET count = count + excluded.count;
	`)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("failed to prepare transition merge statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtMergeTransition)

	for _, tr := range imported.Transitions {
		newContextID, ok := contextIDMap[tr.ContextID]
		if !ok {
			return ModelInfo{}, fmt.Errorf("%w: import consistency error: context id %d not found in context map", ngram.ErrInvalidInput, tr.ContextID)
		}
		next, err := decodeSymbol(tr.Next)
		if err != nil {
			return ModelInfo{}, err
		}
		transition := ngram.Transition{Context: ngram.Context(contextTexts[tr.ContextID]), Next: next, Count: tr.Count}
		if err := ngram.ValidateTransition(info.Order, transition); err != nil {
			return ModelInfo{}, fmt.Errorf("import of model '%s' rejected: %w", info.Name, err)
		}
		if _, err := stmtMergeTransition.ExecContext(ctx, info.Id, newContextID, tr.Next, tr.Count); err != nil {
			return ModelInfo{}, fmt.Errorf("failed to merge transition (%d -> %q): %w", newContextID, tr.Next, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return ModelInfo{}, err
	}

	s.logger.InfoContext(ctx, "Model imported successfully",
		slog.String("model_name", info.Name),
		slog.Int("target_model_id", info.Id),
		slog.Int("contexts_merged", len(imported.Contexts)),
		slog.Int("transitions_merged", len(imported.Transitions)),
	)
	return info, nil
}

// decodeSymbol turns a stored next_symbol value back into a rune.
func decodeSymbol(text string) (rune, error) {
	r, size := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError || size != len(text) {
		return 0, fmt.Errorf("%w: stored symbol %q is not a single character", ngram.ErrInvalidInput, text)
	}
	return r, nil
}
