package store

import (
	"context"
	"fmt"
	"log/slog"
)

// PruneModel removes all transitions of a model whose count is less than or
// equal to minCount, returning how many were removed. Pruning drops rare and
// often noisy transitions; the smoothed model still assigns them probability
// through alpha once it is loaded again.
func (s *Store) PruneModel(ctx context.Context, model ModelInfo, minCount int64) (int64, error) {
	res, err := s.stmtPruneModel.ExecContext(ctx, model.Id, minCount)
	if err != nil {
		return 0, fmt.Errorf("could not prune model %d: %w", model.Id, err)
	}
	rowsAffected, _ := res.RowsAffected()

	s.logger.InfoContext(ctx, "Model pruned",
		slog.String("model_name", model.Name),
		slog.Int("model_id", model.Id),
		slog.Int64("min_count", minCount),
		slog.Int64("transitions_removed", rowsAffected),
	)
	return rowsAffected, nil
}

// PruneContexts deletes contexts that no model references anymore, as left
// behind by RemoveModel and PruneModel. It returns the number removed.
func (s *Store) PruneContexts(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ngram_contexts WHERE context_id NOT IN (SELECT DISTINCT context_id FROM ngram_transitions);`)
	if err != nil {
		return 0, fmt.Errorf("could not prune contexts: %w", err)
	}
	rowsAffected, _ := res.RowsAffected()

	s.logger.InfoContext(ctx, "Orphaned contexts pruned",
		slog.Int64("contexts_removed", rowsAffected),
	)
	return rowsAffected, nil
}
