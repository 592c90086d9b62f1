package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/CTAG07/bznames/pkg/ngram"
)

// DBStats holds aggregated statistics for the entire database, including a
// list of all models and their individual stats.
type DBStats struct {
	Models      []ModelInfo        `json:"models"`       // A list of models in the database
	Stats       map[int]ModelStats `json:"stats"`        // A mapping of model ids to their stats
	ContextSize int                `json:"context_size"` // The number of unique contexts across all models
}

// ModelStats holds aggregated statistics for a single stored model.
type ModelStats struct {
	Contexts        int   `json:"contexts"`         // The number of distinct contexts the model uses.
	Transitions     int   `json:"transitions"`      // The number of unique context->next links.
	TotalCount      int64 `json:"total_count"`      // The sum of all counts.
	StartingSymbols int   `json:"starting_symbols"` // The number of unique symbols that can start a name.
}

// GetModelStats returns statistics for a single stored model.
func (s *Store) GetModelStats(ctx context.Context, model ModelInfo) (ModelStats, error) {
	var stats ModelStats
	if err := s.stmtModelTransitions.QueryRowContext(ctx, model.Id).Scan(&stats.Transitions); err != nil {
		return ModelStats{}, err
	}
	if err := s.stmtModelCount.QueryRowContext(ctx, model.Id).Scan(&stats.TotalCount); err != nil {
		return ModelStats{}, err
	}
	if err := s.stmtModelContexts.QueryRowContext(ctx, model.Id).Scan(&stats.Contexts); err != nil {
		return ModelStats{}, err
	}

	var startID int
	err := s.stmtGetContextID.QueryRowContext(ctx, string(ngram.StartContext(model.Order))).Scan(&startID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return stats, nil
		}
		return ModelStats{}, err
	}
	if err := s.stmtModelStarters.QueryRowContext(ctx, model.Id, startID).Scan(&stats.StartingSymbols); err != nil {
		return ModelStats{}, err
	}
	return stats, nil
}

// GetStats returns a snapshot of statistics for the entire database,
// including global counts and per-model stats.
func (s *Store) GetStats(ctx context.Context) (*DBStats, error) {
	modelInfos, err := s.GetModelInfos(ctx)
	if err != nil {
		return nil, err
	}

	var contextLen int
	if err = s.stmtGetContextLen.QueryRowContext(ctx).Scan(&contextLen); err != nil {
		return nil, err
	}

	models := make([]ModelInfo, 0, len(modelInfos))
	modelStats := make(map[int]ModelStats)
	for _, v := range modelInfos {
		models = append(models, v)
		stats, err := s.GetModelStats(ctx, v)
		if err != nil {
			return nil, err
		}
		modelStats[v.Id] = stats
	}

	return &DBStats{
		Models:      models,
		Stats:       modelStats,
		ContextSize: contextLen,
	}, nil
}
