package store

import (
	"context"
	"testing"
)

func TestGetStats(t *testing.T) {
	ctx, s, m, info := setupTestDBWithModel(t)

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() failed: %v", err)
	}
	if len(stats.Models) != 1 {
		t.Fatalf("expected 1 model, got %d", len(stats.Models))
	}

	want, _ := m.Stats()
	got, ok := stats.Stats[info.Id]
	if !ok {
		t.Fatalf("no stats for model id %d", info.Id)
	}
	if got.Contexts != want.Contexts {
		t.Errorf("Contexts = %d, want %d", got.Contexts, want.Contexts)
	}
	if got.Transitions != want.Transitions {
		t.Errorf("Transitions = %d, want %d", got.Transitions, want.Transitions)
	}
	if got.TotalCount != want.TotalWeight {
		t.Errorf("TotalCount = %d, want %d", got.TotalCount, want.TotalWeight)
	}
	if got.StartingSymbols != want.StartingSymbols {
		t.Errorf("StartingSymbols = %d, want %d", got.StartingSymbols, want.StartingSymbols)
	}
	if stats.ContextSize != want.Contexts {
		t.Errorf("ContextSize = %d, want %d", stats.ContextSize, want.Contexts)
	}
}

func TestGetStatsEmpty(t *testing.T) {
	_, s := setupTestDB(t)

	stats, err := s.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats() on empty database failed: %v", err)
	}
	if len(stats.Models) != 0 || stats.ContextSize != 0 {
		t.Errorf("expected empty stats, got %+v", stats)
	}
}
