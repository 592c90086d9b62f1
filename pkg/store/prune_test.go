package store

import (
	"context"
	"testing"

	"github.com/CTAG07/bznames/pkg/ngram"
)

func TestPruneModel(t *testing.T) {
	db, s := setupTestDB(t)
	ctx := context.Background()

	m, _ := ngram.New(2)
	// "ab" twice and "ac" once: <SOC>->a has count 3, a->b and b-><EOC> have
	// count 2, a->c and c-><EOC> have count 1.
	_ = m.Fit([]ngram.Record{{Name: "ab", Freq: 2}, {Name: "ac", Freq: 1}})
	info, err := s.SaveModel(ctx, "prune_test", m)
	if err != nil {
		t.Fatal(err)
	}

	removed, err := s.PruneModel(ctx, info, 1)
	if err != nil {
		t.Fatalf("PruneModel failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 transitions removed, got %d", removed)
	}

	var count int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ngram_transitions WHERE model_id = ? AND count <= 1", info.Id).Scan(&count)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected 0 transitions with count 1 after pruning, got %d", count)
	}

	// The pruned model still loads and still scores the pruned path finitely.
	loaded, err := s.LoadModel(ctx, info)
	if err != nil {
		t.Fatalf("LoadModel after prune failed: %v", err)
	}
	if _, err := loaded.ComputeNLL("ac"); err != nil {
		t.Errorf("ComputeNLL on pruned model failed: %v", err)
	}
}

func TestPruneContexts(t *testing.T) {
	ctx, s, _, info := setupTestDBWithModel(t)

	if removed, err := s.PruneContexts(ctx); err != nil || removed != 0 {
		t.Fatalf("PruneContexts() on a live model = %d, %v; want 0, nil", removed, err)
	}

	if err := s.RemoveModel(ctx, info); err != nil {
		t.Fatal(err)
	}
	removed, err := s.PruneContexts(ctx)
	if err != nil {
		t.Fatalf("PruneContexts() failed: %v", err)
	}
	if removed == 0 {
		t.Error("expected orphaned contexts to be removed")
	}

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.ContextSize != 0 {
		t.Errorf("expected no contexts left, got %d", stats.ContextSize)
	}
}
