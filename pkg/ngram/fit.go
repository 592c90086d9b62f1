package ngram

import (
	"fmt"
	"log/slog"
	"slices"
)

// table is the transition table of a fitted model. It is never modified after
// being published.
type table struct {
	counts   map[Context]map[rune]int64
	totals   map[Context]int64
	alphabet map[rune]struct{}
	support  []rune // sorted alphabet plus EndSymbol; the outcomes any context can produce
	total    int64
}

func newTable() *table {
	return &table{
		counts:   make(map[Context]map[rune]int64),
		totals:   make(map[Context]int64),
		alphabet: make(map[rune]struct{}),
	}
}

// add increments counts[ctx][next], inserting the entries explicitly.
func (t *table) add(ctx Context, next rune, count int64) {
	nexts, ok := t.counts[ctx]
	if !ok {
		nexts = make(map[rune]int64)
		t.counts[ctx] = nexts
	}
	nexts[next] += count
	t.totals[ctx] += count
	t.total += count
}

// seal builds the sorted prediction support. It must be called once, after
// the last add.
func (t *table) seal() {
	t.support = make([]rune, 0, len(t.alphabet)+1)
	for r := range t.alphabet {
		t.support = append(t.support, r)
	}
	t.support = append(t.support, EndSymbol)
	slices.Sort(t.support)
}

// Fit builds the transition table from records. Every record contributes its
// frequency once per n-gram of its name. Records with a frequency of zero
// create table entries without adding weight.
//
// Fit replaces any previous state. All records are validated before anything
// is published, so a failed Fit leaves the model as it was.
func (m *Model) Fit(records []Record) error {
	t := newTable()

	for i, rec := range records {
		if rec.Freq < 0 {
			return fmt.Errorf("%w: record %d (%q) has negative frequency %d", ErrInvalidInput, i, rec.Name, rec.Freq)
		}
		if err := validateName(rec.Name); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}

		for _, r := range rec.Name {
			t.alphabet[r] = struct{}{}
		}
		freq := int64(rec.Freq)
		for g := range Ngrams(rec.Name, m.order) {
			t.add(g.Context(), g.Next(), freq)
		}
	}
	t.seal()

	m.publish(t)

	m.log().Info("Model fitted",
		slog.Int("order", m.order),
		slog.Int("records", len(records)),
		slog.Int("contexts", len(t.counts)),
		slog.Int("alphabet_size", len(t.support)),
		slog.Int64("total_weight", t.total),
	)
	return nil
}
