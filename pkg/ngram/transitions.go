package ngram

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
)

// Transition is one entry of the transition table: how much weight was
// observed for Next following Context.
type Transition struct {
	Context Context
	Next    rune
	Count   int64
}

// Transitions returns a copy of the transition table, sorted by context and
// then by next symbol.
func (m *Model) Transitions() ([]Transition, error) {
	t, err := m.fitted()
	if err != nil {
		return nil, err
	}

	transitions := make([]Transition, 0, len(t.counts))
	for ctx, nexts := range t.counts {
		for next, count := range nexts {
			transitions = append(transitions, Transition{Context: ctx, Next: next, Count: count})
		}
	}
	slices.SortFunc(transitions, func(a, b Transition) int {
		if c := cmp.Compare(a.Context, b.Context); c != 0 {
			return c
		}
		return cmp.Compare(a.Next, b.Next)
	})
	return transitions, nil
}

// Restore replaces the model state with the given transitions, as if the model
// had been fitted on the corpus they were taken from. Duplicate entries are
// summed. The snapshot is validated in full before anything is published.
func (m *Model) Restore(transitions []Transition) error {
	t := newTable()

	for i, tr := range transitions {
		if err := ValidateTransition(m.order, tr); err != nil {
			return fmt.Errorf("transition %d: %w", i, err)
		}
		for _, r := range tr.Context.Symbols() {
			if r != StartSymbol {
				t.alphabet[r] = struct{}{}
			}
		}
		if tr.Next != EndSymbol {
			t.alphabet[tr.Next] = struct{}{}
		}
		t.add(tr.Context, tr.Next, tr.Count)
	}
	t.seal()

	m.publish(t)

	m.log().Info("Model restored",
		slog.Int("order", m.order),
		slog.Int("transitions", len(transitions)),
		slog.Int("contexts", len(t.counts)),
		slog.Int64("total_weight", t.total),
	)
	return nil
}

// ValidateTransition checks that a transition could have been produced by
// fitting a model of the given order: a context of order-1 symbols where start
// symbols only lead, no end symbol inside the context, a next symbol that is
// not the start symbol, and a non-negative count.
func ValidateTransition(order int, tr Transition) error {
	if tr.Count < 0 {
		return fmt.Errorf("%w: negative count %d", ErrInvalidInput, tr.Count)
	}
	symbols := tr.Context.Symbols()
	if len(symbols) != order-1 {
		return fmt.Errorf("%w: context %q has %d symbols, want %d", ErrInvalidInput, tr.Context.String(), len(symbols), order-1)
	}
	leading := true
	for _, r := range symbols {
		switch {
		case r == EndSymbol:
			return fmt.Errorf("%w: context %q contains the end symbol", ErrInvalidInput, tr.Context.String())
		case r == StartSymbol && !leading:
			return fmt.Errorf("%w: context %q has a start symbol after a character", ErrInvalidInput, tr.Context.String())
		case r != StartSymbol:
			leading = false
		}
	}
	if tr.Next == StartSymbol {
		return fmt.Errorf("%w: start symbol cannot be a next symbol", ErrInvalidInput)
	}
	return nil
}
