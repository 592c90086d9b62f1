package ngram

import (
	"fmt"
	"math"
)

// probability returns the Lidstone-smoothed P(next | ctx). A context or symbol
// missing from the table counts as zero, so an unseen context yields the
// uniform distribution over the support.
func (t *table) probability(ctx Context, next rune, alpha float64) float64 {
	count := t.counts[ctx][next]
	return (float64(count) + alpha) / (float64(t.totals[ctx]) + alpha*float64(len(t.support)))
}

// ComputeNLL returns the negative log-likelihood of name: the sum over its
// n-grams of -log P(next | context). Lower values mean the name is more
// likely. The result is always finite and non-negative.
func (m *Model) ComputeNLL(name string) (float64, error) {
	t, err := m.fitted()
	if err != nil {
		return 0, err
	}
	if err = validateName(name); err != nil {
		return 0, err
	}

	nll, _ := m.nll(t, name)
	return nll, nil
}

// Perplexity returns exp(NLL / k), where k is the number of predictions made
// while scoring name (its length plus one for the end symbol). It makes
// scores of names of different lengths comparable.
func (m *Model) Perplexity(name string) (float64, error) {
	t, err := m.fitted()
	if err != nil {
		return 0, err
	}
	if err = validateName(name); err != nil {
		return 0, err
	}

	nll, steps := m.nll(t, name)
	return math.Exp(nll / float64(steps)), nil
}

// Probability returns the smoothed probability of next following ctx. The
// context must hold exactly n-1 symbols.
func (m *Model) Probability(ctx Context, next rune) (float64, error) {
	t, err := m.fitted()
	if err != nil {
		return 0, err
	}
	if ctx.Len() != m.order-1 {
		return 0, fmt.Errorf("%w: context %q has %d symbols, want %d", ErrInvalidInput, ctx.String(), ctx.Len(), m.order-1)
	}
	return t.probability(ctx, next, m.alpha), nil
}

func (m *Model) nll(t *table, name string) (float64, int) {
	var nll float64
	var steps int
	for g := range Ngrams(name, m.order) {
		nll -= math.Log(t.probability(g.Context(), g.Next(), m.alpha))
		steps++
	}
	return nll, steps
}
