package ngram

// Stats holds aggregated statistics for a fitted model.
type Stats struct {
	Order           int     `json:"order"`
	Alpha           float64 `json:"alpha"`
	Contexts        int     `json:"contexts"`         // The number of distinct contexts observed.
	Transitions     int     `json:"transitions"`      // The number of unique context->next links.
	TotalWeight     int64   `json:"total_weight"`     // The sum of all counts; the total weighted number of n-grams.
	AlphabetSize    int     `json:"alphabet_size"`    // The size of the prediction support, end symbol included.
	StartingSymbols int     `json:"starting_symbols"` // The number of unique symbols that can start a name.
}

// Stats returns a snapshot of statistics for the current transition table.
func (m *Model) Stats() (Stats, error) {
	t, err := m.fitted()
	if err != nil {
		return Stats{}, err
	}

	var links int
	for _, nexts := range t.counts {
		links += len(nexts)
	}

	return Stats{
		Order:           m.order,
		Alpha:           m.alpha,
		Contexts:        len(t.counts),
		Transitions:     links,
		TotalWeight:     t.total,
		AlphabetSize:    len(t.support),
		StartingSymbols: len(t.counts[StartContext(m.order)]),
	}, nil
}
