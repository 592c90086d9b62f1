package ngram

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
)

// sampleOptions is used by the sample functions to configure default options.
type sampleOptions struct {
	maxLength   int
	temperature float64
	topK        int
	prefix      string
}

// SampleOption is a function that configures a single Sample or SampleN call.
type SampleOption func(*sampleOptions)

// WithMaxLength overrides the model's maximum sample length for this call.
func WithMaxLength(n int) SampleOption {
	return func(o *sampleOptions) { o.maxLength = n }
}

// WithTemperature adjusts the randomness of symbol selection.
// A value of 1.0 samples from the smoothed distribution exactly.
// Values > 1.0 flatten the distribution, values < 1.0 sharpen it.
// A value of 0 or less always picks the most probable symbol.
func WithTemperature(t float64) SampleOption {
	return func(o *sampleOptions) { o.temperature = t }
}

// WithTopK restricts selection at each step to the k most probable symbols.
// A value of 0 disables Top-K sampling.
func WithTopK(k int) SampleOption {
	return func(o *sampleOptions) { o.topK = k }
}

// WithPrefix starts generation from the given characters instead of from an
// empty name. The prefix is part of the output and counts towards the length cap.
func WithPrefix(prefix string) SampleOption {
	return func(o *sampleOptions) { o.prefix = prefix }
}

// Sample generates a new name. Starting from the all-start context it draws
// the next symbol from the smoothed conditional distribution, appends it and
// slides the context forward, until the end symbol is drawn or the output
// reaches the maximum length, in which case the partial name is returned.
// The returned string never contains a sentinel symbol.
func (m *Model) Sample(opts ...SampleOption) (string, error) {
	t, err := m.fitted()
	if err != nil {
		return "", err
	}
	options, err := m.sampleOptions(opts)
	if err != nil {
		return "", err
	}

	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return m.sample(t, options), nil
}

// SampleN generates count names with the same options. The draws happen as
// one uninterrupted run of the random source.
func (m *Model) SampleN(count int, opts ...SampleOption) ([]string, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: sample count must not be negative, got %d", ErrConfiguration, count)
	}
	t, err := m.fitted()
	if err != nil {
		return nil, err
	}
	options, err := m.sampleOptions(opts)
	if err != nil {
		return nil, err
	}

	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	names := make([]string, 0, count)
	for range count {
		names = append(names, m.sample(t, options))
	}
	return names, nil
}

func (m *Model) sampleOptions(opts []SampleOption) (*sampleOptions, error) {
	options := &sampleOptions{
		maxLength:   m.maxSampleLength,
		temperature: 1.0,
		topK:        0,
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.maxLength < 0 {
		return nil, fmt.Errorf("%w: max length must not be negative, got %d", ErrConfiguration, options.maxLength)
	}
	if options.topK < 0 {
		return nil, fmt.Errorf("%w: top-k must not be negative, got %d", ErrConfiguration, options.topK)
	}
	if math.IsNaN(options.temperature) || math.IsInf(options.temperature, 0) {
		return nil, fmt.Errorf("%w: temperature must be finite, got %v", ErrConfiguration, options.temperature)
	}
	if err := validateName(options.prefix); err != nil {
		return nil, fmt.Errorf("prefix: %w", err)
	}
	return options, nil
}

// sample contains the main generation loop. The caller must hold rngMu.
func (m *Model) sample(t *table, options *sampleOptions) string {
	out := make([]rune, 0, options.maxLength)

	// Sliding window over the last n-1 symbols, initially all start symbols.
	window := StartContext(m.order).Symbols()
	shift := func(r rune) {
		copy(window, window[1:])
		window[len(window)-1] = r
	}

	for _, r := range options.prefix {
		if len(out) >= options.maxLength {
			break
		}
		out = append(out, r)
		shift(r)
	}

	weights := make([]float64, len(t.support))
	for len(out) < options.maxLength {
		ctx := Context(window)
		nexts := t.counts[ctx]
		for i, r := range t.support {
			weights[i] = float64(nexts[r]) + m.alpha
		}

		next := chooseNextSymbol(m.rng, t.support, weights, options)
		if next == EndSymbol {
			m.log().Debug("Sampling terminated by end symbol",
				slog.Int("order", m.order),
				slog.Int("sampled_length", len(out)),
			)
			return string(out)
		}
		out = append(out, next)
		shift(next)
	}

	m.log().Debug("Sampling terminated by reaching max length",
		slog.Int("order", m.order),
		slog.Int("max_length", options.maxLength),
	)
	return string(out)
}

// chooseNextSymbol draws one symbol from support with probability
// proportional to weights, after Top-K filtering and temperature scaling.
// weights are the smoothed counts (count + alpha) for each symbol of support.
func chooseNextSymbol(rng RandSource, support []rune, weights []float64, options *sampleOptions) rune {
	idx := make([]int, len(support))
	for i := range idx {
		idx[i] = i
	}

	// topK filtering, ties broken by support order
	if options.topK > 0 && options.topK < len(idx) {
		sort.SliceStable(idx, func(i, j int) bool {
			return weights[idx[i]] > weights[idx[j]]
		})
		idx = idx[:options.topK]
		sort.Ints(idx)
	}

	// temperature selection
	if options.temperature <= 0 { // Deterministic
		best := idx[0]
		for _, i := range idx[1:] {
			if weights[i] > weights[best] {
				best = i
			}
		}
		return support[best]
	}

	scaled := make([]float64, len(idx))
	var totalWeight float64
	if options.temperature == 1.0 { // Standard weighted random
		for k, i := range idx {
			scaled[k] = weights[i]
			totalWeight += weights[i]
		}
	} else { // Temperature-based sampling, in log space relative to the max
		maxLog := math.Inf(-1)
		for k, i := range idx {
			scaled[k] = math.Log(weights[i]) / options.temperature
			if scaled[k] > maxLog {
				maxLog = scaled[k]
			}
		}
		for k := range scaled {
			scaled[k] = math.Exp(scaled[k] - maxLog)
			totalWeight += scaled[k]
		}
	}

	randChoice := rng.Float64() * totalWeight
	for k, i := range idx {
		randChoice -= scaled[k]
		if randChoice < 0 {
			return support[i]
		}
	}
	// Floating point round-off can leave a sliver past the last bucket.
	return support[idx[len(idx)-1]]
}
