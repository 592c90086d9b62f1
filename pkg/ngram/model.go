package ngram

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
)

const (
	// DefaultAlpha is the smoothing pseudocount used when WithAlpha is not given.
	DefaultAlpha = 1.0
	// DefaultMaxSampleLength caps generated names when WithMaxSampleLength is not given.
	DefaultMaxSampleLength = 32
)

// Record is a single weighted training example: a name and how often it occurs.
type Record struct {
	Name string `json:"name"`
	Freq int    `json:"freq"`
}

// NameSampler is the capability set shared by name models: fit once from a
// weighted corpus, then score and generate names.
type NameSampler interface {
	// Fit replaces the model state with statistics gathered from records.
	Fit(records []Record) error
	// ComputeNLL returns the negative log-likelihood of name under the model.
	ComputeNLL(name string) (float64, error)
	// Perplexity returns the length-normalized score of name.
	Perplexity(name string) (float64, error)
	// Sample generates a new name from the model.
	Sample(opts ...SampleOption) (string, error)
}

var _ NameSampler = (*Model)(nil)

// RandSource is the source of uniform random numbers in [0, 1) used by
// sampling. *rand.Rand from math/rand/v2 satisfies it.
type RandSource interface {
	Float64() float64
}

// Option configures a Model at construction time.
type Option func(*Model)

// WithAlpha sets the additive smoothing pseudocount. It must be positive.
// Default: 1.0
func WithAlpha(alpha float64) Option {
	return func(m *Model) { m.alpha = alpha }
}

// WithMaxSampleLength sets the maximum number of characters Sample generates
// before giving up on drawing the end symbol. Default: 32
func WithMaxSampleLength(n int) Option {
	return func(m *Model) { m.maxSampleLength = n }
}

// WithSeed makes sampling deterministic by seeding a PCG source.
func WithSeed(seed uint64) Option {
	return func(m *Model) { m.rng = newSeededRand(seed) }
}

// WithRandSource replaces the random source used by sampling. The model
// serializes access to it, so it does not need to be safe for concurrent use.
func WithRandSource(src RandSource) Option {
	return func(m *Model) { m.rng = src }
}

// WithLogger sets the logger used for fitting and sampling diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) { m.SetLogger(logger) }
}

// Model is an order-n character model with Lidstone smoothing.
//
// Fit and Restore publish a new immutable transition table; ComputeNLL, Sample
// and the other queries read whichever table is current. All methods are safe
// for concurrent use.
type Model struct {
	order           int
	alpha           float64
	maxSampleLength int

	mu    sync.RWMutex
	state *table // nil until fitted

	rngMu sync.Mutex
	rng   RandSource

	logger atomic.Pointer[slog.Logger]
}

// New creates an empty model of the given order. The order must be at least 2
// so that every prediction is conditioned on at least one symbol.
func New(order int, opts ...Option) (*Model, error) {
	if order < 2 {
		return nil, fmt.Errorf("%w: order must be at least 2, got %d", ErrConfiguration, order)
	}

	m := &Model{
		order:           order,
		alpha:           DefaultAlpha,
		maxSampleLength: DefaultMaxSampleLength,
	}
	m.logger.Store(slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, opt := range opts {
		opt(m)
	}

	if !(m.alpha > 0) || math.IsInf(m.alpha, 0) {
		return nil, fmt.Errorf("%w: alpha must be a positive finite number, got %v", ErrConfiguration, m.alpha)
	}
	if m.maxSampleLength < 1 {
		return nil, fmt.Errorf("%w: max sample length must be at least 1, got %d", ErrConfiguration, m.maxSampleLength)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return m, nil
}

// SetLogger sets the logger for the Model. By default, all logs are discarded.
func (m *Model) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger.Store(logger)
	}
}

func (m *Model) log() *slog.Logger {
	return m.logger.Load()
}

// Order returns the Markov order n.
func (m *Model) Order() int { return m.order }

// Alpha returns the smoothing pseudocount.
func (m *Model) Alpha() float64 { return m.alpha }

// MaxSampleLength returns the default generation cap.
func (m *Model) MaxSampleLength() int { return m.maxSampleLength }

// Fitted reports whether Fit or Restore has completed successfully.
func (m *Model) Fitted() bool {
	return m.current() != nil
}

// Reseed replaces the random source with a PCG source seeded with seed.
// Reseeding twice with the same seed replays the same sequence of samples.
func (m *Model) Reseed(seed uint64) {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	m.rng = newSeededRand(seed)
}

func (m *Model) current() *table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Model) publish(t *table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = t
}

func (m *Model) fitted() (*table, error) {
	t := m.current()
	if t == nil {
		return nil, ErrNotFitted
	}
	return t, nil
}

func newSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
