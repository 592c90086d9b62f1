package ngram

import "errors"

var (
	// ErrNotFitted is returned by queries made before the model has been fitted.
	ErrNotFitted = errors.New("ngram: model not fitted")
	// ErrInvalidInput is returned for negative frequencies, names containing
	// the reserved sentinel symbols, malformed records and malformed snapshots.
	ErrInvalidInput = errors.New("ngram: invalid input")
	// ErrConfiguration is returned for invalid model or sampling parameters,
	// such as an order below 2 or a non-positive alpha.
	ErrConfiguration = errors.New("ngram: invalid configuration")
)
