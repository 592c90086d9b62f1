package ngram

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	// StartSymbol is the reserved padding symbol emitted (n-1) times before
	// the first character of every name.
	StartSymbol rune = '\x02'
	// EndSymbol is the reserved symbol emitted once after the last character
	// of every name. Drawing it terminates sampling.
	EndSymbol rune = '\x03'
	// StartText is the printable form of StartSymbol.
	StartText = "<SOC>"
	// EndText is the printable form of EndSymbol.
	EndText = "<EOC>"
)

// Ngram is a window of n consecutive symbols taken from a padded name.
// Ngrams yielded by this package share storage with each other and must not
// be modified.
type Ngram []rune

// Context returns the leading n-1 symbols of the n-gram.
func (g Ngram) Context() Context {
	return Context(g[:len(g)-1])
}

// Next returns the final symbol of the n-gram, the one predicted by its context.
func (g Ngram) Next() rune {
	return g[len(g)-1]
}

// String renders the n-gram with sentinels replaced by their printable form.
func (g Ngram) String() string {
	return formatSymbols(g)
}

// Context is an ordered tuple of n-1 symbols, stored as a string so it can key
// the transition table.
type Context string

// Symbols returns the context as a slice of runes.
func (c Context) Symbols() []rune {
	return []rune(string(c))
}

// Len returns the number of symbols in the context.
func (c Context) Len() int {
	return utf8.RuneCountInString(string(c))
}

// String renders the context with sentinels replaced by their printable form.
func (c Context) String() string {
	return formatSymbols([]rune(string(c)))
}

// StartContext returns the context every name begins in: n-1 start symbols.
func StartContext(n int) Context {
	if n < 2 {
		return ""
	}
	return Context(strings.Repeat(string(StartSymbol), n-1))
}

// Ngrams returns a lazy sequence of the n-grams of name, obtained by sliding a
// window of width n over (n-1) start symbols, the runes of name, and one end
// symbol. The sequence always has utf8.RuneCountInString(name)+1 elements and
// can be ranged over any number of times.
func Ngrams(name string, n int) iter.Seq[Ngram] {
	return func(yield func(Ngram) bool) {
		if n < 1 {
			return
		}
		padded := pad(name, n)
		for i := 0; i+n <= len(padded); i++ {
			if !yield(Ngram(padded[i : i+n : i+n])) {
				return
			}
		}
	}
}

// ExtractNgrams collects Ngrams(name, n) into a slice.
func ExtractNgrams(name string, n int) []Ngram {
	return slices.Collect(Ngrams(name, n))
}

// FormatSymbol returns the printable form of a single symbol.
func FormatSymbol(r rune) string {
	switch r {
	case StartSymbol:
		return StartText
	case EndSymbol:
		return EndText
	default:
		return string(r)
	}
}

func pad(name string, n int) []rune {
	padded := make([]rune, 0, n+utf8.RuneCountInString(name))
	for range n - 1 {
		padded = append(padded, StartSymbol)
	}
	for _, r := range name {
		padded = append(padded, r)
	}
	return append(padded, EndSymbol)
}

func formatSymbols(symbols []rune) string {
	var sb strings.Builder
	for _, r := range symbols {
		sb.WriteString(FormatSymbol(r))
	}
	return sb.String()
}

// validateName rejects strings that cannot be decomposed unambiguously: those
// that are not valid UTF-8 and those containing a sentinel symbol.
func validateName(name string) error {
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: name %q is not valid UTF-8", ErrInvalidInput, name)
	}
	if strings.ContainsRune(name, StartSymbol) || strings.ContainsRune(name, EndSymbol) {
		return fmt.Errorf("%w: name %q contains a reserved sentinel symbol", ErrInvalidInput, formatSymbols([]rune(name)))
	}
	return nil
}
