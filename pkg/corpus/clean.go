package corpus

import (
	"strings"

	"github.com/CTAG07/bznames/pkg/ngram"
)

// Punctuation is the set of ASCII punctuation characters Clean removes.
const Punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Clean lowercases every name and strips ASCII punctuation from it. Accented
// letters and spaces are kept. Frequencies and record order are unchanged.
func Clean(records []ngram.Record) []ngram.Record {
	cleaned := make([]ngram.Record, len(records))
	for i, rec := range records {
		cleaned[i] = ngram.Record{Name: CleanName(rec.Name), Freq: rec.Freq}
	}
	return cleaned
}

// CleanName normalizes a single name the way Clean does.
func CleanName(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(Punctuation, r) {
			return -1
		}
		return r
	}, strings.ToLower(name))
}
