// Package corpus loads weighted name corpora for fitting ngram models: the
// IBGE census name ranking, local JSON files, and an on-disk cache in front
// of either.
package corpus
