/*
Package ngram implements a character-level n-gram language model for personal
names.

A Model is fitted once from a frequency-weighted list of Records. Each name is
padded with (n-1) start symbols and a single end symbol, decomposed into
overlapping n-grams, and every n-gram adds the record's frequency to the
transition table under its (n-1)-symbol context. The fitted model can then
score arbitrary names (ComputeNLL, a Lidstone-smoothed negative
log-likelihood) and generate new ones (Sample).

The model holds no I/O and no persistence of its own. Transitions and Restore
expose the table as a plain snapshot for callers that want to store it.
*/
package ngram
