/*
Package store persists fitted character models in a SQLite database.

A Store snapshots the transition table of an ngram.Model into three tables
(models, shared contexts, and per-model transitions) and restores it into a
fresh model later, so a corpus only has to be fetched and fitted once. Models
can also be exported to and imported from JSON, pruned, and inspected.

The package works with any database/sql SQLite driver; callers choose and
register one.
*/
package store
