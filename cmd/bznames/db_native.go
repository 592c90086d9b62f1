//go:build !cgo_sqlite

package main

import (
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"
)

// initDB opens the database with the pure Go driver. It understands pragmas
// as _pragma query parameters, so the mattn-style _journal_mode and
// _busy_timeout parameters of the default path are translated.
func initDB(dataSource string) (*sql.DB, error) {
	return sql.Open("sqlite", nativeDSN(dataSource))
}

func nativeDSN(dataSource string) string {
	path, query, found := strings.Cut(dataSource, "?")
	if !found {
		return dataSource
	}
	var params []string
	for _, p := range strings.Split(query, "&") {
		key, value, _ := strings.Cut(p, "=")
		switch key {
		case "_journal_mode":
			params = append(params, "_pragma=journal_mode("+value+")")
		case "_busy_timeout":
			params = append(params, "_pragma=busy_timeout("+value+")")
		case "_synchronous":
			params = append(params, "_pragma=synchronous("+value+")")
		default:
			params = append(params, p)
		}
	}
	return path + "?" + strings.Join(params, "&")
}
