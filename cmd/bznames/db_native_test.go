//go:build !cgo_sqlite

package main

import "testing"

func TestNativeDSN(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{in: "./data/bznames.db", want: "./data/bznames.db"},
		{
			in:   "./data/bznames.db?_journal_mode=WAL&_busy_timeout=5000",
			want: "./data/bznames.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		},
		{in: "test.db?_synchronous=NORMAL&mode=ro", want: "test.db?_pragma=synchronous(NORMAL)&mode=ro"},
	}

	for _, tc := range testCases {
		if got := nativeDSN(tc.in); got != tc.want {
			t.Errorf("nativeDSN(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
