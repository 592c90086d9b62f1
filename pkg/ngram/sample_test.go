package ngram

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"
)

func TestSampleSeededIsReproducible(t *testing.T) {
	a := setupFittedModel(t, 3, testCorpus, WithSeed(42))
	b := setupFittedModel(t, 3, testCorpus, WithSeed(42))

	first, err := a.SampleN(25)
	if err != nil {
		t.Fatalf("SampleN() failed: %v", err)
	}
	second, err := b.SampleN(25)
	if err != nil {
		t.Fatalf("SampleN() failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("models with the same seed diverged:\n%v\n%v", first, second)
	}

	// Reseeding replays the run, one Sample call at a time.
	a.Reseed(42)
	for i, want := range first {
		got, err := a.Sample()
		if err != nil {
			t.Fatalf("Sample() failed: %v", err)
		}
		if got != want {
			t.Errorf("sample %d after Reseed = %q, want %q", i, got, want)
		}
	}
}

func TestSampleRespectsAlphabetAndCap(t *testing.T) {
	const maxLength = 6
	m := setupFittedModel(t, 3, testCorpus, WithSeed(7), WithMaxSampleLength(maxLength), WithAlpha(0.5))

	alphabet := make(map[rune]struct{})
	for _, rec := range testCorpus {
		for _, r := range rec.Name {
			alphabet[r] = struct{}{}
		}
	}

	names, err := m.SampleN(500)
	if err != nil {
		t.Fatalf("SampleN() failed: %v", err)
	}
	for _, name := range names {
		if strings.ContainsRune(name, StartSymbol) || strings.ContainsRune(name, EndSymbol) {
			t.Fatalf("sample %q contains a sentinel symbol", name)
		}
		if n := utf8.RuneCountInString(name); n > maxLength {
			t.Fatalf("sample %q has %d characters, cap is %d", name, n, maxLength)
		}
		for _, r := range name {
			if _, ok := alphabet[r]; !ok {
				t.Fatalf("sample %q contains %q, which is outside the training alphabet", name, r)
			}
		}
	}
}

func TestSampleWithFixedSource(t *testing.T) {
	testCases := []struct {
		name      string
		source    constSource
		maxLength int
		wantLen   int
	}{
		// The end symbol sorts first in the support, so a draw of 0 always ends.
		{name: "Lowest draw ends immediately", source: 0, maxLength: 10, wantLen: 0},
		// A draw near 1 always picks the highest symbol and never ends.
		{name: "Highest draw runs into the cap", source: 0.999999, maxLength: 10, wantLen: 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := setupFittedModel(t, 2, testCorpus, WithRandSource(tc.source), WithMaxSampleLength(tc.maxLength))
			name, err := m.Sample()
			if err != nil {
				t.Fatalf("Sample() failed: %v", err)
			}
			if n := utf8.RuneCountInString(name); n != tc.wantLen {
				t.Errorf("got %q (%d characters), want %d characters", name, n, tc.wantLen)
			}
		})
	}
}

func TestSampleGreedy(t *testing.T) {
	records := []Record{{Name: "ana", Freq: 10}, {Name: "bob", Freq: 1}}

	testCases := []struct {
		name string
		opts []SampleOption
		want string
	}{
		{name: "Zero temperature", opts: []SampleOption{WithTemperature(0)}, want: "ana"},
		{name: "Top-1", opts: []SampleOption{WithTopK(1)}, want: "ana"},
		{name: "Prefix", opts: []SampleOption{WithTemperature(0), WithPrefix("bo")}, want: "bob"},
		{name: "Prefix longer than cap", opts: []SampleOption{WithTemperature(0), WithPrefix("banana"), WithMaxLength(3)}, want: "ban"},
		{name: "Zero max length", opts: []SampleOption{WithMaxLength(0)}, want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := setupFittedModel(t, 3, records, WithSeed(1))
			got, err := m.Sample(tc.opts...)
			if err != nil {
				t.Fatalf("Sample() failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("Sample() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSampleInvalidOptions(t *testing.T) {
	m := setupFittedModel(t, 2, testCorpus)

	testCases := []struct {
		name string
		opts []SampleOption
		want error
	}{
		{name: "Negative max length", opts: []SampleOption{WithMaxLength(-1)}, want: ErrConfiguration},
		{name: "Negative top-k", opts: []SampleOption{WithTopK(-2)}, want: ErrConfiguration},
		{name: "NaN temperature", opts: []SampleOption{WithTemperature(math.NaN())}, want: ErrConfiguration},
		{name: "Sentinel in prefix", opts: []SampleOption{WithPrefix("a\x03")}, want: ErrInvalidInput},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := m.Sample(tc.opts...); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, err := m.SampleN(-1); !errors.Is(err, ErrConfiguration) {
		t.Errorf("SampleN(-1): expected ErrConfiguration, got %v", err)
	}
}

func TestSampleFollowsDistribution(t *testing.T) {
	// Single-letter names: the first draw decides the whole sample, and
	// after the letter the end symbol carries almost all the mass.
	records := []Record{{Name: "a", Freq: 3}, {Name: "b", Freq: 1}}
	m := setupFittedModel(t, 2, records, WithAlpha(1e-6), WithSeed(2024))

	const draws = 4000
	names, err := m.SampleN(draws)
	if err != nil {
		t.Fatal(err)
	}
	var as int
	for _, name := range names {
		if name == "a" {
			as++
		}
	}
	if got := float64(as) / draws; math.Abs(got-0.75) > 0.05 {
		t.Errorf("'a' was sampled with frequency %.3f, want about 0.75", got)
	}
}

func TestSampleConcurrentWithRefit(t *testing.T) {
	m := setupFittedModel(t, 3, testCorpus, WithSeed(3))

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := m.Sample(); err != nil {
					errs <- err
					return
				}
				if _, err := m.ComputeNLL("maria"); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 10; j++ {
			if err := m.Fit(testCorpus[:10+j]); err != nil {
				errs <- err
				return
			}
		}
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent use failed: %v", err)
	}
}

func BenchmarkSample(b *testing.B) {
	corpus := createBenchmarkCorpus()

	opts := map[string][]SampleOption{
		"Simple":          nil,
		"WithTemp":        {WithTemperature(0.7)},
		"WithTopK":        {WithTopK(5)},
		"WithTempAndTopK": {WithTemperature(0.7), WithTopK(5)},
	}

	m, err := New(3, WithSeed(1))
	if err != nil {
		b.Fatal(err)
	}
	if err := m.Fit(corpus); err != nil {
		b.Fatal(err)
	}

	for name, o := range opts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				s, err := m.Sample(o...)
				b.SetBytes(int64(len(s)))
				if err != nil {
					b.Fatalf("Sample() failed: %v", err)
				}
			}
		})
	}
}
