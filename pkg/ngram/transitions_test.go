package ngram

import (
	"errors"
	"reflect"
	"slices"
	"testing"
)

func TestRestoreRoundTrip(t *testing.T) {
	original := setupFittedModel(t, 3, testCorpus, WithAlpha(0.25))

	transitions, err := original.Transitions()
	if err != nil {
		t.Fatalf("Transitions() failed: %v", err)
	}

	restored, err := New(3, WithAlpha(0.25))
	if err != nil {
		t.Fatal(err)
	}
	if err := restored.Restore(transitions); err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}

	origStats, _ := original.Stats()
	restStats, _ := restored.Stats()
	if origStats != restStats {
		t.Errorf("restored stats = %+v, want %+v", restStats, origStats)
	}

	for _, name := range []string{"maria", "pedro", "xavier", ""} {
		want, _ := original.ComputeNLL(name)
		got, err := restored.ComputeNLL(name)
		if err != nil {
			t.Fatalf("ComputeNLL(%q) on restored model failed: %v", name, err)
		}
		if got != want {
			t.Errorf("ComputeNLL(%q) = %v after restore, want %v", name, got, want)
		}
	}
}

func TestRestoreSumsDuplicates(t *testing.T) {
	m, err := New(2)
	if err != nil {
		t.Fatal(err)
	}

	start := StartContext(2)
	err = m.Restore([]Transition{
		{Context: start, Next: 'a', Count: 2},
		{Context: start, Next: 'a', Count: 3},
		{Context: "a", Next: EndSymbol, Count: 5},
	})
	if err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}

	fitted := setupFittedModel(t, 2, []Record{{Name: "a", Freq: 5}})
	a, _ := m.Transitions()
	b, _ := fitted.Transitions()
	if !reflect.DeepEqual(a, b) {
		t.Errorf("restored table = %+v, want %+v", a, b)
	}
}

func TestRestoreInvalid(t *testing.T) {
	start := StartContext(3)
	testCases := []struct {
		name        string
		transitions []Transition
	}{
		{name: "Negative count", transitions: []Transition{{Context: start, Next: 'a', Count: -1}}},
		{name: "Short context", transitions: []Transition{{Context: "a", Next: 'b', Count: 1}}},
		{name: "Long context", transitions: []Transition{{Context: "abc", Next: 'd', Count: 1}}},
		{name: "End symbol in context", transitions: []Transition{{Context: Context([]rune{'a', EndSymbol}), Next: 'b', Count: 1}}},
		{name: "Start symbol after a character", transitions: []Transition{{Context: Context([]rune{'a', StartSymbol}), Next: 'b', Count: 1}}},
		{name: "Start symbol predicted", transitions: []Transition{{Context: start, Next: StartSymbol, Count: 1}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := setupFittedModel(t, 3, testCorpus)
			before, _ := m.Transitions()

			if err := m.Restore(tc.transitions); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}

			after, _ := m.Transitions()
			if !reflect.DeepEqual(before, after) {
				t.Error("a failed Restore must leave the table unchanged")
			}
		})
	}
}

func TestTransitionsSorted(t *testing.T) {
	m := setupFittedModel(t, 3, testCorpus)

	transitions, err := m.Transitions()
	if err != nil {
		t.Fatal(err)
	}
	sorted := slices.IsSortedFunc(transitions, func(a, b Transition) int {
		if a.Context != b.Context {
			if a.Context < b.Context {
				return -1
			}
			return 1
		}
		return int(a.Next - b.Next)
	})
	if !sorted {
		t.Error("Transitions() must be sorted by context, then next symbol")
	}
}
