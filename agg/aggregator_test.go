package agg

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRecord(t *testing.T) {
	a := New()
	a.Record("ADD", 3)
	a.Record("ADD", 5)
	a.Record("MUL", 8)

	want := map[string]Stats{
		"ADD": {Count: 2, Total: 8, Min: 3, Max: 5},
		"MUL": {Count: 1, Total: 8, Min: 8, Max: 8},
	}
	if diff := cmp.Diff(want, a.Totals()); diff != "" {
		t.Fatalf("totals mismatch (-want +got):\n%s", diff)
	}
	if got := a.Totals()["ADD"].Avg(); got != 4.0 {
		t.Fatalf("ADD avg: expected 4.0, got %f", got)
	}
	if got := a.Totals()["MUL"].Avg(); got != 8.0 {
		t.Fatalf("MUL avg: expected 8.0, got %f", got)
	}
}

func TestAvgEmpty(t *testing.T) {
	if got := NewStats().Avg(); got != 0.0 {
		t.Fatalf("empty stats avg: expected 0.0, got %f", got)
	}
}

func TestMinMaxSingleValue(t *testing.T) {
	st := NewStats().Add(42)
	if st.Min != 42 || st.Max != 42 {
		t.Fatalf("expected min=max=42, got min=%d max=%d", st.Min, st.Max)
	}
}

func TestDeterminism(t *testing.T) {
	costs := []int64{3, 700, 0, 2600, 3, 21000, 9}
	feed := func() map[string]Stats {
		a := New()
		for i, c := range costs {
			op := "PUSH1"
			if i%2 == 0 {
				op = "SSTORE"
			}
			a.Record(op, c)
		}
		return a.Totals()
	}
	if diff := cmp.Diff(feed(), feed()); diff != "" {
		t.Fatalf("two identical runs diverged:\n%s", diff)
	}
}

func TestCombine(t *testing.T) {
	costs := []int64{3, 3, 5, 700, 0, 2600, 9}

	// sequential fold
	all := NewStats()
	for _, c := range costs {
		all = all.Add(c)
	}

	// split fold, merged
	left, right := NewStats(), NewStats()
	for _, c := range costs[:3] {
		left = left.Add(c)
	}
	for _, c := range costs[3:] {
		right = right.Add(c)
	}

	if diff := cmp.Diff(all, Combine(left, right)); diff != "" {
		t.Fatalf("Combine != sequential Add:\n%s", diff)
	}
	if diff := cmp.Diff(Combine(left, right), Combine(right, left)); diff != "" {
		t.Fatalf("Combine not commutative:\n%s", diff)
	}
	if diff := cmp.Diff(all, Combine(all, NewStats())); diff != "" {
		t.Fatalf("NewStats() not the Combine identity:\n%s", diff)
	}
}
