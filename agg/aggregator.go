// Package agg implements running aggregation of gas costs per opcode:
// count, total, min and max folds over a stream of completed trace steps.
package agg

// minSentinel is higher than any gas cost a single step can report,
// so the first Add always lowers Min.
const minSentinel = 1 << 62

// Stats holds the running aggregates for one opcode.
// It is a value type: Add and Combine return a new Stats rather than
// mutating in place, so partial aggregations can be merged freely.
type Stats struct {
	Count int64
	Total int64
	Min   int64
	Max   int64
}

// NewStats returns an empty Stats.
// Max starts at zero, not at a low sentinel. gas costs are never negative,
// and this matches what the opcode tracer reports for empty ranges.
func NewStats() Stats {
	return Stats{Min: minSentinel}
}

// Add folds one cost into s and returns the result.
func (s Stats) Add(cost int64) Stats {
	s.Count++
	s.Total += cost
	if cost < s.Min {
		s.Min = cost
	}
	if cost > s.Max {
		s.Max = cost
	}
	return s
}

// Avg returns the derived average. It is never stored.
func (s Stats) Avg() float64 {
	if s.Count == 0 {
		return 0.0
	}
	return float64(s.Total) / float64(s.Count)
}

// Combine merges two partial aggregations.
// It is associative and commutative, and NewStats() is its identity,
// so streams may be folded in chunks and merged in any order.
func Combine(a, b Stats) Stats {
	out := Stats{
		Count: a.Count + b.Count,
		Total: a.Total + b.Total,
		Min:   a.Min,
		Max:   a.Max,
	}
	if b.Min < out.Min {
		out.Min = b.Min
	}
	if b.Max > out.Max {
		out.Max = b.Max
	}
	return out
}

// Aggregator folds completed records into per-opcode stats.
// It is single-owner and not safe for concurrent use.
type Aggregator struct {
	ops map[string]Stats
}

func New() *Aggregator {
	return &Aggregator{
		ops: make(map[string]Stats),
	}
}

// Record folds one (opcode, cost) pair into the running stats.
// The entry for an opcode is created lazily and never deleted.
func (a *Aggregator) Record(op string, cost int64) {
	st, ok := a.ops[op]
	if !ok {
		st = NewStats()
	}
	a.ops[op] = st.Add(cost)
}

// Totals hands off the final per-opcode mapping.
// Iteration order is up to the caller; see the report package.
func (a *Aggregator) Totals() map[string]Stats {
	return a.ops
}
