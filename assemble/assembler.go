// Package assemble reconstructs logical records from the unordered,
// incremental field tokens produced by an input.Source.
//
// A record is pending from the first triple carrying its index until all
// required fields have arrived. At that point it either completes into a
// (category, value) pair or is discarded, and its slot is freed for good.
package assemble

import (
	"errors"
	"strconv"

	"github.com/grafana/tracegas/input"
)

// ErrTooManyPending means the in-flight bound was exceeded: the tokenizer
// is not delivering complete records within the promised window.
var ErrTooManyPending = errors.New("too many records in flight")

// Record is a completed record: the grouping key and the parsed value.
type Record struct {
	Category string
	Value    int64
}

type Config struct {
	CategoryField string // field holding the grouping key, eg "op"
	ValueField    string // field holding the numeric value, eg "gasCost"

	// FilterField, when non-empty, restricts completion to records whose
	// FilterField equals FilterValue. The comparison is numeric when both
	// sides parse as integers, raw string equality otherwise.
	FilterField string
	FilterValue string

	// MaxPending bounds the number of in-flight records. 0 disables the
	// bound, in which case the tokenizer must emit all fields of a record
	// within a bounded window or memory grows without limit.
	MaxPending int
}

// Assembler accumulates triples into per-index pending records.
// Single-owner, not safe for concurrent use.
type Assembler struct {
	cfg      Config
	required []string
	pending  map[int]map[string]string

	maxDone  int // highest index completed so far, -1 before the first
	reopened int
	filtered int
	dropped  int
}

func New(cfg Config) *Assembler {
	required := []string{cfg.CategoryField, cfg.ValueField}
	if cfg.FilterField != "" {
		required = append(required, cfg.FilterField)
	}
	return &Assembler{
		cfg:      cfg,
		required: required,
		pending:  make(map[int]map[string]string),
		maxDone:  -1,
	}
}

// Ingest folds one triple into the pending state. It returns a completed
// record and true when the triple finished a record that passed the filter
// and parsed cleanly. False means the record is still pending, or was
// discarded (filter mismatch, unparseable value).
//
// A triple whose index already completed starts a fresh record. A well
// formed token stream never repeats an index, so this is counted as an
// anomaly (see Reopened) but does not fail the run.
func (a *Assembler) Ingest(t input.Triple) (Record, bool, error) {
	state, ok := a.pending[t.Index]
	if !ok {
		if t.Index <= a.maxDone {
			a.reopened++
		}
		if a.cfg.MaxPending > 0 && len(a.pending) >= a.cfg.MaxPending {
			return Record{}, false, ErrTooManyPending
		}
		state = make(map[string]string, len(a.required))
		a.pending[t.Index] = state
	}

	// last write wins
	state[t.Field] = t.Value

	for _, f := range a.required {
		if _, ok := state[f]; !ok {
			return Record{}, false, nil
		}
	}

	// complete or discard, either way the slot is gone
	delete(a.pending, t.Index)
	if t.Index > a.maxDone {
		a.maxDone = t.Index
	}

	if a.cfg.FilterField != "" && !fieldEqual(state[a.cfg.FilterField], a.cfg.FilterValue) {
		a.filtered++
		return Record{}, false, nil
	}

	v, err := strconv.ParseInt(state[a.cfg.ValueField], 10, 64)
	if err != nil {
		// expected recovery path: skip just this record
		a.dropped++
		return Record{}, false, nil
	}

	return Record{Category: state[a.cfg.CategoryField], Value: v}, true, nil
}

// fieldEqual compares a field value against the configured target.
// "01" and "1" should match when filtering on a numeric field, so try
// integers first. An unparseable field value simply doesn't match.
func fieldEqual(val, target string) bool {
	vi, errV := strconv.ParseInt(val, 10, 64)
	ti, errT := strconv.ParseInt(target, 10, 64)
	if errV == nil && errT == nil {
		return vi == ti
	}
	return val == target
}

// Pending returns the number of records currently in flight.
func (a *Assembler) Pending() int {
	return len(a.pending)
}

// Reopened returns how many times an already-completed index came back.
func (a *Assembler) Reopened() int {
	return a.reopened
}

// Filtered returns how many completed records the filter rejected.
func (a *Assembler) Filtered() int {
	return a.filtered
}

// Dropped returns how many completed records had an unparseable value.
func (a *Assembler) Dropped() int {
	return a.dropped
}
