// Package input defines the token stream contract between the external
// trace tokenizer and the aggregation core.
//
// The tokenizer flattens the trace's structLogs array into triples of
// (step index, field name, raw value), one TSV line each. It emits fields
// in step order, but the fields of a single step are not guaranteed to be
// adjacent, which is why the assemble package exists.
package input

import (
	"fmt"
	"strconv"
	"strings"
)

// Triple is the atomic unit of streamed input. Immutable once produced.
type Triple struct {
	Index int    // which structLogs entry the field belongs to
	Field string // eg "op", "gasCost", "depth"
	Value string // raw value, not yet parsed
}

// Source produces a lazy, finite sequence of triples.
// Next returns io.EOF on clean end of stream. Any other error is fatal:
// in particular a *ProcessError when the external tokenizer failed after
// producing some triples. A source must not be read after an error.
type Source interface {
	Next() (Triple, error)
}

// ProcessError reports that the tokenizer process terminated with a
// failure status. Triples read before the failure must not be trusted.
type ProcessError struct {
	Code   int
	Stderr string
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("tokenizer exited with code %d", e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// ParseLine decodes one TSV line emitted by the tokenizer.
// Values may contain tabs, so only the first two tabs delimit.
// A line that doesn't yield all three parts violates the tokenizer
// contract and fails the whole run.
func ParseLine(line string) (Triple, error) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) != 3 {
		return Triple{}, fmt.Errorf("malformed token line %q", line)
	}
	idx, err := strconv.Atoi(parts[0])
	if err != nil {
		return Triple{}, fmt.Errorf("malformed token index %q: %s", parts[0], err)
	}
	return Triple{Index: idx, Field: parts[1], Value: parts[2]}, nil
}
