package input

import "io"

// Static is an in-memory Source for tests and offline replays.
// It yields its triples in order, then Err (io.EOF when nil), so a
// failing tokenizer can be simulated by setting Err to a *ProcessError.
type Static struct {
	Triples []Triple
	Err     error

	pos int
}

func NewStatic(triples ...Triple) *Static {
	return &Static{Triples: triples}
}

func (s *Static) Next() (Triple, error) {
	if s.pos >= len(s.Triples) {
		if s.Err != nil {
			return Triple{}, s.Err
		}
		return Triple{}, io.EOF
	}
	t := s.Triples[s.pos]
	s.pos++
	return t, nil
}
