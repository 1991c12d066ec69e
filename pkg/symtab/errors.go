package symtab

import (
	"fmt"
	"strings"
)

// MalformedArtifactError means the artifact text does not parse as the
// declared kind. No partial table is ever returned alongside it.
type MalformedArtifactError struct {
	Kind   Kind
	Reason string
}

func (e *MalformedArtifactError) Error() string {
	return fmt.Sprintf("malformed %s artifact: %s", e.Kind, e.Reason)
}

// Candidate is one symbol in a NoMatch/AmbiguousMatch listing. Index is the
// candidate's position within the listing that produced it: in ambiguous
// listings it is the match-rank position usable as a `#N` disambiguator,
// while nearest-name shortlists carry the definition-order index and are
// rendered without it.
type Candidate struct {
	Index   int
	Display string
	Raw     string
}

func formatCandidates(cands []Candidate) string {
	var b strings.Builder
	for _, c := range cands {
		fmt.Fprintf(&b, "\n\t[%d] %s", c.Index, c.Display)
	}
	return b.String()
}

// NoMatchError is returned when a selector matches zero symbols. Nearest
// carries a best-effort shortlist to help the user correct the selector.
type NoMatchError struct {
	Selector string
	Nearest  []Candidate
}

func (e *NoMatchError) Error() string {
	msg := fmt.Sprintf("no symbol matches %q", e.Selector)
	if len(e.Nearest) > 0 {
		// suggestions only, not selectable by index
		var b strings.Builder
		for _, c := range e.Nearest {
			fmt.Fprintf(&b, "\n\t%s", c.Display)
		}
		msg += ", did you mean:" + b.String()
	}
	return msg
}

// AmbiguousMatchError is returned when a selector matches more than one
// symbol and no disambiguation index was supplied.
type AmbiguousMatchError struct {
	Selector   string
	Candidates []Candidate
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%q matches %d symbols, add an index to disambiguate:%s",
		e.Selector, len(e.Candidates), formatCandidates(e.Candidates))
}
