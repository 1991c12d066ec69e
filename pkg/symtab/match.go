package symtab

import (
	"sort"
	"strconv"
	"strings"
)

// Selector is a parsed user pattern naming the target function.
type Selector struct {
	// Verbatim is the selector exactly as supplied, compared against raw
	// linker names before any path matching happens.
	Verbatim string
	// Segments are the `::` (or dotted) path segment filters; "*" is a
	// wildcard segment.
	Segments []string
	// Generics narrows to one instantiation when non-empty ("<i32>").
	Generics string
	// Index picks the Nth match (0-based, definition order); -1 when unset.
	Index int
}

// ParseSelector splits a selector string into segment filters. A trailing
// `#N` sets the disambiguation index; an explicit index argument (>= 0)
// takes precedence over it.
func ParseSelector(s string, index int) Selector {
	sel := Selector{Verbatim: s, Index: index}
	s = strings.TrimSpace(s)

	if hash := strings.LastIndexByte(s, '#'); hash >= 0 && !strings.ContainsAny(s[hash:], "<>") {
		if n, err := strconv.Atoi(s[hash+1:]); err == nil && n >= 0 {
			if sel.Index < 0 {
				sel.Index = n
			}
			s = s[:hash]
		}
	}

	// tolerate a call-style spelling like "main()"
	s = strings.TrimSuffix(s, "()")

	// split off a trailing instantiation filter: foo::bar::<i32> or foo<i32>
	if strings.HasSuffix(s, ">") {
		if lt := strings.Index(s, "<"); lt > 0 {
			sel.Generics = normalizeGenerics(s[lt:])
			s = strings.TrimSuffix(s[:lt], "::")
		}
	}

	if !strings.Contains(s, "::") && strings.Contains(s, ".") && !strings.HasPrefix(s, ".") {
		sel.Segments = strings.Split(s, ".")
		return sel
	}
	sel.Segments = SplitPath(s)
	return sel
}

func normalizeGenerics(g string) string {
	return strings.Join(strings.Fields(g), " ")
}

// Match compares the selector against every symbol and returns the matching
// definition-order indices at the best rank: a verbatim raw-name hit beats
// exact path matching, which beats the substring fallback. The fallback is
// only consulted when no exact match exists. An out-of-range disambiguation
// index yields no matches.
func (t *Table) Match(sel Selector) []int {
	// raw-name bypass: lets a user paste a mangled name directly
	if sel.Verbatim != "" {
		for i := range t.Symbols {
			if t.Symbols[i].RawName == sel.Verbatim {
				return []int{i}
			}
		}
	}

	matches := t.matchRank(sel, false)
	if len(matches) == 0 {
		matches = t.matchRank(sel, true)
	}

	if sel.Index >= 0 {
		if sel.Index < len(matches) {
			return matches[sel.Index : sel.Index+1]
		}
		return nil
	}
	return matches
}

func (t *Table) matchRank(sel Selector, substring bool) []int {
	if len(sel.Segments) == 0 {
		return nil
	}
	var out []int
	for i := range t.Symbols {
		if t.symbolMatches(&t.Symbols[i], sel, substring) {
			out = append(out, i)
		}
	}
	return out
}

func (t *Table) symbolMatches(sym *Symbol, sel Selector, substring bool) bool {
	path := sym.Path()
	if substring {
		// right-anchored: a bare trailing path (or fragment) selects the
		// function regardless of its crate/module prefix
		if len(sel.Segments) > len(path) {
			return false
		}
		tail := path[len(path)-len(sel.Segments):]
		for i, f := range sel.Segments {
			if f == "*" {
				continue
			}
			if f == "" || !strings.Contains(tail[i], f) {
				return false
			}
		}
	} else {
		if len(sel.Segments) != len(path) {
			return false
		}
		for i, f := range sel.Segments {
			if f == "*" {
				continue
			}
			if f != path[i] {
				return false
			}
		}
	}
	if sel.Generics != "" && normalizeGenerics(sym.Generics()) != sel.Generics {
		return false
	}
	return true
}

// Find resolves the selector to exactly one symbol or returns a NoMatchError
// or AmbiguousMatchError carrying the candidate listing.
func (t *Table) Find(sel Selector, fullNames bool) (*Symbol, error) {
	matches := t.Match(sel)
	switch len(matches) {
	case 0:
		return nil, &NoMatchError{Selector: sel.Verbatim, Nearest: t.Nearest(sel, 5, fullNames)}
	case 1:
		return &t.Symbols[matches[0]], nil
	}
	cands := make([]Candidate, len(matches))
	for i, m := range matches {
		cands[i] = Candidate{Index: i, Display: t.Symbols[m].Display(true), Raw: t.Symbols[m].RawName}
	}
	return nil, &AmbiguousMatchError{Selector: sel.Verbatim, Candidates: cands}
}

// Candidates lists every symbol in definition order, for the no-selector
// error path and the `list` command.
func (t *Table) Candidates(full bool) []Candidate {
	cands := make([]Candidate, len(t.Symbols))
	for i := range t.Symbols {
		cands[i] = Candidate{Index: i, Display: t.Symbols[i].Display(full), Raw: t.Symbols[i].RawName}
	}
	return cands
}

// Nearest scores every symbol against the selector by longest common
// substring and returns the top n, ties broken by definition order.
func (t *Table) Nearest(sel Selector, n int, full bool) []Candidate {
	want := strings.ToLower(strings.Join(sel.Segments, "::"))
	if want == "" {
		want = strings.ToLower(sel.Verbatim)
	}
	type scored struct {
		idx   int
		score int
	}
	var all []scored
	for i := range t.Symbols {
		have := strings.ToLower(t.Symbols[i].Display(false))
		all = append(all, scored{idx: i, score: commonSubstring(want, have)})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })
	if len(all) > n {
		all = all[:n]
	}
	var out []Candidate
	for _, s := range all {
		if s.score == 0 {
			continue
		}
		out = append(out, Candidate{Index: s.idx, Display: t.Symbols[s.idx].Display(full), Raw: t.Symbols[s.idx].RawName})
	}
	return out
}

// commonSubstring returns the length of the longest common substring.
// Selector and symbol strings are short, quadratic is fine.
func commonSubstring(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	best := 0
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > best {
					best = cur[j]
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return best
}
