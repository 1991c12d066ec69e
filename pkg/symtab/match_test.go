package symtab

import (
	"errors"
	"strings"
	"testing"
)

func buildAsm(t *testing.T) *Table {
	t.Helper()
	table, err := Build(asmFixture, AsmIntel)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func buildLLVM(t *testing.T) *Table {
	t.Helper()
	table, err := Build(llvmFixture, LLVMIR)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func TestParseSelector(t *testing.T) {
	sel := ParseSelector("sample::generic::<i32>", -1)
	if len(sel.Segments) != 2 || sel.Segments[0] != "sample" || sel.Segments[1] != "generic" {
		t.Errorf("unexpected segments: %v", sel.Segments)
	}
	if sel.Generics != "<i32>" {
		t.Errorf("Generics = %q", sel.Generics)
	}

	sel = ParseSelector("main()", -1)
	if len(sel.Segments) != 1 || sel.Segments[0] != "main" {
		t.Errorf("call-style selector not trimmed: %v", sel.Segments)
	}

	sel = ParseSelector("generic#1", -1)
	if sel.Index != 1 || sel.Segments[0] != "generic" {
		t.Errorf("trailing #N not parsed: %+v", sel)
	}

	// an explicit index wins over the inline one
	sel = ParseSelector("generic#1", 0)
	if sel.Index != 0 {
		t.Errorf("explicit index should win, got %d", sel.Index)
	}

	// dotted spelling (shell-friendly) splits like ::
	sel = ParseSelector("sample.add", -1)
	if len(sel.Segments) != 2 || sel.Segments[1] != "add" {
		t.Errorf("dotted selector: %v", sel.Segments)
	}
}

func TestMatchExact(t *testing.T) {
	table := buildAsm(t)

	sym, err := table.Find(ParseSelector("sample::add", -1), false)
	if err != nil {
		t.Fatal(err)
	}
	if sym.Display(false) != "sample::add" {
		t.Errorf("got %q", sym.Display(false))
	}
}

func TestMatchSubstringFallback(t *testing.T) {
	table := buildAsm(t)

	// a bare trailing segment finds the function without its crate prefix
	sym, err := table.Find(ParseSelector("main", -1), false)
	if err != nil {
		t.Fatal(err)
	}
	if sym.Display(false) != "sample::main" {
		t.Errorf("got %q", sym.Display(false))
	}

	// fragments match within a segment
	sym, err = table.Find(ParseSelector("mai", -1), false)
	if err != nil {
		t.Fatal(err)
	}
	if sym.Display(false) != "sample::main" {
		t.Errorf("fragment: got %q", sym.Display(false))
	}
}

func TestMatchRawNameBypass(t *testing.T) {
	table := buildAsm(t)

	sym, err := table.Find(ParseSelector("_ZN6sample3add17h1111111111111111E", -1), false)
	if err != nil {
		t.Fatal(err)
	}
	if sym.Display(false) != "sample::add" {
		t.Errorf("got %q", sym.Display(false))
	}

	// unmangled globals resolve the same way
	sym, err = table.Find(ParseSelector("_mul", -1), false)
	if err != nil {
		t.Fatal(err)
	}
	if sym.RawName != "_mul" {
		t.Errorf("got %q", sym.RawName)
	}
}

func TestMatchNoMatch(t *testing.T) {
	table := buildAsm(t)

	_, err := table.Find(ParseSelector("subtract", -1), false)
	var nm *NoMatchError
	if !errors.As(err, &nm) {
		t.Fatalf("want NoMatchError, got %v", err)
	}
	if len(nm.Nearest) == 0 {
		t.Error("expected nearest-name suggestions")
	}
	// the shortlist is advisory, unlike the ambiguous listing its entries
	// cannot be selected with #N, so no index is shown
	if msg := nm.Error(); strings.Contains(msg, "[0]") {
		t.Errorf("suggestion shortlist should not render indexes: %q", msg)
	} else if !strings.Contains(msg, nm.Nearest[0].Display) {
		t.Errorf("suggestion shortlist missing candidate name: %q", msg)
	}
}

func TestMatchAmbiguous(t *testing.T) {
	table := buildLLVM(t)

	_, err := table.Find(ParseSelector("generic", -1), false)
	var am *AmbiguousMatchError
	if !errors.As(err, &am) {
		t.Fatalf("want AmbiguousMatchError, got %v", err)
	}
	if len(am.Candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(am.Candidates))
	}
	// candidates listed in definition order
	if am.Candidates[0].Raw != "_RINvC6sample7genericlEB2_" {
		t.Errorf("candidate order: %q first", am.Candidates[0].Raw)
	}
}

func TestMatchIndexDisambiguation(t *testing.T) {
	table := buildLLVM(t)

	sym, err := table.Find(ParseSelector("generic", 1), false)
	if err != nil {
		t.Fatal(err)
	}
	if sym.RawName != "_RINvC6sample7genericmEB2_" {
		t.Errorf("index 1 picked %q", sym.RawName)
	}

	sym, err = table.Find(ParseSelector("generic#0", -1), false)
	if err != nil {
		t.Fatal(err)
	}
	if sym.RawName != "_RINvC6sample7genericlEB2_" {
		t.Errorf("inline #0 picked %q", sym.RawName)
	}

	// out of range
	if _, err := table.Find(ParseSelector("generic", 7), false); err == nil {
		t.Error("out-of-range index should not match")
	}
}

func TestMatchGenericsFilter(t *testing.T) {
	table := buildLLVM(t)

	sym, err := table.Find(ParseSelector("generic::<u32>", -1), false)
	if err != nil {
		t.Fatal(err)
	}
	if sym.RawName != "_RINvC6sample7genericmEB2_" {
		t.Errorf("generics filter picked %q", sym.RawName)
	}
}

func TestMatchWildcardSegment(t *testing.T) {
	table := buildAsm(t)

	sym, err := table.Find(ParseSelector("*::add", -1), false)
	if err != nil {
		t.Fatal(err)
	}
	if sym.Display(false) != "sample::add" {
		t.Errorf("wildcard picked %q", sym.Display(false))
	}
}

func TestCandidates(t *testing.T) {
	table := buildAsm(t)

	cands := table.Candidates(false)
	if len(cands) != 3 {
		t.Fatalf("got %d candidates", len(cands))
	}
	for i, c := range cands {
		if c.Index != i {
			t.Errorf("candidate %d has index %d", i, c.Index)
		}
	}
}
