package view

import (
	"strings"
	"testing"

	"github.com/blacktop/casm/pkg/symtab"
)

const asmFixture = `	.text
	.section	.text._ZN6sample3add17h1111111111111111E,"ax",@progbits
	.globl	_ZN6sample3add17h1111111111111111E
	.type	_ZN6sample3add17h1111111111111111E,@function
_ZN6sample3add17h1111111111111111E:
	.cfi_startproc
	lea	eax, [rdi + rsi]
	ret
.Lfunc_end0:
	.size	_ZN6sample3add17h1111111111111111E, .Lfunc_end0-_ZN6sample3add17h1111111111111111E

	.section	.text._ZN6sample4main17h2222222222222222E,"ax",@progbits
	.globl	_ZN6sample4main17h2222222222222222E
	.type	_ZN6sample4main17h2222222222222222E,@function
_ZN6sample4main17h2222222222222222E:
	call	_ZN6sample3add17h1111111111111111E
	ret
.Lfunc_end1:
	.size	_ZN6sample4main17h2222222222222222E, .Lfunc_end1-_ZN6sample4main17h2222222222222222E
`

func TestRun(t *testing.T) {
	var b strings.Builder
	err := Run(&b, asmFixture, symtab.AsmIntel, &Config{Selector: "add", Index: -1})
	if err != nil {
		t.Fatal(err)
	}
	out := b.String()
	if !strings.Contains(out, "lea\teax") {
		t.Errorf("missing function body:\n%s", out)
	}
	if strings.Contains(out, "call") {
		t.Errorf("output leaked another function:\n%s", out)
	}
}

func TestRunSimplify(t *testing.T) {
	var b strings.Builder
	err := Run(&b, asmFixture, symtab.AsmIntel, &Config{Selector: "add", Index: -1, Simplify: true})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(b.String(), ".cfi_startproc") {
		t.Errorf("simplify left metadata:\n%s", b.String())
	}
}

func TestRunNoMatch(t *testing.T) {
	var b strings.Builder
	err := Run(&b, asmFixture, symtab.AsmIntel, &Config{Selector: "subtract", Index: -1})
	if err == nil {
		t.Fatal("expected no-match error")
	}
	if _, ok := err.(*symtab.NoMatchError); !ok {
		t.Errorf("want NoMatchError, got %T", err)
	}
}

func TestRunNoSelectorLists(t *testing.T) {
	var b strings.Builder
	err := Run(&b, asmFixture, symtab.AsmIntel, &Config{Index: -1})
	if err == nil {
		t.Fatal("expected an error listing the candidates")
	}
	if !strings.Contains(err.Error(), "sample::add") || !strings.Contains(err.Error(), "sample::main") {
		t.Errorf("candidate listing incomplete: %v", err)
	}
}

func TestList(t *testing.T) {
	var b strings.Builder
	if err := List(&b, asmFixture, symtab.AsmIntel, &Config{}, false); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %v", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "sample::add [") || !strings.HasPrefix(lines[1], "sample::main [") {
		t.Errorf("unexpected listing: %v", lines)
	}
	if !strings.HasSuffix(lines[0], "lines]") {
		t.Errorf("missing length hint: %q", lines[0])
	}
}

func TestListSorted(t *testing.T) {
	var b strings.Builder
	if err := List(&b, asmFixture, symtab.AsmIntel, &Config{FullName: true}, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "h1111111111111111") {
		t.Error("full names should keep the hash")
	}
}
