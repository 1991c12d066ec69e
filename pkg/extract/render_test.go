package extract

import (
	"strings"
	"testing"

	"github.com/blacktop/casm/pkg/symtab"
)

func TestClassifyAsm(t *testing.T) {
	body := "_ZN6sample3add17h1111111111111111E:\n\t.cfi_startproc\n\tlea\teax, [rdi + rsi]\n# a comment\n\n\tret\n"
	lines := Classify(body, symtab.AsmIntel)

	want := []Class{ClassLabel, ClassDirective, ClassInstruction, ClassComment, ClassBlank, ClassInstruction}
	got := classOf(lines)
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d (%q) = %v, want %v", i, lines[i].Text, got[i], want[i])
		}
	}
}

func TestClassifyLLVM(t *testing.T) {
	body := "define i32 @add(i32 %a) {\nstart:                  ; preds\n  %s = add i32 %a, 1\n; comment\n}\n"
	lines := Classify(body, symtab.LLVMIR)

	want := []Class{ClassLabel, ClassLabel, ClassInstruction, ClassComment, ClassLabel}
	got := classOf(lines)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d (%q) = %v, want %v", i, lines[i].Text, got[i], want[i])
		}
	}
}

func TestClassifyMIR(t *testing.T) {
	body := "fn main() -> () {\n    let mut _0: ();\n    // comment\n}\n"
	lines := Classify(body, symtab.MIR)

	want := []Class{ClassLabel, ClassInstruction, ClassComment, ClassLabel}
	got := classOf(lines)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d (%q) = %v, want %v", i, lines[i].Text, got[i], want[i])
		}
	}
}

func TestRenderUncoloredIsVerbatim(t *testing.T) {
	body := "_ZN6sample3add17h1111111111111111E:\n\t.cfi_startproc\n\tlea\teax, [rdi + rsi]\n\tret\n"
	lines := Classify(body, symtab.AsmIntel)

	var b strings.Builder
	if err := Render(&b, lines, false); err != nil {
		t.Fatal(err)
	}
	if b.String() != body {
		t.Errorf("renderer altered content:\n%q\nvs\n%q", body, b.String())
	}
}

func TestRenderColoredKeepsContent(t *testing.T) {
	body := "add:\n\tlea\teax, [rdi + 16]\n\tjmp\t.LBB0_2\n"
	lines := Classify(body, symtab.AsmIntel)

	var b strings.Builder
	if err := Render(&b, lines, true); err != nil {
		t.Fatal(err)
	}
	// stripping the escapes must give back the exact input
	stripped := stripANSI(b.String())
	if stripped != body {
		t.Errorf("colorization altered content:\n%q\nvs\n%q", body, stripped)
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && s[j] != 'm' {
				j++
			}
			i = j
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func TestSimplify(t *testing.T) {
	body := "add:\n\t.cfi_startproc\n\t.loc\t1 2 5\n\tlea\teax, [rdi + rsi]\n\t.size\tadd, 8\n\tret\n"
	lines := Simplify(Classify(body, symtab.AsmIntel))

	var texts []string
	for _, ln := range lines {
		texts = append(texts, ln.Text)
	}
	joined := strings.Join(texts, "\n")
	for _, gone := range []string{".cfi_startproc", ".loc", ".size"} {
		if strings.Contains(joined, gone) {
			t.Errorf("simplify kept %q:\n%s", gone, joined)
		}
	}
	for _, kept := range []string{"add:", "lea", "ret"} {
		if !strings.Contains(joined, kept) {
			t.Errorf("simplify dropped %q:\n%s", kept, joined)
		}
	}
}

func TestHighlight(t *testing.T) {
	body := "add:\n\tret\n"
	lines := Classify(body, symtab.AsmIntel)

	var b strings.Builder
	if err := Highlight(&b, lines, symtab.AsmIntel, "nord"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "ret") {
		t.Error("highlighted output lost content")
	}
}
