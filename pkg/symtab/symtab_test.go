package symtab

import "testing"

const asmFixture = `	.text
	.file	"sample.abcd1234-cgu.0"
	.file	1 "/app" "src/lib.rs"
	.section	.text._ZN6sample3add17h1111111111111111E,"ax",@progbits
	.globl	_ZN6sample3add17h1111111111111111E
	.p2align	4, 0x90
	.type	_ZN6sample3add17h1111111111111111E,@function
_ZN6sample3add17h1111111111111111E:
	.cfi_startproc
	.loc	1 2 5 prologue_end
	lea	eax, [rdi + rsi]
	ret
.Lfunc_end0:
	.size	_ZN6sample3add17h1111111111111111E, .Lfunc_end0-_ZN6sample3add17h1111111111111111E
	.cfi_endproc

	.section	.text._mul,"ax",@progbits
	.globl	_mul
	.type	_mul,@function
_mul:
	mov	eax, edi
	imul	eax, esi
	ret
.Lfunc_end1:
	.size	_mul, .Lfunc_end1-_mul

	.section	.text._ZN6sample4main17h2222222222222222E,"ax",@progbits
	.globl	_ZN6sample4main17h2222222222222222E
	.type	_ZN6sample4main17h2222222222222222E,@function
_ZN6sample4main17h2222222222222222E:
	.cfi_startproc
	call	_ZN6sample3add17h1111111111111111E
	ret
.Lfunc_end2:
	.size	_ZN6sample4main17h2222222222222222E, .Lfunc_end2-_ZN6sample4main17h2222222222222222E
`

const llvmFixture = `; ModuleID = 'sample.abcd1234-cgu.0'
source_filename = "sample.abcd1234-cgu.0"
target triple = "x86_64-unknown-linux-gnu"

define i32 @_RINvC6sample7genericlEB2_(i32 %x) unnamed_addr !dbg !5 {
start:
  ret i32 %x, !dbg !10
}

define i32 @_RINvC6sample7genericmEB2_(i32 %x) unnamed_addr {
start:
  ret i32 %x
}

define internal void @_RNvC6sample4main() unnamed_addr {
start:
  ret void
}

declare void @llvm.dbg.value(metadata, metadata, metadata)
`

const mirFixture = `// MIR for ` + "`main`" + ` after PreCodegen

fn main() -> () {
    let mut _0: ();

    bb0: {
        _0 = const ();
        return;
    }
}

// MIR for ` + "`add`" + ` after PreCodegen

fn add(_1: i32, _2: i32) -> i32 {
    bb0: {
        _0 = Add(move _1, move _2);
        return;
    }
}
`

func TestBuildAsm(t *testing.T) {
	table, err := Build(asmFixture, AsmIntel)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"_ZN6sample3add17h1111111111111111E",
		"_mul",
		"_ZN6sample4main17h2222222222222222E",
	}
	if len(table.Symbols) != len(want) {
		t.Fatalf("got %d symbols, want %d", len(table.Symbols), len(want))
	}
	for i, raw := range want {
		if table.Symbols[i].RawName != raw {
			t.Errorf("symbol %d = %q, want %q", i, table.Symbols[i].RawName, raw)
		}
	}

	// _mul is not mangled Rust, its raw name doubles as display
	if table.Symbols[1].Name != nil {
		t.Error("_mul should not demangle")
	}
	if got := table.Symbols[0].Display(false); got != "sample::add" {
		t.Errorf("Display = %q, want sample::add", got)
	}
	if got := table.Symbols[0].Display(true); got != "sample::add::h1111111111111111" {
		t.Errorf("Display(full) = %q", got)
	}
}

func TestBuildDeterministic(t *testing.T) {
	a, err := Build(asmFixture, AsmIntel)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Build(asmFixture, AsmIntel)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Symbols) != len(b.Symbols) {
		t.Fatal("rebuild changed the symbol count")
	}
	for i := range a.Symbols {
		if a.Symbols[i] != b.Symbols[i] {
			t.Errorf("symbol %d differs between builds", i)
		}
	}
}

func TestBuildLLVM(t *testing.T) {
	table, err := Build(llvmFixture, LLVMIR)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"_RINvC6sample7genericlEB2_",
		"_RINvC6sample7genericmEB2_",
		"_RNvC6sample4main",
	}
	if len(table.Symbols) != len(want) {
		t.Fatalf("got %d symbols, want %d", len(table.Symbols), len(want))
	}
	for i, raw := range want {
		if table.Symbols[i].RawName != raw {
			t.Errorf("symbol %d = %q, want %q", i, table.Symbols[i].RawName, raw)
		}
	}
	// declared-only functions never enter the table
	for _, sym := range table.Symbols {
		if sym.RawName == "llvm.dbg.value" {
			t.Error("declare line produced a symbol")
		}
	}

	if got := table.Symbols[0].Display(false); got != "sample::generic::<i32>" {
		t.Errorf("Display = %q", got)
	}
	if got := table.Symbols[1].Generics(); got != "<u32>" {
		t.Errorf("Generics = %q", got)
	}
}

func TestBuildMIR(t *testing.T) {
	table, err := Build(mirFixture, MIR)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Symbols) != 2 {
		t.Fatalf("got %d symbols, want 2", len(table.Symbols))
	}
	if table.Symbols[0].RawName != "main" || table.Symbols[1].RawName != "add" {
		t.Errorf("unexpected symbols: %q, %q", table.Symbols[0].RawName, table.Symbols[1].RawName)
	}
}

func TestBuildMalformed(t *testing.T) {
	if _, err := Build("ELF\x00\x01\x02binary junk", AsmIntel); err == nil {
		t.Error("binary input should fail")
	} else if _, ok := err.(*MalformedArtifactError); !ok {
		t.Errorf("want MalformedArtifactError, got %T", err)
	}

	if _, err := Build("just some prose\nacross lines\n", LLVMIR); err == nil {
		t.Error("prose should not parse as LLVM IR")
	}
	if _, err := Build("just some prose\nacross lines\n", MIR); err == nil {
		t.Error("prose should not parse as MIR")
	}

	// empty artifacts are valid, just symbol-free
	table, err := Build("", AsmIntel)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Symbols) != 0 {
		t.Error("empty artifact should have no symbols")
	}
}

func TestLabelKindOf(t *testing.T) {
	tcs := map[string]LabelKind{
		"_ZN6sample3add17h1111111111111111E": LabelGlobal,
		"_RNvC6sample4main":                  LabelGlobal,
		".Lfunc_end0":                        LabelLocal,
		".LBB0_2":                            LabelLocal,
		"LBB0_2":                             LabelLocal,
		"Ltmp12":                             LabelTemp,
		"Lloh4":                              LabelLocal,
		"_mul":                               LabelUnknown,
		"anon.bss.0":                         LabelUnknown,
	}
	for in, want := range tcs {
		if got := LabelKindOf(in); got != want {
			t.Errorf("LabelKindOf(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSplitPath(t *testing.T) {
	tcs := map[string]int{
		"sample::main":                            2,
		"<sample::Foo as core::fmt::Debug>::fmt":  2,
		"core::ptr::drop_in_place::<sample::Foo>": 4,
		"main":                                    1,
	}
	for in, want := range tcs {
		if got := SplitPath(in); len(got) != want {
			t.Errorf("SplitPath(%q) = %v (%d segments), want %d", in, got, len(got), want)
		}
	}
}
