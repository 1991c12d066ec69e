// Package symtab enumerates the defined function-like symbols of a compiled
// rustc artifact (assembly, LLVM-IR or MIR text) and matches user selectors
// against their demangled paths.
package symtab

import (
	"regexp"
	"strings"

	"github.com/blacktop/casm/pkg/demangle"
)

// Kind is the artifact flavor being inspected. The set is closed; every
// format-specific behavior in this module and in pkg/extract dispatches on it.
type Kind int

const (
	AsmIntel Kind = iota
	AsmATT
	LLVMIR
	LLVMBitcode // .bc disassembled to textual IR
	MIR
)

func (k Kind) String() string {
	switch k {
	case AsmIntel:
		return "asm-intel"
	case AsmATT:
		return "asm-att"
	case LLVMIR:
		return "llvm-ir"
	case LLVMBitcode:
		return "llvm-bc"
	case MIR:
		return "mir"
	default:
		return "unknown"
	}
}

// IsAsm reports whether the kind is native assembly (either syntax).
func (k Kind) IsAsm() bool { return k == AsmIntel || k == AsmATT }

// IsLLVM reports whether the kind is textual LLVM IR (emitted directly or
// recovered from bitcode).
func (k Kind) IsLLVM() bool { return k == LLVMIR || k == LLVMBitcode }

// Symbol is one defined function-like symbol of an artifact.
type Symbol struct {
	// RawName is the linker-level identifier (unique per artifact). For MIR
	// the header name is already readable and doubles as the raw name.
	RawName string
	// Name is the demangled form, nil when RawName is not mangled Rust.
	Name *demangle.Demangled
	// Line and Offset locate the definition header within the artifact text.
	Line   int
	Offset int
}

// Path returns the comparable `::` segment sequence for selector matching.
func (s *Symbol) Path() []string {
	if s.Name != nil {
		return s.Name.Segments
	}
	return SplitPath(s.RawName)
}

// Generics returns the instantiation parameters, "" when not a generic
// instantiation (or not recoverable, as with legacy-mangled names).
func (s *Symbol) Generics() string {
	if s.Name != nil {
		return s.Name.Generics
	}
	return ""
}

// Display renders the symbol for listings. full keeps the legacy hash, the
// only distinguishing mark between legacy instantiations of one generic.
func (s *Symbol) Display(full bool) string {
	if s.Name != nil {
		return s.Name.Display(full)
	}
	return s.RawName
}

// Table is the ordered, immutable symbol directory of one artifact.
type Table struct {
	Kind    Kind
	Text    string
	Symbols []Symbol
}

// Build scans artifact text for function definition headers and returns the
// symbols in definition order. A text that does not parse as the declared
// kind yields a MalformedArtifactError, never a partial table.
func Build(text string, kind Kind) (*Table, error) {
	if strings.IndexByte(text, 0) >= 0 {
		return nil, &MalformedArtifactError{Kind: kind, Reason: "binary data where text was expected"}
	}
	t := &Table{Kind: kind, Text: text}
	var err error
	switch {
	case kind.IsAsm():
		err = t.scanAsm()
	case kind.IsLLVM():
		err = t.scanLLVM()
	case kind == MIR:
		err = t.scanMIR()
	default:
		err = &MalformedArtifactError{Kind: kind, Reason: "unsupported artifact kind"}
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// LabelKind classifies an assembly label the way rustc emits them.
type LabelKind int

const (
	LabelGlobal LabelKind = iota
	LabelLocal
	LabelTemp
	LabelUnknown
)

// LabelKindOf reports what sort of label an identifier is. Global labels are
// mangled Rust (or MSVC dtor thunk) names; `.L*`/`LBB*` are local jump
// targets and `Ltmp*` are assembler temporaries.
func LabelKindOf(id string) LabelKind {
	switch {
	case strings.HasPrefix(id, "Ltmp"):
		return LabelTemp
	case strings.HasPrefix(id, ".L"), strings.HasPrefix(id, "LBB"),
		strings.HasPrefix(id, "Lloh"), strings.HasPrefix(id, "Lfunc_"):
		return LabelLocal
	}
	trimmed := strings.TrimLeft(id, "_")
	if strings.HasPrefix(trimmed, "ZN") || strings.HasPrefix(trimmed, "R") && len(trimmed) > 1 && trimmed[1] != '_' {
		if _, ok := demangle.Parse(id); ok {
			return LabelGlobal
		}
	}
	if strings.HasPrefix(id, "?") { // MSVC decorated names (dtor thunks etc)
		return LabelGlobal
	}
	return LabelUnknown
}

var (
	asmLabelRe       = regexp.MustCompile(`^([A-Za-z_.$][A-Za-z0-9_.$@]*):`)
	asmQuotedLabelRe = regexp.MustCompile(`^"([^"]+)":`)
	asmGloblRe       = regexp.MustCompile(`^\s*\.glob(?:a)?l\s+"?([^"\s]+)"?`)
	asmTypeFuncRe    = regexp.MustCompile(`^\s*\.type\s+"?([^",\s]+)"?\s*,\s*[@%]function`)
	llvmDefineRe     = regexp.MustCompile(`^define\b`)
	mirHeaderRe      = regexp.MustCompile(`^(?:pub\s+)?(?:unsafe\s+)?(?:const\s+)?fn\s`)
)

func (t *Table) scanAsm() error {
	globl := make(map[string]bool)
	typeFunc := make(map[string]bool)
	seen := make(map[string]bool)
	sawDirective := false

	forEachLine(t.Text, func(line string, idx, off int) {
		if m := asmGloblRe.FindStringSubmatch(line); m != nil {
			globl[m[1]] = true
			sawDirective = true
			return
		}
		if m := asmTypeFuncRe.FindStringSubmatch(line); m != nil {
			typeFunc[m[1]] = true
			sawDirective = true
			return
		}
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), ".") {
			sawDirective = true
		}
		var name string
		if m := asmQuotedLabelRe.FindStringSubmatch(line); m != nil {
			name = m[1]
		} else if m := asmLabelRe.FindStringSubmatch(line); m != nil {
			name = m[1]
		} else {
			return
		}
		if seen[name] {
			return
		}
		// a label defines a function if the assembler metadata says so, or
		// if it is a global (mangled) name exported without annotations
		if !typeFunc[name] && !globl[name] && LabelKindOf(name) != LabelGlobal {
			return
		}
		seen[name] = true
		sym := Symbol{RawName: name, Line: idx, Offset: off}
		if d, ok := demangle.Parse(name); ok {
			sym.Name = d
		}
		t.Symbols = append(t.Symbols, sym)
	})

	if !sawDirective && len(t.Symbols) == 0 && strings.TrimSpace(t.Text) != "" {
		return &MalformedArtifactError{Kind: t.Kind, Reason: "no assembler directives or labels found"}
	}
	return nil
}

func (t *Table) scanLLVM() error {
	sawIR := false
	forEachLine(t.Text, func(line string, idx, off int) {
		switch {
		case strings.HasPrefix(line, "; ModuleID"),
			strings.HasPrefix(line, "target datalayout"),
			strings.HasPrefix(line, "target triple"),
			strings.HasPrefix(line, "declare"):
			sawIR = true
			return
		}
		if !llvmDefineRe.MatchString(line) {
			return
		}
		sawIR = true
		name, ok := llvmDefineName(line)
		if !ok {
			return
		}
		sym := Symbol{RawName: name, Line: idx, Offset: off}
		if d, ok := demangle.Parse(name); ok {
			sym.Name = d
		}
		t.Symbols = append(t.Symbols, sym)
	})
	if !sawIR && strings.TrimSpace(t.Text) != "" {
		return &MalformedArtifactError{Kind: t.Kind, Reason: "no LLVM IR constructs found"}
	}
	return nil
}

// llvmDefineName pulls the global name out of a `define … @name(…)` header.
func llvmDefineName(line string) (string, bool) {
	at := strings.IndexByte(line, '@')
	if at < 0 {
		return "", false
	}
	rest := line[at+1:]
	if strings.HasPrefix(rest, `"`) {
		if end := strings.IndexByte(rest[1:], '"'); end >= 0 {
			return rest[1 : 1+end], true
		}
		return "", false
	}
	end := strings.IndexFunc(rest, func(r rune) bool {
		return !(r == '$' || r == '.' || r == '_' || r == '-' ||
			r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	if end <= 0 {
		return "", false
	}
	return rest[:end], true
}

func (t *Table) scanMIR() error {
	sawMIR := strings.Contains(t.Text, "// MIR for")
	forEachLine(t.Text, func(line string, idx, off int) {
		if !mirHeaderRe.MatchString(line) {
			return
		}
		name, ok := mirHeaderName(line)
		if !ok {
			return
		}
		sawMIR = true
		t.Symbols = append(t.Symbols, Symbol{RawName: name, Line: idx, Offset: off})
	})
	if !sawMIR && strings.TrimSpace(t.Text) != "" {
		return &MalformedArtifactError{Kind: t.Kind, Reason: "no MIR function headers found"}
	}
	return nil
}

// mirHeaderName extracts the function path from a MIR header line, ending at
// the first '(' outside angle brackets (impl headers embed `<… as …>`).
func mirHeaderName(line string) (string, bool) {
	i := strings.Index(line, "fn ")
	if i < 0 {
		return "", false
	}
	rest := line[i+3:]
	depth := 0
	for j := 0; j < len(rest); j++ {
		switch rest[j] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case '(':
			if depth == 0 {
				name := strings.TrimSpace(rest[:j])
				return name, name != ""
			}
		}
	}
	return "", false
}

// ParseLabel reports the identifier of an assembly label line ("foo:" or
// `"foo::bar":`).
func ParseLabel(line string) (string, bool) {
	if m := asmQuotedLabelRe.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	if m := asmLabelRe.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	return "", false
}

// IsMIRHeader reports whether the line opens a MIR function block.
func IsMIRHeader(line string) bool {
	if !mirHeaderRe.MatchString(line) {
		return false
	}
	_, ok := mirHeaderName(line)
	return ok
}

// SplitPath splits a readable path on top-level `::`, leaving bracketed
// segments like `<T as Trait>` intact.
func SplitPath(s string) []string {
	var segs []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 && i+1 < len(s) && s[i+1] == ':' && i > start {
				segs = append(segs, s[start:i])
				start = i + 2
				i++
			}
		}
	}
	if start <= len(s) {
		segs = append(segs, s[start:])
	}
	return segs
}

// forEachLine walks text line by line, reporting each line's index and byte
// offset. Lines are passed without their trailing newline.
func forEachLine(text string, fn func(line string, idx, off int)) {
	off := 0
	idx := 0
	for off <= len(text) {
		end := strings.IndexByte(text[off:], '\n')
		if end < 0 {
			if off < len(text) {
				fn(text[off:], idx, off)
			}
			return
		}
		fn(text[off:off+end], idx, off)
		off += end + 1
		idx++
	}
}
