// Package demangle recovers human-readable Rust paths from mangled linker
// symbols. Both mangling generations are supported: the legacy hashed scheme
// (`_ZN…E`) and the v0 scheme (`_R…`). Unrecognized names are returned
// unchanged so a stray symbol never fails the pipeline.
package demangle

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Kind classifies what a demangled path refers to.
type Kind int

const (
	Function Kind = iota
	Closure
	Shim
	Unknown
)

func (k Kind) String() string {
	switch k {
	case Function:
		return "function"
	case Closure:
		return "closure"
	case Shim:
		return "shim"
	default:
		return "unknown"
	}
}

// Demangled is a structured Rust path recovered from a mangled symbol.
type Demangled struct {
	// Segments are the `::` separated path segments, e.g. ["sample", "generic"].
	// Trait impl segments keep their brackets: "<T as core::fmt::Display>".
	Segments []string
	// Generics holds the instantiation parameters ("<i32>") when the symbol
	// is a generic instantiation (v0 scheme only), otherwise "".
	Generics string
	// Hash is the legacy scheme's trailing disambiguation hash
	// ("h90585feb19c01afd"), otherwise "".
	Hash string
	Kind Kind
}

// Display renders the path the way rustc prints it. With full set the legacy
// hash segment is kept, which is the only way to tell two legacy
// instantiations of the same generic apart.
func (d *Demangled) Display(full bool) string {
	var b strings.Builder
	for i, seg := range d.Segments {
		if i > 0 {
			b.WriteString("::")
		}
		b.WriteString(seg)
	}
	if d.Generics != "" {
		b.WriteString("::")
		b.WriteString(d.Generics)
	}
	if full && d.Hash != "" {
		b.WriteString("::")
		b.WriteString(d.Hash)
	}
	return b.String()
}

// Base returns the path without instantiation parameters or hash, used for
// selector matching where a bare path should match every instantiation.
func (d *Demangled) Base() string {
	return strings.Join(d.Segments, "::")
}

func (d *Demangled) classify() {
	for _, seg := range d.Segments {
		if strings.HasPrefix(seg, "{closure") || seg == "{{closure}}" {
			d.Kind = Closure
			return
		}
		if strings.HasPrefix(seg, "{shim") || strings.HasPrefix(seg, "{vtable.shim}") {
			d.Kind = Shim
			return
		}
	}
	d.Kind = Function
}

// Symbols repeat across the table build, the matcher and the candidate
// listings, so results are memoized per raw name. Artifacts are immutable
// within a run; no invalidation needed.
var cache, _ = lru.New[string, *Demangled](4096)

// Parse demangles a raw linker symbol. The second return is false when the
// name does not follow either known mangling scheme.
func Parse(raw string) (*Demangled, bool) {
	if d, ok := cache.Get(raw); ok {
		return d, d != nil
	}
	d := sniff(raw)
	cache.Add(raw, d)
	return d, d != nil
}

// Do demangles raw into its display form, falling back to the raw name when
// the symbol is not mangled Rust.
func Do(raw string) string {
	if d, ok := Parse(raw); ok {
		return d.Display(false)
	}
	return raw
}

func sniff(raw string) *Demangled {
	name := raw
	// rustc appends ThinLTO promotion suffixes to otherwise valid symbols
	if i := strings.Index(name, ".llvm."); i > 0 {
		name = name[:i]
	}
	switch {
	case strings.HasPrefix(name, "_R"), strings.HasPrefix(name, "__R"), strings.HasPrefix(name, "R"):
		if d := parseV0(strings.TrimLeft(name, "_")); d != nil {
			d.classify()
			return d
		}
	case strings.HasPrefix(name, "_ZN"), strings.HasPrefix(name, "__ZN"), strings.HasPrefix(name, "ZN"):
		if d := parseLegacy(name); d != nil {
			d.classify()
			return d
		}
	}
	return nil
}
