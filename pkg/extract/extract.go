// Package extract slices one function's body out of an artifact's text,
// optionally maps its debug-location markers back to source lines, and
// renders the result. There is one segmentation strategy per artifact kind;
// dispatch is a plain switch since the set of kinds is closed.
package extract

import (
	"fmt"
	"strings"

	"github.com/blacktop/casm/pkg/symtab"
)

// TextRange is a byte range [Start, End) into the artifact text holding one
// function body, header line included.
type TextRange struct {
	Start int
	End   int
}

// Slice returns the range's text.
func (r TextRange) Slice(text string) string { return text[r.Start:r.End] }

// Range locates sym's body within the table's artifact text. A missing
// terminating marker extends the range to end-of-file; truncated artifacts
// are display-worthy, not errors.
func Range(t *symtab.Table, sym *symtab.Symbol) (TextRange, error) {
	if sym.Offset < 0 || sym.Offset > len(t.Text) {
		return TextRange{}, fmt.Errorf("symbol %s offset %d outside artifact (%d bytes)", sym.RawName, sym.Offset, len(t.Text))
	}
	switch {
	case t.Kind.IsAsm():
		return asmRange(t, sym), nil
	case t.Kind.IsLLVM():
		return llvmRange(t, sym), nil
	case t.Kind == symtab.MIR:
		return mirRange(t, sym), nil
	}
	return TextRange{}, fmt.Errorf("no segmenter for artifact kind %s", t.Kind)
}

// SourceRef points at one original source line.
type SourceRef struct {
	File string
	Line int
}

// LineMapping maps line indices within an extracted range to the source
// location the emitted code originated from. Sparse: only lines carrying a
// debug-location marker appear.
type LineMapping map[int]SourceRef

// Mapping builds the range's line mapping from the format's debug-location
// directives. MIR carries no usable location markers; its mapping is empty.
func Mapping(t *symtab.Table, r TextRange) LineMapping {
	switch {
	case t.Kind.IsAsm():
		return asmMapping(t, r)
	case t.Kind.IsLLVM():
		return llvmMapping(t, r)
	}
	return LineMapping{}
}

// eachLine walks text line by line with byte offsets, newline excluded.
func eachLine(text string, fn func(line string, idx, off int) bool) {
	off, idx := 0, 0
	for off <= len(text) {
		end := strings.IndexByte(text[off:], '\n')
		if end < 0 {
			if off < len(text) {
				fn(text[off:], idx, off)
			}
			return
		}
		if !fn(text[off:off+end], idx, off) {
			return
		}
		off += end + 1
		idx++
	}
}
