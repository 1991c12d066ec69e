package extract

import (
	"strings"

	"github.com/blacktop/casm/pkg/symtab"
)

// MIR dumps print one block listing per function, closed by a `}` at column
// zero, with functions separated by blank lines and `// MIR for` banners.
// Extraction stops after the closing brace, or before the next function's
// header/banner when the brace is missing (truncated dumps).
func mirRange(t *symtab.Table, sym *symtab.Symbol) TextRange {
	start := sym.Offset
	end := len(t.Text)
	first := true
	eachLine(t.Text[start:], func(line string, idx, off int) bool {
		if first {
			first = false
			return true
		}
		if symtab.IsMIRHeader(line) || strings.HasPrefix(line, "// MIR for") {
			end = start + off
			return false
		}
		if line == "}" {
			end = start + off + len(line)
			return false
		}
		return true
	})
	// trim the trailing blank separator when the closing brace was missing
	if end == len(t.Text) {
		end = start + len(strings.TrimRight(t.Text[start:end], "\n"))
	}
	return TextRange{Start: start, End: end}
}
