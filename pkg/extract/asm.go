package extract

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/blacktop/casm/pkg/symtab"
)

// rustc's assembly printing: a function is its label line followed by
// instructions and metadata directives, terminated by a local `Lfunc_end`
// label plus a `.size` annotation, then the next function's `.section` /
// `.globl` / `.type` header. The body range keeps trailing metadata but
// stops before anything that belongs to the next symbol.

var (
	asmSectionRe = regexp.MustCompile(`^\s*\.(section|text|data|bss)\b`)
	asmGloblDire = regexp.MustCompile(`^\s*\.glob(?:a)?l\b`)
	asmTypeDire  = regexp.MustCompile(`^\s*\.type\b`)

	// `\t.file\t7 "/dir" "src/lib.rs" <md5>` — second path and md5 optional
	asmFileRe = regexp.MustCompile(`^\s*\.file\s+(\d+)\s+"([^"]+)"(?:\s+"([^"]+)")?(?:\s+([0-9a-fA-F]{32}))?`)
	// `\t.loc\t7 14 5 prologue_end`
	asmLocRe = regexp.MustCompile(`^\s*\.loc\s+(\d+)\s+(\d+)\s+(\d+)(?:\s+(.+))?`)
)

func asmRange(t *symtab.Table, sym *symtab.Symbol) TextRange {
	start := sym.Offset
	end := len(t.Text)
	first := true
	eachLine(t.Text[start:], func(line string, idx, off int) bool {
		if first { // the symbol's own label line
			first = false
			return true
		}
		if name, ok := symtab.ParseLabel(line); ok {
			if name != sym.RawName {
				switch symtab.LabelKindOf(name) {
				case symtab.LabelGlobal, symtab.LabelUnknown:
					end = start + off
					return false
				}
			}
			return true
		}
		if asmSectionRe.MatchString(line) || asmGloblDire.MatchString(line) || asmTypeDire.MatchString(line) {
			end = start + off
			return false
		}
		return true
	})
	return TextRange{Start: start, End: end}
}

// asmFileTable collects the artifact-wide `.file` index table. File ids are
// declared in the preamble, before any function body.
func asmFileTable(text string) map[int]string {
	files := make(map[int]string)
	eachLine(text, func(line string, idx, off int) bool {
		m := asmFileRe.FindStringSubmatch(line)
		if m == nil {
			return true
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			return true
		}
		path := m[2]
		if m[3] != "" {
			path = filepath.Join(m[2], m[3])
		}
		files[id] = path
		return true
	})
	return files
}

func asmMapping(t *symtab.Table, r TextRange) LineMapping {
	files := asmFileTable(t.Text)
	mapping := LineMapping{}
	eachLine(r.Slice(t.Text), func(line string, idx, off int) bool {
		m := asmLocRe.FindStringSubmatch(line)
		if m == nil {
			return true
		}
		fileID, _ := strconv.Atoi(m[1])
		lineNo, _ := strconv.Atoi(m[2])
		path, ok := files[fileID]
		if !ok || lineNo == 0 {
			return true
		}
		mapping[idx] = SourceRef{File: path, Line: lineNo}
		return true
	})
	return mapping
}

// isAsmNoise reports metadata directives the --simplify flag prunes.
func isAsmNoise(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	for _, prefix := range []string{
		".cfi_", ".p2align", ".align", ".file", ".loc", ".size",
		".frame_", ".fnstart", ".fnend",
	} {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}
