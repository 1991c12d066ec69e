package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/blacktop/casm/pkg/symtab"
)

// An IR definition runs from its `define` header to the matching close
// brace. Depth is tracked so braces inside the body (metadata tuples,
// struct literals) do not terminate extraction early; braces inside string
// literals and line comments are ignored.
func llvmRange(t *symtab.Table, sym *symtab.Symbol) TextRange {
	depth := 0
	opened := false
	inString := false
	for i := sym.Offset; i < len(t.Text); i++ {
		c := t.Text[i]
		switch {
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == ';': // comment to end of line
			for i < len(t.Text) && t.Text[i] != '\n' {
				i++
			}
		case c == '{':
			depth++
			opened = true
		case c == '}':
			depth--
			if opened && depth == 0 {
				end := strings.IndexByte(t.Text[i:], '\n')
				if end < 0 {
					return TextRange{Start: sym.Offset, End: len(t.Text)}
				}
				return TextRange{Start: sym.Offset, End: i + end}
			}
		}
	}
	return TextRange{Start: sym.Offset, End: len(t.Text)}
}

var (
	llvmMetaDefRe  = regexp.MustCompile(`^!(\d+) = (.+)$`)
	llvmLocationRe = regexp.MustCompile(`!DILocation\(line: (\d+),(?:.* )?scope: !(\d+)`)
	llvmFileNodeRe = regexp.MustCompile(`!DIFile\(filename: "([^"]+)", directory: "([^"]+)"`)
	llvmFileRefRe  = regexp.MustCompile(`file: !(\d+)`)
	llvmScopeRefRe = regexp.MustCompile(`scope: !(\d+)`)
	llvmDbgRefRe   = regexp.MustCompile(`!dbg !(\d+)`)
)

// llvmMapping resolves `!dbg !N` attachments through the DILocation →
// scope → DIFile metadata chain.
func llvmMapping(t *symtab.Table, r TextRange) LineMapping {
	nodes := make(map[int]string)
	eachLine(t.Text, func(line string, idx, off int) bool {
		if m := llvmMetaDefRe.FindStringSubmatch(line); m != nil {
			if id, err := strconv.Atoi(m[1]); err == nil {
				nodes[id] = m[2]
			}
		}
		return true
	})

	fileOf := func(scope int) (string, bool) {
		for hop := 0; hop < 8; hop++ {
			body, ok := nodes[scope]
			if !ok {
				return "", false
			}
			if m := llvmFileNodeRe.FindStringSubmatch(body); m != nil {
				return joinDIPath(m[2], m[1]), true
			}
			if m := llvmFileRefRe.FindStringSubmatch(body); m != nil {
				scope, _ = strconv.Atoi(m[1])
				continue
			}
			if m := llvmScopeRefRe.FindStringSubmatch(body); m != nil {
				scope, _ = strconv.Atoi(m[1])
				continue
			}
			return "", false
		}
		return "", false
	}

	mapping := LineMapping{}
	eachLine(r.Slice(t.Text), func(line string, idx, off int) bool {
		m := llvmDbgRefRe.FindStringSubmatch(line)
		if m == nil {
			return true
		}
		id, _ := strconv.Atoi(m[1])
		loc := llvmLocationRe.FindStringSubmatch(nodes[id])
		if loc == nil {
			return true
		}
		lineNo, _ := strconv.Atoi(loc[1])
		scope, _ := strconv.Atoi(loc[2])
		if path, ok := fileOf(scope); ok && lineNo > 0 {
			mapping[idx] = SourceRef{File: path, Line: lineNo}
		}
		return true
	})
	return mapping
}

func joinDIPath(dir, file string) string {
	if strings.HasPrefix(file, "/") || dir == "" {
		return file
	}
	return dir + "/" + file
}
