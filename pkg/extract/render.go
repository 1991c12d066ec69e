package extract

import (
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/blacktop/casm/pkg/symtab"
)

// Class is a line's semantic role, driving colorization only. The renderer
// never reflows, truncates or reorders content.
type Class int

const (
	ClassInstruction Class = iota
	ClassLabel
	ClassDirective
	ClassComment
	ClassSource
	ClassBlank
)

// Line is one output line tagged for the renderer.
type Line struct {
	Text  string
	Class Class
}

// Classify tags each line of extracted content with its lexical role for
// the given artifact kind.
func Classify(content string, kind symtab.Kind) []Line {
	raw := strings.Split(strings.TrimRight(content, "\n"), "\n")
	lines := make([]Line, len(raw))
	for i, text := range raw {
		lines[i] = Line{Text: text, Class: classify(text, kind)}
	}
	return lines
}

func classify(text string, kind symtab.Kind) Class {
	trimmed := strings.TrimLeft(text, " \t")
	if trimmed == "" {
		return ClassBlank
	}
	switch {
	case kind.IsAsm():
		if _, ok := symtab.ParseLabel(text); ok {
			return ClassLabel
		}
		switch trimmed[0] {
		case '.':
			return ClassDirective
		case '#', ';':
			return ClassComment
		}
		return ClassInstruction
	case kind.IsLLVM():
		switch {
		case trimmed[0] == ';':
			return ClassComment
		case strings.HasPrefix(text, "define"), strings.HasPrefix(text, "}"):
			return ClassLabel
		case strings.HasSuffix(labelPart(trimmed), ":"):
			return ClassLabel
		case trimmed[0] == '!', strings.HasPrefix(text, "target "),
			strings.HasPrefix(text, "declare"), strings.HasPrefix(text, "attributes"):
			return ClassDirective
		}
		return ClassInstruction
	default: // MIR
		switch {
		case strings.HasPrefix(trimmed, "//"):
			return ClassComment
		case symtab.IsMIRHeader(text), text == "}":
			return ClassLabel
		}
		return ClassInstruction
	}
}

// labelPart strips an inline comment so `bb1:  ; preds = %bb0` classifies
// as a label.
func labelPart(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Simplify prunes metadata directives (cfi, alignment, size, debug
// location noise) from an assembly listing. Interleaving happens first so
// pruning never shifts the line mapping.
func Simplify(lines []Line) []Line {
	out := lines[:0:0]
	for _, ln := range lines {
		if ln.Class == ClassDirective && isAsmNoise(ln.Text) {
			continue
		}
		out = append(out, ln)
	}
	return out
}

// Render writes the listing. With colorize off the content is written
// byte-for-byte; with it on only ANSI escapes are added around the
// untouched text.
func Render(w io.Writer, lines []Line, colorize bool) error {
	for _, ln := range lines {
		text := ln.Text
		if colorize {
			switch ln.Class {
			case ClassLabel:
				text = colorLabel(text)
			case ClassDirective:
				text = colorDirective(text)
			case ClassComment:
				text = colorComment(text)
			case ClassSource:
				text = colorSource(text)
			case ClassInstruction:
				text = colorInstruction(text)
			}
		}
		if _, err := io.WriteString(w, text+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// chroma lexer per artifact kind; MIR has no lexer of its own, rust reads
// closest.
func lexerFor(kind symtab.Kind) string {
	switch {
	case kind == symtab.AsmIntel:
		return "nasm"
	case kind == symtab.AsmATT:
		return "gas"
	case kind.IsLLVM():
		return "llvm"
	default:
		return "rust"
	}
}

// Highlight renders the listing through a chroma theme instead of the
// built-in per-class colors.
func Highlight(w io.Writer, lines []Line, kind symtab.Kind, theme string) error {
	var b strings.Builder
	for _, ln := range lines {
		b.WriteString(ln.Text)
		b.WriteByte('\n')
	}
	return quick.Highlight(w, b.String(), lexerFor(kind), "terminal256", theme)
}
