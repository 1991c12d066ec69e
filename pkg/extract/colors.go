package extract

import (
	"regexp"
	"strings"

	"github.com/fatih/color"
)

// listing colors
var colorLabel = color.New(color.FgHiYellow).SprintFunc()
var colorDirective = color.New(color.Faint, color.FgWhite).SprintFunc()
var colorComment = color.New(color.Faint, color.FgHiWhite).SprintFunc()
var colorSource = color.New(color.FgGreen).SprintFunc()
var colorOp = color.New(color.Bold, color.FgHiBlue).SprintFunc()
var colorImm = color.New(color.Bold, color.FgMagenta).SprintFunc()
var colorLocal = color.New(color.Faint).SprintFunc()

var immMatch = regexp.MustCompile(`#?-?\b(?:0x[0-9a-fA-F]+|\d+)\b`)
var localMatch = regexp.MustCompile(`\.?L[A-Za-z0-9_.$]+`)

// colorInstruction colors the mnemonic and highlights immediates and local
// label references in the operand text.
func colorInstruction(text string) string {
	indent := text[:len(text)-len(strings.TrimLeft(text, " \t"))]
	rest := text[len(indent):]

	op := rest
	args := ""
	if i := strings.IndexAny(rest, " \t"); i >= 0 {
		op, args = rest[:i], rest[i:]
	}
	if args != "" {
		args = immMatch.ReplaceAllStringFunc(args, func(s string) string {
			return colorImm(s)
		})
		args = localMatch.ReplaceAllStringFunc(args, func(s string) string {
			return colorLocal(s)
		})
	}
	return indent + colorOp(op) + args
}
