package extract

import (
	"fmt"
	"os"
	"strings"
)

// SourceLookup reads and caches original source files for interleaving. A
// file that cannot be read is remembered as missing so the placeholder is
// the only consequence; extraction itself never fails on it.
type SourceLookup struct {
	files   map[string][]string
	missing map[string]error
}

func NewSourceLookup() *SourceLookup {
	return &SourceLookup{
		files:   make(map[string][]string),
		missing: make(map[string]error),
	}
}

// Lines returns the 1-based inclusive line span of a source file.
func (l *SourceLookup) Lines(path string, from, to int) ([]string, error) {
	if err, ok := l.missing[path]; ok {
		return nil, err
	}
	lines, ok := l.files[path]
	if !ok {
		data, err := os.ReadFile(path)
		if err != nil {
			l.missing[path] = err
			return nil, err
		}
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		l.files[path] = lines
	}
	if from < 1 {
		from = 1
	}
	if to > len(lines) {
		to = len(lines)
	}
	if from > to {
		return nil, nil
	}
	return lines[from-1 : to], nil
}

// maximum run of source lines emitted for one location step; a larger jump
// emits just the new line
const maxSourceRun = 8

// Interleave merges original source lines into the extracted listing. On
// every location change the source line(s) that produced the following
// emitted code are inserted before it: a short contiguous run when the new
// location moves forward within the same file, the single new line
// otherwise. The same span is never emitted twice in succession, and an
// unreadable source file degrades to a placeholder comment.
func Interleave(lines []Line, mapping LineMapping, src *SourceLookup) []Line {
	out := make([]Line, 0, len(lines)+len(mapping)*2)
	var lastFile string
	var lastLine int
	var lastSpan string

	for i, ln := range lines {
		if ref, ok := mapping[i]; ok {
			from, to := ref.Line, ref.Line
			if ref.File == lastFile && ref.Line > lastLine && ref.Line-lastLine <= maxSourceRun {
				from = lastLine + 1
			}
			span := fmt.Sprintf("%s:%d-%d", ref.File, from, to)
			if span != lastSpan {
				srcLines, err := src.Lines(ref.File, from, to)
				if err != nil {
					out = append(out, Line{
						Text:  fmt.Sprintf("; <source unavailable: %s:%d>", ref.File, ref.Line),
						Class: ClassComment,
					})
				} else {
					for _, s := range srcLines {
						out = append(out, Line{Text: s, Class: ClassSource})
					}
				}
				lastSpan = span
			}
			lastFile, lastLine = ref.File, ref.Line
		}
		out = append(out, ln)
	}
	return out
}
