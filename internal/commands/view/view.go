// Package view turns a compiler artifact into the listing for one function:
// it builds the symbol table, resolves the user's selector, extracts the
// function body and renders it.
package view

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/apex/log"
	"github.com/blacktop/casm/internal/colors"
	"github.com/blacktop/casm/pkg/extract"
	"github.com/blacktop/casm/pkg/symtab"
)

// Config controls selection and presentation of a single function view.
type Config struct {
	Selector    string
	Index       int // instantiation picker, -1 when unset
	FullName    bool
	Rust        bool // interleave source lines
	Simplify    bool // prune assembler metadata directives
	Color       bool
	Theme       string // non-empty switches rendering to chroma
	Interactive bool
}

// Run resolves conf.Selector against the artifact text and writes the
// rendered function to w.
func Run(w io.Writer, text string, kind symtab.Kind, conf *Config) error {
	table, err := symtab.Build(text, kind)
	if err != nil {
		return err
	}

	sym, err := pick(table, conf)
	if err != nil {
		return err
	}
	if sym == nil { // interactive prompt interrupted
		return nil
	}

	log.WithFields(log.Fields{
		"symbol": sym.Display(conf.FullName),
		"kind":   kind.String(),
	}).Debug("Selected")

	r, err := extract.Range(table, sym)
	if err != nil {
		return err
	}

	lines := extract.Classify(r.Slice(table.Text), kind)
	if conf.Rust {
		lines = extract.Interleave(lines, extract.Mapping(table, r), extract.NewSourceLookup())
	}
	if conf.Simplify {
		lines = extract.Simplify(lines)
	}

	if conf.Theme != "" && conf.Color {
		return extract.Highlight(w, lines, kind, conf.Theme)
	}
	return extract.Render(w, lines, conf.Color)
}

// pick resolves the configured selector to exactly one symbol. With no
// selector it auto-selects a lone symbol, prompts when interactive, and
// otherwise lists what is available.
func pick(table *symtab.Table, conf *Config) (*symtab.Symbol, error) {
	if conf.Selector == "" {
		if len(table.Symbols) == 1 {
			return &table.Symbols[0], nil
		}
		if conf.Interactive {
			return prompt(table, conf)
		}
		return nil, fmt.Errorf("artifact contains %d functions; pick one:%s",
			len(table.Symbols), candidateList(table.Candidates(conf.FullName)))
	}

	sel := symtab.ParseSelector(conf.Selector, conf.Index)
	sym, err := table.Find(sel, conf.FullName)
	if err != nil {
		if _, ok := err.(*symtab.AmbiguousMatchError); ok && conf.Interactive {
			return promptAmong(table, table.Match(sel), conf)
		}
		return nil, err
	}
	return sym, nil
}

func prompt(table *symtab.Table, conf *Config) (*symtab.Symbol, error) {
	all := make([]int, len(table.Symbols))
	for i := range all {
		all[i] = i
	}
	return promptAmong(table, all, conf)
}

func promptAmong(table *symtab.Table, idxs []int, conf *Config) (*symtab.Symbol, error) {
	options := make([]string, len(idxs))
	for i, idx := range idxs {
		options[i] = table.Symbols[idx].Display(conf.FullName)
	}

	var choice string
	sel := &survey.Select{
		Message:  "Select function to display:",
		Options:  options,
		PageSize: 15,
	}
	if err := survey.AskOne(sel, &choice); err != nil {
		if err == terminal.InterruptErr {
			log.Warn("Exiting...")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to prompt for function: %v", err)
	}

	for i, opt := range options {
		if opt == choice {
			return &table.Symbols[idxs[i]], nil
		}
	}
	return nil, fmt.Errorf("selection %q not found", choice)
}

func candidateList(cands []symtab.Candidate) string {
	var b strings.Builder
	for _, c := range cands {
		fmt.Fprintf(&b, "\n\t[%d] %s", c.Index, c.Display)
	}
	return b.String()
}

// List writes every function the artifact defines, in definition order or
// sorted by name.
func List(w io.Writer, text string, kind symtab.Kind, conf *Config, sortByName bool) error {
	table, err := symtab.Build(text, kind)
	if err != nil {
		return err
	}

	type entry struct {
		name    string
		lines   int
		mangled bool
	}
	entries := make([]entry, 0, len(table.Symbols))
	for i := range table.Symbols {
		e := entry{
			name:    table.Symbols[i].Display(conf.FullName),
			mangled: table.Symbols[i].Name != nil,
		}
		if rng, err := extract.Range(table, &table.Symbols[i]); err == nil {
			e.lines = strings.Count(strings.TrimRight(rng.Slice(table.Text), "\n"), "\n") + 1
		}
		entries = append(entries, e)
	}
	if sortByName {
		sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	}

	// demangled Rust paths in bold, raw linker leftovers dimmed
	bold := colors.Bold().SprintFunc()
	faint := colors.Faint().SprintFunc()
	for _, e := range entries {
		name := e.name
		if conf.Color {
			if e.mangled {
				name = bold(name)
			} else {
				name = faint(name)
			}
		}
		fmt.Fprintf(w, "%s [%d lines]\n", name, e.lines)
	}
	return nil
}
