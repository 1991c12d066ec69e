package demangle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// v0 mangling (RFC 2603): a recursive grammar with length-prefixed
// identifiers, base-62 disambiguators and byte-offset back references.
// The parser below produces rustc-style display text plus the structured
// segment spine used by the selector matcher. Punycode identifiers are not
// decoded; a symbol using them falls back to its raw form.

var (
	errV0Truncated = errors.New("truncated v0 symbol")
	errV0Bad       = errors.New("malformed v0 symbol")
	errV0TooDeep   = errors.New("v0 recursion limit")
	errV0Punycode  = errors.New("punycode identifier")
)

const v0MaxDepth = 128

type v0parser struct {
	s     string // mangled text after the `_R` prefix (backref offsets index here)
	pos   int
	depth int
}

func parseV0(name string) *Demangled {
	if !strings.HasPrefix(name, "R") {
		return nil
	}
	p := &v0parser{s: name[1:]}
	if len(p.s) == 0 {
		return nil
	}
	// a leading digit would be a future encoding version
	if p.s[0] >= '0' && p.s[0] <= '9' {
		return nil
	}
	d := &Demangled{}
	if _, err := p.path(d); err != nil {
		return nil
	}
	// optional instantiating crate, then an optional vendor suffix
	if !p.eof() && p.peek() != '.' {
		if _, err := p.path(nil); err != nil {
			return nil
		}
	}
	if !p.eof() && p.peek() != '.' {
		return nil
	}
	if len(d.Segments) == 0 {
		return nil
	}
	return d
}

func (p *v0parser) eof() bool { return p.pos >= len(p.s) }

func (p *v0parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.s[p.pos]
}

func (p *v0parser) next() (byte, error) {
	if p.eof() {
		return 0, errV0Truncated
	}
	c := p.s[p.pos]
	p.pos++
	return c, nil
}

func (p *v0parser) eat(c byte) bool {
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

// integer62 decodes `_` as 0 and `<base62(n-1)>_` as n.
func (p *v0parser) integer62() (uint64, error) {
	if p.eat('_') {
		return 0, nil
	}
	var n uint64
	for {
		c, err := p.next()
		if err != nil {
			return 0, err
		}
		if c == '_' {
			return n + 1, nil
		}
		var digit uint64
		switch {
		case c >= '0' && c <= '9':
			digit = uint64(c - '0')
		case c >= 'a' && c <= 'z':
			digit = uint64(c-'a') + 10
		case c >= 'A' && c <= 'Z':
			digit = uint64(c-'A') + 36
		default:
			return 0, errV0Bad
		}
		n = n*62 + digit
	}
}

// disambiguator is an optional `s<base62>_` prefix; absent means 0.
func (p *v0parser) disambiguator() (uint64, error) {
	if !p.eat('s') {
		return 0, nil
	}
	n, err := p.integer62()
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

func (p *v0parser) ident() (string, uint64, error) {
	dis, err := p.disambiguator()
	if err != nil {
		return "", 0, err
	}
	punycode := p.eat('u')
	start := p.pos
	for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
		p.pos++
	}
	if start == p.pos {
		return "", 0, errV0Bad
	}
	n, err := strconv.Atoi(p.s[start:p.pos])
	if err != nil {
		return "", 0, errV0Bad
	}
	p.eat('_') // separator, required when the name starts with a digit or `_`
	if p.pos+n > len(p.s) {
		return "", 0, errV0Truncated
	}
	name := p.s[p.pos : p.pos+n]
	p.pos += n
	if punycode {
		return "", 0, errV0Punycode
	}
	return name, dis, nil
}

func (p *v0parser) enter() error {
	p.depth++
	if p.depth > v0MaxDepth {
		return errV0TooDeep
	}
	return nil
}

// path parses a path production. When d is non-nil the path is the symbol's
// spine and its segments (and instantiation generics) are collected into d;
// a nil d means the path occurs inside a type and only display text matters.
func (p *v0parser) path(d *Demangled) (string, error) {
	if err := p.enter(); err != nil {
		return "", err
	}
	defer func() { p.depth-- }()

	tag, err := p.next()
	if err != nil {
		return "", err
	}
	switch tag {
	case 'C': // crate root
		name, _, err := p.ident()
		if err != nil {
			return "", err
		}
		if d != nil {
			d.Segments = append(d.Segments, name)
		}
		return name, nil

	case 'M': // inherent impl: <Type>
		if err := p.implPath(); err != nil {
			return "", err
		}
		ty, err := p.typ()
		if err != nil {
			return "", err
		}
		seg := "<" + ty + ">"
		if d != nil {
			d.Segments = append(d.Segments, seg)
		}
		return seg, nil

	case 'X': // trait impl: <Type as Trait>
		if err := p.implPath(); err != nil {
			return "", err
		}
		return p.qualified(d)

	case 'Y': // trait definition: <Type as Trait>
		return p.qualified(d)

	case 'N': // nested path
		ns, err := p.next()
		if err != nil {
			return "", err
		}
		parent, err := p.path(d)
		if err != nil {
			return "", err
		}
		name, dis, err := p.ident()
		if err != nil {
			return "", err
		}
		var seg string
		switch {
		case ns == 'C':
			if name != "" {
				seg = fmt.Sprintf("{closure:%s#%d}", name, dis)
			} else {
				seg = fmt.Sprintf("{closure#%d}", dis)
			}
		case ns == 'S':
			if name != "" {
				seg = fmt.Sprintf("{shim:%s#%d}", name, dis)
			} else {
				seg = fmt.Sprintf("{shim#%d}", dis)
			}
		case ns >= 'A' && ns <= 'Z', ns >= 'a' && ns <= 'z':
			seg = name
		default:
			return "", errV0Bad
		}
		if seg == "" {
			return parent, nil
		}
		if d != nil {
			d.Segments = append(d.Segments, seg)
		}
		return parent + "::" + seg, nil

	case 'I': // generic instantiation: path::<args>
		inner, err := p.path(d)
		if err != nil {
			return "", err
		}
		var args []string
		for !p.eat('E') {
			arg, err := p.genericArg()
			if err != nil {
				return "", err
			}
			args = append(args, arg)
		}
		generics := "<" + strings.Join(args, ", ") + ">"
		if d != nil {
			if d.Generics == "" {
				d.Generics = generics
			}
			return inner + "::" + generics, nil
		}
		return inner + generics, nil

	case 'B':
		return p.backref(func() (string, error) { return p.path(d) })
	}
	return "", errV0Bad
}

// implPath is the (hidden in display) module path of an impl block.
func (p *v0parser) implPath() error {
	if _, err := p.disambiguator(); err != nil {
		return err
	}
	_, err := p.path(nil)
	return err
}

func (p *v0parser) qualified(d *Demangled) (string, error) {
	ty, err := p.typ()
	if err != nil {
		return "", err
	}
	trait, err := p.path(nil)
	if err != nil {
		return "", err
	}
	seg := "<" + ty + " as " + trait + ">"
	if d != nil {
		d.Segments = append(d.Segments, seg)
	}
	return seg, nil
}

func (p *v0parser) backref(parse func() (string, error)) (string, error) {
	off, err := p.integer62()
	if err != nil {
		return "", err
	}
	if off >= uint64(len(p.s)) {
		return "", errV0Bad
	}
	if err := p.enter(); err != nil {
		return "", err
	}
	defer func() { p.depth-- }()
	save := p.pos
	p.pos = int(off)
	out, perr := parse()
	p.pos = save
	return out, perr
}

func (p *v0parser) genericArg() (string, error) {
	switch p.peek() {
	case 'L':
		p.pos++
		if _, err := p.integer62(); err != nil {
			return "", err
		}
		return "'_", nil
	case 'K':
		p.pos++
		return p.konst()
	}
	return p.typ()
}

var v0BasicTypes = map[byte]string{
	'a': "i8", 'b': "bool", 'c': "char", 'd': "f64", 'e': "str",
	'f': "f32", 'h': "u8", 'i': "isize", 'j': "usize", 'l': "i32",
	'm': "u32", 'n': "i128", 'o': "u128", 'p': "_", 's': "i16",
	't': "u16", 'u': "()", 'v': "...", 'x': "i64", 'y': "u64", 'z': "!",
}

func (p *v0parser) typ() (string, error) {
	if err := p.enter(); err != nil {
		return "", err
	}
	defer func() { p.depth-- }()

	c := p.peek()
	if basic, ok := v0BasicTypes[c]; ok {
		p.pos++
		return basic, nil
	}
	switch c {
	case 'A': // array [T; n]
		p.pos++
		ty, err := p.typ()
		if err != nil {
			return "", err
		}
		n, err := p.konst()
		if err != nil {
			return "", err
		}
		return "[" + ty + "; " + n + "]", nil
	case 'S': // slice
		p.pos++
		ty, err := p.typ()
		if err != nil {
			return "", err
		}
		return "[" + ty + "]", nil
	case 'T': // tuple
		p.pos++
		var elems []string
		for !p.eat('E') {
			ty, err := p.typ()
			if err != nil {
				return "", err
			}
			elems = append(elems, ty)
		}
		if len(elems) == 1 {
			return "(" + elems[0] + ",)", nil
		}
		return "(" + strings.Join(elems, ", ") + ")", nil
	case 'R', 'Q':
		p.pos++
		if p.peek() == 'L' {
			p.pos++
			if _, err := p.integer62(); err != nil {
				return "", err
			}
		}
		ty, err := p.typ()
		if err != nil {
			return "", err
		}
		if c == 'Q' {
			return "&mut " + ty, nil
		}
		return "&" + ty, nil
	case 'P', 'O':
		p.pos++
		ty, err := p.typ()
		if err != nil {
			return "", err
		}
		if c == 'O' {
			return "*mut " + ty, nil
		}
		return "*const " + ty, nil
	case 'F':
		p.pos++
		return p.fnSig()
	case 'D':
		p.pos++
		return p.dynTrait()
	case 'B':
		p.pos++
		return p.backref(p.typ)
	}
	return p.path(nil)
}

func (p *v0parser) fnSig() (string, error) {
	if p.eat('G') { // higher-ranked binder
		if _, err := p.integer62(); err != nil {
			return "", err
		}
	}
	var prefix string
	if p.eat('U') {
		prefix = "unsafe "
	}
	if p.eat('K') {
		if p.eat('C') {
			prefix += `extern "C" `
		} else {
			abi, _, err := p.ident()
			if err != nil {
				return "", err
			}
			prefix += `extern "` + abi + `" `
		}
	}
	var params []string
	for !p.eat('E') {
		ty, err := p.typ()
		if err != nil {
			return "", err
		}
		params = append(params, ty)
	}
	ret, err := p.typ()
	if err != nil {
		return "", err
	}
	sig := prefix + "fn(" + strings.Join(params, ", ") + ")"
	if ret != "()" {
		sig += " -> " + ret
	}
	return sig, nil
}

func (p *v0parser) dynTrait() (string, error) {
	if p.eat('G') {
		if _, err := p.integer62(); err != nil {
			return "", err
		}
	}
	var traits []string
	for !p.eat('E') {
		tr, err := p.path(nil)
		if err != nil {
			return "", err
		}
		var bindings []string
		for p.eat('p') {
			name, _, err := p.ident()
			if err != nil {
				return "", err
			}
			ty, err := p.typ()
			if err != nil {
				return "", err
			}
			bindings = append(bindings, name+" = "+ty)
		}
		if len(bindings) > 0 {
			tr += "<" + strings.Join(bindings, ", ") + ">"
		}
		traits = append(traits, tr)
	}
	// required trailing object lifetime
	if _, err := p.next(); err != nil {
		return "", err
	}
	if _, err := p.integer62(); err != nil {
		return "", err
	}
	return "dyn " + strings.Join(traits, " + "), nil
}

func (p *v0parser) konst() (string, error) {
	switch p.peek() {
	case 'p':
		p.pos++
		return "_", nil
	case 'B':
		p.pos++
		return p.backref(p.konst)
	}
	ty, err := p.typ()
	if err != nil {
		return "", err
	}
	neg := p.eat('n')
	start := p.pos
	for !p.eof() && p.peek() != '_' {
		p.pos++
	}
	if !p.eat('_') {
		return "", errV0Truncated
	}
	hexDigits := p.s[start : p.pos-1]
	switch ty {
	case "bool":
		if hexDigits == "0" {
			return "false", nil
		}
		return "true", nil
	case "char":
		if r, err := strconv.ParseUint(hexDigits, 16, 32); err == nil {
			return "'" + string(rune(r)) + "'", nil
		}
		return "", errV0Bad
	}
	n, err := strconv.ParseUint(hexDigits, 16, 64)
	if err != nil {
		return "0x" + hexDigits, nil
	}
	if neg {
		return "-" + strconv.FormatUint(n, 10), nil
	}
	return strconv.FormatUint(n, 10), nil
}
