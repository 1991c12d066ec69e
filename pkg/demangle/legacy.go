package demangle

import (
	"strconv"
	"strings"
)

// parseLegacy handles the pre-2018 hashed mangling scheme:
// `_ZN` (`{len}{bytes}`)* `E`, with rust punctuation escaped as `$…$` tokens
// and `::` written as `..`. The final segment is a 17 char `h<16 hex>` hash.
func parseLegacy(name string) *Demangled {
	s := name
	switch {
	case strings.HasPrefix(s, "__ZN"):
		s = s[4:]
	case strings.HasPrefix(s, "_ZN"):
		s = s[3:]
	case strings.HasPrefix(s, "ZN"):
		s = s[2:]
	default:
		return nil
	}

	var rawSegs []string
	for len(s) > 0 && s[0] != 'E' {
		n := 0
		for n < len(s) && s[n] >= '0' && s[n] <= '9' {
			n++
		}
		if n == 0 {
			return nil
		}
		length, err := strconv.Atoi(s[:n])
		if err != nil || length == 0 || n+length > len(s) {
			return nil
		}
		rawSegs = append(rawSegs, s[n:n+length])
		s = s[n+length:]
	}
	if s != "E" || len(rawSegs) == 0 {
		return nil
	}

	d := &Demangled{}
	for i, seg := range rawSegs {
		if i == len(rawSegs)-1 && isLegacyHash(seg) {
			d.Hash = seg
			continue
		}
		d.Segments = append(d.Segments, unescapeLegacy(seg))
	}
	if len(d.Segments) == 0 {
		return nil
	}
	return d
}

func isLegacyHash(seg string) bool {
	if len(seg) != 17 || seg[0] != 'h' {
		return false
	}
	for _, c := range seg[1:] {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

var legacyTokens = map[string]string{
	"SP": "@",
	"BP": "*",
	"RF": "&",
	"LT": "<",
	"GT": ">",
	"LP": "(",
	"RP": ")",
	"C":  ",",
}

func unescapeLegacy(seg string) string {
	// elements that would start with '$' or a digit carry a '_' guard
	if strings.HasPrefix(seg, "_$") {
		seg = seg[1:]
	}
	var b strings.Builder
	for i := 0; i < len(seg); {
		c := seg[i]
		switch {
		case c == '$':
			end := strings.IndexByte(seg[i+1:], '$')
			if end < 0 {
				b.WriteByte(c)
				i++
				continue
			}
			tok := seg[i+1 : i+1+end]
			if sub, ok := legacyTokens[tok]; ok {
				b.WriteString(sub)
			} else if strings.HasPrefix(tok, "u") {
				if r, err := strconv.ParseUint(tok[1:], 16, 32); err == nil {
					b.WriteRune(rune(r))
				} else {
					b.WriteString("$" + tok + "$")
				}
			} else {
				b.WriteString("$" + tok + "$")
			}
			i += end + 2
		case c == '.' && i+1 < len(seg) && seg[i+1] == '.':
			b.WriteString("::")
			i += 2
		case c == '.':
			// lone dots encode '-' in crate names
			b.WriteByte('-')
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}
