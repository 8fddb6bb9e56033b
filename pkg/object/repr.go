package object

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

func (s Str) Repr() string {
	quote := byte('\'')
	if strings.ContainsRune(string(s), '\'') && !strings.ContainsRune(string(s), '"') {
		quote = '"'
	}
	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range string(s) {
		switch {
		case r == rune(quote) || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < ' ' || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		case !unicode.IsPrint(r):
			switch {
			case r <= 0xff:
				fmt.Fprintf(&b, `\x%02x`, r)
			case r <= 0xffff:
				fmt.Fprintf(&b, `\u%04x`, r)
			default:
				fmt.Fprintf(&b, `\U%08x`, r)
			}
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

func (s Bytes) Repr() string {
	quote := byte('\'')
	if strings.IndexByte(string(s), '\'') >= 0 && strings.IndexByte(string(s), '"') < 0 {
		quote = '"'
	}
	var b strings.Builder
	b.WriteString("b")
	b.WriteByte(quote)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == quote || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\t':
			b.WriteString(`\t`)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c < ' ' || c >= 0x7f:
			fmt.Fprintf(&b, `\x%02x`, c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

func (i Int) Repr() string { return strconv.FormatInt(int64(i), 10) }

func (f Float) Repr() string {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func (b Bool) Repr() string {
	if b {
		return "True"
	}
	return "False"
}

func (NoneType) Repr() string { return "None" }

func (l *List) Repr() string { return "[" + joinRepr(l.Items) + "]" }

func (t Tuple) Repr() string {
	if len(t) == 1 {
		return "(" + t[0].Repr() + ",)"
	}
	return "(" + joinRepr(t) + ")"
}

func (s *Set) Repr() string {
	if len(s.Items) == 0 {
		return "set()"
	}
	return "{" + joinRepr(s.Items) + "}"
}

func (d *Dict) Repr() string {
	parts := make([]string, 0, len(d.keys))
	for _, k := range d.keys {
		v, _ := d.Get(k)
		parts = append(parts, k.Repr()+": "+v.Repr())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func joinRepr(items []Object) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.Repr()
	}
	return strings.Join(parts, ", ")
}

// ToStr converts obj the way the host language's str() does.
func ToStr(obj Object) Str {
	if s, ok := obj.(Str); ok {
		return s
	}
	return Str(obj.Repr())
}
