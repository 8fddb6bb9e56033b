package evaluate

import (
	"strconv"
	"strings"

	"github.com/bastiangx/replserve/pkg/object"
	"github.com/cockroachdb/errors"
)

// decodeString turns a string literal, prefix and quotes included, into
// a Str or Bytes.
func decodeString(lit string) (object.Object, error) {
	i := 0
	for i < len(lit) && strings.IndexByte("rRbBuUfF", lit[i]) >= 0 {
		i++
	}
	prefix := strings.ToLower(lit[:i])
	if strings.Contains(prefix, "f") {
		return nil, errors.Wrap(ErrSyntax, "f-strings are not evaluated")
	}

	rest := lit[i:]
	var quote string
	switch {
	case strings.HasPrefix(rest, `"""`), strings.HasPrefix(rest, `'''`):
		quote = rest[:3]
	case strings.HasPrefix(rest, `"`), strings.HasPrefix(rest, `'`):
		quote = rest[:1]
	default:
		return nil, errors.Wrapf(ErrSyntax, "malformed string literal %s", lit)
	}
	if len(rest) < 2*len(quote) || !strings.HasSuffix(rest, quote) {
		return nil, errors.Wrapf(ErrSyntax, "unterminated string literal %s", lit)
	}
	body := rest[len(quote) : len(rest)-len(quote)]

	isBytes := strings.Contains(prefix, "b")
	if !strings.Contains(prefix, "r") {
		var err error
		if body, err = unescape(body, isBytes); err != nil {
			return nil, err
		}
	}
	if isBytes {
		return object.Bytes(body), nil
	}
	return object.Str(body), nil
}

func unescape(body string, isBytes bool) (string, error) {
	if !strings.Contains(body, `\`) {
		return body, nil
	}
	var b strings.Builder
	writeCode := func(v uint64) {
		if isBytes {
			b.WriteByte(byte(v))
		} else {
			b.WriteRune(rune(v))
		}
	}

	for i := 0; i < len(body); {
		c := body[i]
		if c != '\\' || i+1 >= len(body) {
			b.WriteByte(c)
			i++
			continue
		}
		next := body[i+1]
		i += 2
		switch next {
		case '\n':
		case '\\', '\'', '"':
			b.WriteByte(next)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			start, end := i-1, i
			for end < len(body) && end < start+3 && body[end] >= '0' && body[end] <= '7' {
				end++
			}
			v, _ := strconv.ParseUint(body[start:end], 8, 32)
			writeCode(v)
			i = end
		case 'x':
			if i+2 > len(body) {
				return "", errors.Wrap(ErrSyntax, `truncated \xXX escape`)
			}
			v, err := strconv.ParseUint(body[i:i+2], 16, 8)
			if err != nil {
				return "", errors.Wrap(ErrSyntax, `truncated \xXX escape`)
			}
			writeCode(v)
			i += 2
		case 'u', 'U':
			if isBytes {
				b.WriteByte('\\')
				b.WriteByte(next)
				continue
			}
			size := 4
			if next == 'U' {
				size = 8
			}
			if i+size > len(body) {
				return "", errors.Wrapf(ErrSyntax, `truncated \%c escape`, next)
			}
			v, err := strconv.ParseUint(body[i:i+size], 16, 32)
			if err != nil {
				return "", errors.Wrapf(ErrSyntax, `truncated \%c escape`, next)
			}
			writeCode(v)
			i += size
		default:
			b.WriteByte('\\')
			b.WriteByte(next)
		}
	}
	return b.String(), nil
}

func parseInt(lit string) (object.Object, error) {
	if strings.HasSuffix(lit, "j") || strings.HasSuffix(lit, "J") {
		return nil, errors.Wrap(ErrSyntax, "complex literals are not evaluated")
	}
	n, err := strconv.ParseInt(strings.TrimRight(lit, "lL"), 0, 64)
	if err != nil {
		return nil, errors.Wrapf(ErrSyntax, "integer literal %s", lit)
	}
	return object.Int(n), nil
}

func parseFloat(lit string) (object.Object, error) {
	if strings.HasSuffix(lit, "j") || strings.HasSuffix(lit, "J") {
		return nil, errors.Wrap(ErrSyntax, "complex literals are not evaluated")
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(lit, "_", ""), 64)
	if err != nil {
		return nil, errors.Wrapf(ErrSyntax, "float literal %s", lit)
	}
	return object.Float(f), nil
}
