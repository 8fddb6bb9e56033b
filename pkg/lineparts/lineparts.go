/*
Package lineparts locates the token under the cursor that a completion
strategy wants to replace.

Every locator takes a cursor offset and the current line and returns the
Span of the token, or false when no token of that kind sits under the
cursor. Locators never evaluate anything; they only look at the text,
which is usually incomplete and syntactically invalid.

Offsets are byte offsets into the line.
*/
package lineparts

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Span is the region of a line a completion replaces.
// Line[Start:End] == Word always holds.
type Span struct {
	Start int
	End   int
	Word  string
}

// Locator is the signature shared by every function in this package.
type Locator func(cursorOffset int, line string) (Span, bool)

func newSpan(line string, start, end int) Span {
	return Span{Start: start, End: end, Word: line[start:end]}
}

var (
	currentWordRe      = regexp.MustCompile(`[\p{L}\p{N}_][\p{L}\p{N}_.]*\(?`)
	currentDictKeyRe   = regexp.MustCompile(`[\p{L}\p{N}_][\p{L}\p{N}_.]*\[([\p{L}\p{N}_.(), '"]*)`)
	currentDictRe      = regexp.MustCompile(`([\p{L}\p{N}_][\p{L}\p{N}_.]*)\[([\p{L}\p{N}_.(), '"]*)`)
	methodDefinitionRe = regexp.MustCompile(`def\s+([a-zA-Z_]\w*)`)
	singleWordRe       = regexp.MustCompile(`\b[a-zA-Z_]\w*`)
	fromImportFromRe   = regexp.MustCompile(`from ([\w.]*)(?:\s+import\s+([\w]+,?\s*)+)*`)
	fromImportBaseRe   = regexp.MustCompile(`from\s([\w.]*)\s+import`)
	fromImportFirstRe  = regexp.MustCompile(`(\w+)`)
	fromImportRestRe   = regexp.MustCompile(`, (\w*)`)
	importBaseRe       = regexp.MustCompile(`import`)
	importFirstRe      = regexp.MustCompile(`([\w.]+)`)
	importRestRe       = regexp.MustCompile(`, ([\w.]*)`)
	stringOpeners      = []string{`"""`, `"`, `'''`, `'`}
	literalAttrOpeners = []string{`'''`, `"""`, `'`, `"`}
)

// CurrentWord returns the dotted word just before or under the cursor,
// including a trailing open paren.
func CurrentWord(cursorOffset int, line string) (Span, bool) {
	var (
		span  Span
		found bool
	)
	for _, m := range currentWordRe.FindAllStringIndex(line, -1) {
		if m[0] < cursorOffset && m[1] >= cursorOffset {
			span, found = newSpan(line, m[0], m[1]), true
		}
	}
	return span, found
}

// CurrentDictKey returns the partial key typed inside obj[ ... when the
// cursor lies in it.
func CurrentDictKey(cursorOffset int, line string) (Span, bool) {
	for _, m := range currentDictKeyRe.FindAllStringSubmatchIndex(line, -1) {
		if m[2] <= cursorOffset && m[3] >= cursorOffset {
			return newSpan(line, m[2], m[3]), true
		}
	}
	return Span{}, false
}

// CurrentDict returns the expression being subscripted when the cursor is
// inside its brackets.
func CurrentDict(cursorOffset int, line string) (Span, bool) {
	for _, m := range currentDictRe.FindAllStringSubmatchIndex(line, -1) {
		if m[4] <= cursorOffset && m[5] >= cursorOffset {
			return newSpan(line, m[2], m[3]), true
		}
	}
	return Span{}, false
}

// CurrentString returns the contents (without quotes) of the non-empty
// string literal the cursor is in. Unterminated strings run to the end of
// the line.
func CurrentString(cursorOffset int, line string) (Span, bool) {
	for i := 0; i < len(line); {
		start, end, next, ok := matchStringAt(line, i)
		if !ok {
			i++
			continue
		}
		if start <= cursorOffset && end >= cursorOffset {
			return newSpan(line, start, end), true
		}
		i = next
	}
	return Span{}, false
}

// matchStringAt tries every opening delimiter at i. A closed string needs
// at least one character before its closing delimiter; an unclosed one
// needs at least one character after the opener.
func matchStringAt(line string, i int) (start, end, next int, ok bool) {
	for _, open := range stringOpeners {
		if !strings.HasPrefix(line[i:], open) {
			continue
		}
		body := i + len(open)
		if body >= len(line) {
			continue
		}
		if j := strings.Index(line[body+1:], open); j >= 0 {
			closeAt := body + 1 + j
			return body, closeAt, closeAt + len(open), true
		}
		return body, len(line), len(line), true
	}
	return 0, 0, 0, false
}

// CurrentDottedAttribute returns the current word when it is an
// attribute access (holds a dot past its first character).
func CurrentDottedAttribute(cursorOffset int, line string) (Span, bool) {
	span, ok := CurrentWord(cursorOffset, line)
	if !ok || !strings.Contains(span.Word[1:], ".") {
		return Span{}, false
	}
	return span, true
}

// CurrentMethodDefinitionName returns the name following def.
func CurrentMethodDefinitionName(cursorOffset int, line string) (Span, bool) {
	for _, m := range methodDefinitionRe.FindAllStringSubmatchIndex(line, -1) {
		if m[2] <= cursorOffset && m[3] >= cursorOffset {
			return newSpan(line, m[2], m[3]), true
		}
	}
	return Span{}, false
}

// CurrentSingleWord returns the undotted identifier just before or under
// the cursor. Identifiers that directly follow a dot are attributes and
// never match.
func CurrentSingleWord(cursorOffset int, line string) (Span, bool) {
	for _, m := range singleWordRe.FindAllStringIndex(line, -1) {
		if m[0] > 0 && line[m[0]-1] == '.' {
			continue
		}
		if m[0] <= cursorOffset && m[1] >= cursorOffset {
			return newSpan(line, m[0], m[1]), true
		}
	}
	return Span{}, false
}

// CurrentStringLiteralAttr returns the attribute typed after a closed
// string literal, as in "abc".up
func CurrentStringLiteralAttr(cursorOffset int, line string) (Span, bool) {
	for i := 0; i < len(line); {
		start, end, ok := matchLiteralAttrAt(line, i)
		if !ok {
			i++
			continue
		}
		if start <= cursorOffset && end >= cursorOffset {
			return newSpan(line, start, end), true
		}
		i = end
	}
	return Span{}, false
}

func matchLiteralAttrAt(line string, i int) (start, end int, ok bool) {
	for _, open := range literalAttrOpeners {
		if !strings.HasPrefix(line[i:], open) {
			continue
		}
		closeAt, closed := scanLiteralBody(line, i+len(open), open)
		if !closed {
			continue
		}
		dot := closeAt + len(open)
		if dot >= len(line) || line[dot] != '.' {
			continue
		}
		start = dot + 1
		end = start
		for end < len(line) {
			r, size := utf8.DecodeRuneInString(line[end:])
			if !isIdentRune(r) {
				break
			}
			end += size
		}
		return start, end, true
	}
	return 0, 0, false
}

// scanLiteralBody walks a string body honouring backslash escapes and
// returns the offset of the closing delimiter.
func scanLiteralBody(line string, j int, open string) (int, bool) {
	for j < len(line) {
		if strings.HasPrefix(line[j:], open) {
			return j, true
		}
		if line[j] == '\\' {
			if j+1 >= len(line) {
				return 0, false
			}
			_, size := utf8.DecodeRuneInString(line[j+1:])
			j += 1 + size
			continue
		}
		j++
	}
	return 0, false
}

// CurrentNamePrefix returns the identifier characters immediately before
// the cursor. The span may be empty.
func CurrentNamePrefix(cursorOffset int, line string) (Span, bool) {
	if cursorOffset < 0 || cursorOffset > len(line) {
		return Span{}, false
	}
	start := cursorOffset
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(line[:start])
		if !isIdentRune(r) {
			break
		}
		start -= size
	}
	return newSpan(line, start, cursorOffset), true
}

// CurrentFromImportFrom returns the module after from when the cursor is
// in it or in one of the imported names.
func CurrentFromImportFrom(cursorOffset int, line string) (Span, bool) {
	tokens := strings.Fields(line)
	if !slices.Contains(tokens, "from") && !slices.Contains(tokens, "import") {
		return Span{}, false
	}
	for _, m := range fromImportFromRe.FindAllStringSubmatchIndex(line, -1) {
		inModule := m[2] < cursorOffset && m[3] >= cursorOffset
		inNames := m[4] >= 0 && m[4] < cursorOffset && m[5] >= cursorOffset
		if inModule || inNames {
			return newSpan(line, m[2], m[3]), true
		}
	}
	return Span{}, false
}

// CurrentFromImportImport returns the name being imported in
// from module import name.
func CurrentFromImportImport(cursorOffset int, line string) (Span, bool) {
	base := fromImportBaseRe.FindStringIndex(line)
	if base == nil {
		return Span{}, false
	}
	return importedName(cursorOffset, line, base[1], fromImportFirstRe, fromImportRestRe)
}

// CurrentImport returns the module being imported in import a, b.
func CurrentImport(cursorOffset int, line string) (Span, bool) {
	base := importBaseRe.FindStringIndex(line)
	if base == nil {
		return Span{}, false
	}
	return importedName(cursorOffset, line, base[1], importFirstRe, importRestRe)
}

func importedName(cursorOffset int, line string, offset int, first, rest *regexp.Regexp) (Span, bool) {
	tail := line[offset:]
	m := first.FindStringSubmatchIndex(tail)
	if m == nil {
		return Span{}, false
	}
	candidates := [][]int{m}
	candidates = append(candidates, rest.FindAllStringSubmatchIndex(tail, -1)...)
	for _, c := range candidates {
		start, end := offset+c[2], offset+c[3]
		if start < cursorOffset && end >= cursorOffset {
			return newSpan(line, start, end), true
		}
	}
	return Span{}, false
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
