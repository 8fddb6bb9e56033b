// Package matching decides whether a candidate name matches the text typed
// so far, in one of the three completion modes.
package matching

import (
	"strings"

	"github.com/cockroachdb/errors"
)

type Mode int

const (
	// Simple matches candidates starting with the typed text.
	Simple Mode = iota
	// Substring matches candidates containing the typed text.
	Substring
	// Fuzzy matches candidates containing the typed runes in order.
	Fuzzy
)

var ErrUnknownMode = errors.New("unknown completion mode")

var modeNames = map[Mode]string{
	Simple:    "simple",
	Substring: "substring",
	Fuzzy:     "fuzzy",
}

// ParseMode accepts "simple", "substring" or "fuzzy", case-insensitively.
func ParseMode(s string) (Mode, error) {
	for mode, name := range modeNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return mode, nil
		}
	}
	return Simple, errors.Wrapf(ErrUnknownMode, "%q", s)
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

// Match reports whether word matches the typed text under m.
func (m Mode) Match(word, text string) bool {
	switch m {
	case Substring:
		return strings.Contains(word, text)
	case Fuzzy:
		_, ok := FuzzyMatch(text, word)
		return ok
	default:
		return strings.HasPrefix(word, text)
	}
}

// Filter keeps the words matching text, preserving order.
func (m Mode) Filter(words []string, text string) []string {
	var out []string
	for _, w := range words {
		if m.Match(w, text) {
			out = append(out, w)
		}
	}
	return out
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}
