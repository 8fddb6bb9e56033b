package matching

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Constants for scoring
const (
	firstCharMatchBonus            = 15
	adjacentMatchBonus             = 10
	separatorMatchBonus            = 12
	camelCaseMatchBonus            = 12
	unmatchedLeadingCharPenalty    = -3
	maxUnmatchedLeadingCharPenalty = -9
)

// Match represents a matched string with score
type Match struct {
	Str            string
	Score          int
	MatchedIndexes []int
}

// FuzzyMatch tests whether the runes of pattern occur in word in order and
// scores the match. The first pattern rune must match exactly; the rest
// fold case. An empty pattern matches everything with a zero score.
func FuzzyMatch(pattern, word string) (Match, bool) {
	match := Match{Str: word}
	if pattern == "" {
		return match, true
	}
	patternRunes := []rune(pattern)
	wordRunes := []rune(word)
	match.MatchedIndexes = make([]int, 0, len(patternRunes))

	var last rune
	var currAdjacentMatchBonus int
	patternIndex := 0

	for i, curr := range wordRunes {
		if patternIndex >= len(patternRunes) {
			break
		}
		want := patternRunes[patternIndex]
		matched := equalFold(curr, want)
		if patternIndex == 0 {
			matched = curr == want
		}
		if !matched {
			last = curr
			continue
		}

		score := 0

		if i == 0 {
			score += firstCharMatchBonus
		}

		// lowercase to uppercase transition
		if i > 0 && unicode.IsLower(last) && unicode.IsUpper(curr) {
			score += camelCaseMatchBonus
		}

		if i > 0 && isSeparator(last) {
			score += separatorMatchBonus
		}

		if n := len(match.MatchedIndexes); n > 0 && match.MatchedIndexes[n-1] == i-1 {
			currAdjacentMatchBonus = currAdjacentMatchBonus*2 + adjacentMatchBonus
			score += currAdjacentMatchBonus
		} else {
			currAdjacentMatchBonus = 0
		}

		if len(match.MatchedIndexes) == 0 {
			penalty := i * unmatchedLeadingCharPenalty
			score += max(penalty, maxUnmatchedLeadingCharPenalty)
		}

		match.Score += score
		match.MatchedIndexes = append(match.MatchedIndexes, i)
		patternIndex++
		last = curr
	}

	if patternIndex < len(patternRunes) {
		return Match{Str: word}, false
	}
	// shorter candidates win ties
	match.Score += len(match.MatchedIndexes) - len(wordRunes)
	return match, true
}

func isSeparator(r rune) bool {
	return r == ' ' || r == '_' || r == '-' || r == '.' || r == '/'
}

// equalFold is case-insensitive rune equality
func equalFold(a, b rune) bool {
	if a == b {
		return true
	}

	if a < utf8.RuneSelf && b < utf8.RuneSelf {
		if 'A' <= a && a <= 'Z' {
			a += 'a' - 'A'
		}
		if 'A' <= b && b <= 'Z' {
			b += 'a' - 'A'
		}
		return a == b
	}

	return strings.EqualFold(string(a), string(b))
}
