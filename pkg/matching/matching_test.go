package matching

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tchap/go-patricia/v2/patricia"
)

func TestModeMatch(t *testing.T) {
	testCases := []struct {
		mode        Mode
		word        string
		text        string
		expected    bool
		description string
	}{
		{Simple, "import", "imp", true, "prefix"},
		{Simple, "import", "port", false, "not a prefix"},
		{Simple, "anything", "", true, "empty text matches"},
		{Substring, "import", "port", true, "substring"},
		{Substring, "import", "xyz", false, "not a substring"},
		{Fuzzy, "isinstance", "isi", true, "subsequence from start"},
		{Fuzzy, "__getattribute__", "gat", true, "subsequence in the middle"},
		{Fuzzy, "startswith", "sw", true, "skips runes"},
		{Fuzzy, "startswith", "ws", false, "order matters"},
		{Fuzzy, "Upper", "up", false, "first rune is case-sensitive"},
		{Fuzzy, "upperCase", "uC", true, "camel case"},
		{Fuzzy, "upperCase", "uc", true, "later runes fold case"},
		{Fuzzy, "abc", "abcd", false, "pattern longer than word"},
	}

	for _, tc := range testCases {
		t.Run(tc.mode.String()+"/"+tc.description, func(t *testing.T) {
			if got := tc.mode.Match(tc.word, tc.text); got != tc.expected {
				t.Errorf("%s.Match(%q, %q) = %v, expected %v", tc.mode, tc.word, tc.text, got, tc.expected)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	for _, name := range []string{"simple", "Substring", " fuzzy "} {
		mode, err := ParseMode(name)
		if err != nil {
			t.Fatalf("ParseMode(%q) failed: %v", name, err)
		}
		var roundTrip Mode
		if err := roundTrip.UnmarshalText([]byte(mode.String())); err != nil || roundTrip != mode {
			t.Errorf("mode %v did not survive text round trip", mode)
		}
	}
	if _, err := ParseMode("regex"); err == nil {
		t.Error("ParseMode accepted an unknown mode")
	}
}

// Scores should prefer matches at the start, at word boundaries and in runs.
func TestFuzzyScores(t *testing.T) {
	testCases := []struct {
		pattern     string
		better      string
		worse       string
		description string
	}{
		{"get", "getattr", "__getattribute__", "leading match beats buried match"},
		{"ga", "get_attr", "getxattr", "separator bonus"},
		{"gA", "getAttr", "getxattr", "camel case bonus"},
		{"abc", "abc", "abcdef", "shorter word wins ties"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			better, ok := FuzzyMatch(tc.pattern, tc.better)
			if !ok {
				t.Fatalf("%q did not match %q", tc.pattern, tc.better)
			}
			worse, ok := FuzzyMatch(tc.pattern, tc.worse)
			if !ok {
				t.Fatalf("%q did not match %q", tc.pattern, tc.worse)
			}
			if better.Score <= worse.Score {
				t.Errorf("expected %q (%d) to score above %q (%d)", tc.better, better.Score, tc.worse, worse.Score)
			}
		})
	}

	m, ok := FuzzyMatch("gat", "getattr")
	if !ok {
		t.Fatal("expected a match")
	}
	if diff := cmp.Diff([]int{0, 3, 4}, m.MatchedIndexes); diff != "" {
		t.Errorf("matched indexes (-want +got):\n%s", diff)
	}
}

func TestSearchTrie(t *testing.T) {
	trie := patricia.NewTrie()
	for _, name := range []string{"os", "os.path", "operator", "sys", "optparse"} {
		trie.Insert(patricia.Prefix(name), struct{}{})
	}

	if diff := cmp.Diff([]string{"operator", "optparse", "os", "os.path"}, SearchTrie(trie, "o")); diff != "" {
		t.Errorf("SearchTrie (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"os", "os.path"}, SearchTrie(trie, "os")); diff != "" {
		t.Errorf("SearchTrie exact (-want +got):\n%s", diff)
	}
	if got := SearchTrie(nil, "o"); len(got) != 0 {
		t.Errorf("SearchTrie(nil) = %v", got)
	}
	if diff := cmp.Diff([]string{"os.path"}, FilterTrie(trie, Substring, "s.p")); diff != "" {
		t.Errorf("FilterTrie substring (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"operator", "optparse", "os.path"}, FilterTrie(trie, Fuzzy, "op")); diff != "" {
		t.Errorf("FilterTrie fuzzy (-want +got):\n%s", diff)
	}
}
