package matching

import (
	"slices"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// SearchTrie returns every key of trie starting with prefix, the prefix
// itself included, in lexicographic order.
func SearchTrie(trie *patricia.Trie, prefix string) []string {
	if trie == nil {
		return []string{}
	}

	var keys []string

	err := trie.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, _ patricia.Item) error {
		keys = append(keys, string(p))
		return nil
	})

	if err != nil {
		log.Errorf("Error visiting trie subtree: %v", err)
	}

	slices.Sort(keys)
	return keys
}

// FilterTrie is SearchTrie for Simple mode and a full scan filtered by
// mode otherwise.
func FilterTrie(trie *patricia.Trie, mode Mode, text string) []string {
	if mode == Simple {
		return SearchTrie(trie, text)
	}
	return mode.Filter(SearchTrie(trie, ""), text)
}
