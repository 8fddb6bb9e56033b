package importindex

import (
	"slices"
	"strings"

	"github.com/bastiangx/replserve/pkg/lineparts"
	"github.com/bastiangx/replserve/pkg/matching"
	"github.com/bastiangx/replserve/pkg/object"
)

// Complete returns the names that can replace the word under the cursor
// in an import statement, sorted and deduplicated.
// A nil result means the line is not an import statement. An empty,
// non-nil result means it is, but either nothing matched or the index has
// not been loaded yet.
func (ix *Index) Complete(cursorOffset int, line string) []string {
	if !isImportLine(line) {
		return nil
	}
	if _, ok := lineparts.CurrentWord(cursorOffset, line); !ok {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if !ix.ready {
		return []string{}
	}

	var matches []string
	if from, ok := lineparts.CurrentFromImportFrom(cursorOffset, line); ok {
		if name, ok := lineparts.CurrentFromImportImport(cursorOffset, line); ok {
			// from a import <b|>
			matches = ix.moduleMatchesLocked(name.Word, from.Word)
			matches = append(matches, ix.attrMatchesLocked(name.Word, from.Word, false)...)
		} else {
			// from <a|>
			matches = ix.attrMatchesLocked(from.Word, "", true)
			matches = append(matches, ix.moduleMatchesLocked(from.Word, "")...)
		}
	} else if name, ok := lineparts.CurrentImport(cursorOffset, line); ok {
		matches = ix.moduleMatchesLocked(name.Word, "")
		matches = append(matches, ix.attrMatchesLocked(name.Word, "", true)...)
	} else {
		return nil
	}

	slices.Sort(matches)
	matches = slices.Compact(matches)
	if matches == nil {
		return []string{}
	}
	return matches
}

func isImportLine(line string) bool {
	for _, tok := range strings.Fields(line) {
		if tok == "from" || tok == "import" {
			return true
		}
	}
	return false
}

// moduleMatchesLocked returns known modules starting with prefix.word that
// go no deeper than one dotted level, relative to prefix.
func (ix *Index) moduleMatchesLocked(word, prefix string) []string {
	full := word
	if prefix != "" {
		full = prefix + "." + word
	}
	var out []string
	for _, name := range matching.SearchTrie(ix.trie, full) {
		if strings.Contains(name[len(full):], ".") {
			continue
		}
		if prefix != "" {
			name = name[len(prefix)+1:]
		}
		out = append(out, name)
	}
	return out
}

// attrMatchesLocked completes attributes of an already loaded module. With
// onlyModules set, only attributes that are themselves loaded modules are
// returned.
func (ix *Index) attrMatchesLocked(word, prefix string, onlyModules bool) []string {
	full := word
	if prefix != "" {
		full = prefix + "." + word
	}
	modName, attr := "", full
	if i := strings.LastIndexByte(full, '.'); i >= 0 {
		modName, attr = full[:i], full[i+1:]
	}
	mod, ok := ix.loaded[modName]
	if !ok {
		return nil
	}

	var modulePart string
	if i := strings.LastIndexByte(word, '.'); i >= 0 {
		modulePart = word[:i]
	}

	var out []string
	for _, name := range object.Dir(mod) {
		if !strings.HasPrefix(name, attr) {
			continue
		}
		if onlyModules {
			if _, ok := ix.loaded[modName+"."+name]; !ok {
				continue
			}
		}
		if modulePart != "" {
			name = modulePart + "." + name
		}
		out = append(out, name)
	}
	return out
}
