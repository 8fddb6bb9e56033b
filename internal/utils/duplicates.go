package utils

import "strings"

// RemoveDuplicates returns items without repeats, keeping the first
// occurrence of each
func RemoveDuplicates(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// RemoveEmpty drops blank entries
func RemoveEmpty(items []string) []string {
	out := items[:0:0]
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			out = append(out, item)
		}
	}
	return out
}
