package cache

import "strings"

// normalizeKey collapses whitespace so equivalent addresses share a row.
func normalizeKey(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// uniqueKeys normalizes keys and drops blanks and repeats, keeping order.
func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = normalizeKey(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
