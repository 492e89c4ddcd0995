package cache

import (
	"encoding/json"
	"sort"
)

// QueryKey builds the cache key for a query string. The key is namespace
// followed by the JSON form of params; encoding/json writes map keys in sorted
// order, so two requests that differ only in parameter order share a key.
// Values of the params named in unordered are sorted as well.
func QueryKey(namespace string, params map[string][]string, unordered ...string) string {
	canonical := make(map[string][]string, len(params))
	for name, values := range params {
		vals := append([]string(nil), values...)
		if contains(unordered, name) {
			sort.Strings(vals)
		}
		canonical[name] = vals
	}

	raw, err := json.Marshal(canonical)
	if err != nil {
		// map[string][]string always marshals
		return namespace
	}
	return namespace + string(raw)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
