package validate

import (
	"fmt"
	"sort"
	"strconv"
)

// Catalog answers arrive as whatever encoding/json produced; these
// helpers coerce them into the shapes the strategies want.

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func asStringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		return asStringListFrom(t)
	case string:
		return []string{t}
	default:
		return nil
	}
}

func asStringListFrom(list []any) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, asString(item))
	}
	return out
}

func asStringMap(v any) map[string]string {
	switch t := v.(type) {
	case map[string]string:
		return t
	case map[string]any:
		out := make(map[string]string, len(t))
		for k, val := range t {
			out[k] = asString(val)
		}
		return out
	default:
		return nil
	}
}

// asSlotMap coerces a gear_setup answer: each slot maps to either one
// item or a list of acceptable items.
func asSlotMap(v any) map[string][]string {
	switch t := v.(type) {
	case map[string][]string:
		return t
	case map[string]any:
		out := make(map[string][]string, len(t))
		for slot, val := range t {
			out[slot] = asStringList(val)
		}
		return out
	default:
		return nil
	}
}

func normalizedItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, Normalize(it))
	}
	return out
}

func normalizeSet(items []string) map[string]bool {
	return toSet(normalizedItems(items))
}

func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, it := range items {
		s[it] = true
	}
	return s
}

// diffSets returns want-got and got-want, sorted so feedback is stable.
func diffSets(want, got map[string]bool) (missing, extra []string) {
	for item := range want {
		if !got[item] {
			missing = append(missing, item)
		}
	}
	for item := range got {
		if !want[item] {
			extra = append(extra, item)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return missing, extra
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys2(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
