package validate

import (
	"fmt"
	"sort"
	"strings"
)

// Strategy names as they appear in the challenge catalog.
const (
	ExactMatch         = "exact_match"
	MultipleChoice     = "multiple_choice"
	ListExact          = "list_exact"
	ListAllRequired    = "list_all_required"
	ListAnyCount       = "list_any_count"
	DictionaryMatch    = "dictionary_match"
	OrderedList        = "ordered_list"
	MultipleAcceptable = "multiple_acceptable"
	GearSetup          = "gear_setup"
)

// Context carries the per-question data some strategies need: the
// lettered option list and the minimum-correct threshold.
type Context struct {
	Options  []string
	MinCount int
}

// Validate checks a user answer against the expected answer under the
// named strategy. Expected values come straight out of the JSON catalog,
// so they arrive as string, []any or map[string]any. The feedback string
// is user-facing and empty when there is nothing useful to say.
func Validate(userInput string, expected any, strategy string, qctx Context) (bool, string) {
	input := strings.TrimSpace(userInput)

	switch strategy {
	case ExactMatch:
		return validateExact(input, expected)
	case MultipleChoice:
		return validateMultipleChoice(input, asString(expected), qctx.Options)
	case ListExact, ListAllRequired:
		return validateListExact(input, asStringList(expected), qctx.Options)
	case ListAnyCount:
		min := qctx.MinCount
		if min <= 0 {
			min = 3
		}
		return validateListAnyCount(input, asStringList(expected), min)
	case DictionaryMatch:
		return validateDictionary(input, asStringMap(expected))
	case OrderedList:
		return validateOrdered(input, asString(expected))
	case MultipleAcceptable:
		return validateMultipleAcceptable(input, asStringList(expected))
	case GearSetup:
		return validateGearSetup(input, asSlotMap(expected))
	default:
		return validateLegacy(input, expected)
	}
}

func validateExact(input string, expected any) (bool, string) {
	want := asString(expected)
	// Legacy leniency: a bare "a" or "a." passes when that letter shows
	// up anywhere in the stringified answer ("A. 42" style keys).
	if isBareLetter(input) &&
		strings.Contains(strings.ToLower(want), strings.ToLower(input[:1])) {
		return true, ""
	}
	return Normalize(input) == Normalize(want), ""
}

func validateMultipleChoice(input, expected string, options []string) (bool, string) {
	if Normalize(input) == Normalize(expected) {
		return true, ""
	}
	if isBareLetter(input) && len(options) > 0 {
		idx := int(strings.ToLower(input)[0] - 'a')
		if idx >= 0 && idx < len(options) && Normalize(options[idx]) == Normalize(expected) {
			return true, ""
		}
	}
	return false, ""
}

func validateListExact(input string, expected, options []string) (bool, string) {
	letters := ExtractLetters(input)

	var got []string
	if len(letters) > 0 && len(options) > 0 {
		for _, l := range letters {
			idx := int(l[0] - 'a')
			if idx < 0 || idx >= len(options) {
				return false, fmt.Sprintf("Invalid option letter: %s", strings.ToUpper(l))
			}
			got = append(got, Normalize(options[idx]))
		}
	} else {
		for _, item := range ParseListInput(input) {
			got = append(got, Normalize(item))
		}
	}

	want := normalizeSet(expected)
	missing, extra := diffSets(want, toSet(got))
	if len(missing) == 0 && len(extra) == 0 {
		return true, ""
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "Missing: "+strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		parts = append(parts, "Extra: "+strings.Join(extra, ", "))
	}
	return false, strings.Join(parts, " | ")
}

func validateListAnyCount(input string, expected []string, minCount int) (bool, string) {
	got := toSet(normalizedItems(ParseListInput(input)))
	want := normalizeSet(expected)

	valid, invalid := 0, []string{}
	for item := range got {
		if want[item] {
			valid++
		} else {
			invalid = append(invalid, item)
		}
	}
	sort.Strings(invalid)

	if valid >= minCount && len(invalid) == 0 {
		return true, fmt.Sprintf("You provided %d correct answers!", valid)
	}

	var parts []string
	if valid < minCount {
		parts = append(parts, fmt.Sprintf("Need at least %d correct answers (you had %d)", minCount, valid))
	}
	if len(invalid) > 0 {
		parts = append(parts, "Invalid answers: "+strings.Join(invalid, ", "))
	}
	return false, strings.Join(parts, " | ")
}

// validateDictionary requires the exact set of the mapping's values; the
// keys are display labels only.
func validateDictionary(input string, expected map[string]string) (bool, string) {
	values := make([]string, 0, len(expected))
	for _, v := range expected {
		values = append(values, v)
	}

	got := toSet(normalizedItems(ParseListInput(input)))
	want := normalizeSet(values)
	missing, extra := diffSets(want, got)
	if len(missing) == 0 && len(extra) == 0 {
		return true, ""
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "Missing: "+strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		parts = append(parts, "Extra: "+strings.Join(extra, ", "))
	}
	return false, strings.Join(parts, " | ")
}

func validateOrdered(input, expected string) (bool, string) {
	if Normalize(input) == Normalize(expected) {
		return true, ""
	}
	got := letterSequence(input)
	want := letterSequence(expected)
	if len(got) == len(want) && len(want) > 0 {
		same := true
		for i := range want {
			if got[i] != want[i] {
				same = false
				break
			}
		}
		if same {
			return true, ""
		}
	}
	return false, "Expected order: " + expected
}

func validateMultipleAcceptable(input string, expected []string) (bool, string) {
	in := Normalize(input)
	for _, acceptable := range expected {
		if in == Normalize(acceptable) {
			return true, ""
		}
	}
	return false, ""
}

// validateGearSetup searches the whole input for each slot's acceptable
// items; the gear can appear in any order and any phrasing.
func validateGearSetup(input string, expected map[string][]string) (bool, string) {
	haystack := Normalize(input)

	var found, missing []string
	for _, slot := range sortedKeys(expected) {
		hit := ""
		for _, item := range expected[slot] {
			if strings.Contains(haystack, Normalize(item)) {
				hit = item
				break
			}
		}
		if hit != "" {
			found = append(found, slot+": "+hit)
		} else {
			missing = append(missing, slot+": "+strings.Join(expected[slot], " or "))
		}
	}

	if len(missing) == 0 {
		return true, ""
	}
	var parts []string
	if len(found) > 0 {
		parts = append(parts, "Found: "+strings.Join(found, ", "))
	}
	parts = append(parts, "Missing: "+strings.Join(missing, ", "))
	return false, strings.Join(parts, " | ")
}

// validateLegacy handles untyped answers from old catalog entries: list
// membership, then dict-value membership, then plain equality with the
// bare-letter leniency.
func validateLegacy(input string, expected any) (bool, string) {
	in := Normalize(input)
	switch v := expected.(type) {
	case []any:
		for _, item := range v {
			if in == Normalize(asString(item)) {
				return true, ""
			}
		}
	case map[string]any:
		for _, val := range v {
			if in == Normalize(asString(val)) {
				return true, ""
			}
		}
	default:
		want := asString(expected)
		if in == Normalize(want) {
			return true, ""
		}
		if isBareLetter(input) &&
			strings.Contains(strings.ToLower(want), strings.ToLower(input[:1])) {
			return true, ""
		}
	}
	return false, ""
}

// FormatAnswer renders the expected answer for the "here's what it was"
// line sent after every trivia response.
func FormatAnswer(expected any, strategy string) string {
	switch strategy {
	case ListAnyCount:
		items := asStringList(expected)
		return fmt.Sprintf("Any %d from: %s", len(items), strings.Join(items, ", "))
	case DictionaryMatch:
		m := asStringMap(expected)
		var parts []string
		for _, k := range sortedKeys2(m) {
			parts = append(parts, k+": "+m[k])
		}
		return strings.Join(parts, ", ")
	case GearSetup:
		m := asSlotMap(expected)
		var lines []string
		for _, slot := range sortedKeys(m) {
			lines = append(lines, slot+": "+strings.Join(m[slot], " or "))
		}
		return strings.Join(lines, "\n")
	}
	if list, ok := expected.([]any); ok {
		return strings.Join(asStringListFrom(list), ", ")
	}
	return asString(expected)
}
