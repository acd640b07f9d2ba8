package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, Normalize("scape smarts"), Normalize("Scape Smarts!"))
	assert.Equal(t, "fire cape", Normalize("  Fire Cape. "))

	// Idempotent: normalizing twice changes nothing.
	once := Normalize("What?! A 'weird' input...")
	assert.Equal(t, once, Normalize(once))
	assert.Equal(t, "", Normalize("!!!"))
}

func TestParseListInput(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, ParseListInput("a, b,\nc"))
	assert.Nil(t, ParseListInput("  ,\n "))
}

func TestExtractLetters(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ExtractLetters("A. and b"))
	assert.Equal(t, []string{"c"}, ExtractLetters("c, C., c"))
	assert.Nil(t, ExtractLetters("abyssal whip"))
}

func TestExactMatch(t *testing.T) {
	ok, _ := Validate("Scape Smarts!", "scape smarts", ExactMatch, Context{})
	assert.True(t, ok)

	ok, _ = Validate("wrong", "scape smarts", ExactMatch, Context{})
	assert.False(t, ok)

	// Bare-letter leniency against the stringified answer.
	ok, _ = Validate("a.", "A. Zulrah", ExactMatch, Context{})
	assert.True(t, ok)
}

func TestMultipleChoice(t *testing.T) {
	options := []string{"Zulrah", "Vorkath", "Hydra"}

	ok, _ := Validate("vorkath", "Vorkath", MultipleChoice, Context{Options: options})
	assert.True(t, ok)

	ok, _ = Validate("b", "Vorkath", MultipleChoice, Context{Options: options})
	assert.True(t, ok)

	ok, _ = Validate("c.", "Vorkath", MultipleChoice, Context{Options: options})
	assert.False(t, ok)
}

func TestListExactWithLetters(t *testing.T) {
	expected := []any{"fire cape", "infernal cape"}
	options := []string{"Fire cape", "Infernal cape", "Void knight top"}

	ok, _ := Validate("a, b", expected, ListExact, Context{Options: options})
	assert.True(t, ok)

	ok, feedback := Validate("a", expected, ListExact, Context{Options: options})
	assert.False(t, ok)
	assert.Equal(t, "Missing: infernal cape", feedback)

	ok, feedback = Validate("z", expected, ListExact, Context{Options: options})
	assert.False(t, ok)
	assert.Equal(t, "Invalid option letter: Z", feedback)
}

func TestListExactWithText(t *testing.T) {
	expected := []any{"bones", "big bones"}

	ok, _ := Validate("Big Bones, bones", expected, ListAllRequired, Context{})
	assert.True(t, ok)

	ok, feedback := Validate("bones, dragon bones", expected, ListExact, Context{})
	assert.False(t, ok)
	assert.Equal(t, "Missing: big bones | Extra: dragon bones", feedback)
}

func TestListAnyCount(t *testing.T) {
	expected := []any{"guthans", "dharoks", "veracs", "karils"}

	ok, feedback := Validate("guthans, dharoks", expected, ListAnyCount, Context{MinCount: 2})
	assert.True(t, ok)
	assert.Equal(t, "You provided 2 correct answers!", feedback)

	ok, feedback = Validate("guthans", expected, ListAnyCount, Context{MinCount: 2})
	assert.False(t, ok)
	assert.Contains(t, feedback, "Need at least 2 correct answers (you had 1)")

	// Any invalid item fails even with enough valid ones.
	ok, feedback = Validate("guthans, dharoks, rune", expected, ListAnyCount, Context{MinCount: 2})
	assert.False(t, ok)
	assert.Contains(t, feedback, "Invalid answers: rune")
}

func TestDictionaryMatch(t *testing.T) {
	expected := map[string]any{"cities": "varrock", "towns": "lumbridge"}

	ok, _ := Validate("Lumbridge, Varrock", expected, DictionaryMatch, Context{})
	assert.True(t, ok)

	ok, feedback := Validate("varrock", expected, DictionaryMatch, Context{})
	assert.False(t, ok)
	assert.Equal(t, "Missing: lumbridge", feedback)
}

func TestOrderedList(t *testing.T) {
	ok, _ := Validate("d, c, b, a", "D, C, B, A", OrderedList, Context{})
	assert.True(t, ok)

	ok, _ = Validate("D. C. B. A.", "D, C, B, A", OrderedList, Context{})
	assert.True(t, ok)

	ok, feedback := Validate("a, b, c, d", "D, C, B, A", OrderedList, Context{})
	assert.False(t, ok)
	assert.Equal(t, "Expected order: D, C, B, A", feedback)
}

func TestMultipleAcceptable(t *testing.T) {
	expected := []any{"Karamja", "Crandor"}

	ok, _ := Validate("crandor!", expected, MultipleAcceptable, Context{})
	assert.True(t, ok)

	ok, _ = Validate("entrana", expected, MultipleAcceptable, Context{})
	assert.False(t, ok)
}

func TestGearSetup(t *testing.T) {
	expected := map[string]any{"weapon": []any{"sang", "sanguinesti staff"}}

	ok, _ := Validate("bringing my sanguinesti staff and blessed vestments", expected, GearSetup, Context{})
	assert.True(t, ok)

	ok, feedback := Validate("just a whip", expected, GearSetup, Context{})
	assert.False(t, ok)
	assert.Equal(t, "Missing: weapon: sang or sanguinesti staff", feedback)

	multi := map[string]any{
		"weapon": "scythe",
		"helm":   []any{"serp helm", "serpentine helmet"},
	}
	ok, feedback = Validate("scythe of vitur", multi, GearSetup, Context{})
	assert.False(t, ok)
	assert.Equal(t, "Found: weapon: scythe | Missing: helm: serp helm or serpentine helmet", feedback)
}

func TestLegacyFallback(t *testing.T) {
	ok, _ := Validate("saradomin", []any{"Saradomin", "Zamorak"}, "", Context{})
	assert.True(t, ok)

	ok, _ = Validate("falador", map[string]any{"q1": "Falador"}, "", Context{})
	assert.True(t, ok)

	ok, _ = Validate("42", float64(42), "", Context{})
	assert.True(t, ok)

	ok, _ = Validate("b.", "B. Falador", "", Context{})
	assert.True(t, ok)

	ok, _ = Validate("nope", "yes", "", Context{})
	assert.False(t, ok)
}

func TestFormatAnswer(t *testing.T) {
	assert.Equal(t, "Any 2 from: a, b", FormatAnswer([]any{"a", "b"}, ListAnyCount))
	assert.Equal(t, "x: 1, y: 2", FormatAnswer(map[string]any{"y": "2", "x": "1"}, DictionaryMatch))
	assert.Equal(t, "weapon: sang or scythe", FormatAnswer(map[string]any{"weapon": []any{"sang", "scythe"}}, GearSetup))
	assert.Equal(t, "a, b", FormatAnswer([]any{"a", "b"}, ExactMatch))
	assert.Equal(t, "42", FormatAnswer(float64(42), ExactMatch))
}
