// Package catalog loads the challenge definitions file. Definitions are
// read once at startup; the bot never mutates them.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wiseoldpea/events-bot/internal/app/validate"
)

// Challenge types. Unknown types fall back to the race handler. The
// classic hunt is keyed by name rather than type (its file entry says
// "race"), but a "location_hunt" type works too.
const (
	TypeTrivia       = "trivia"
	TypeSpeedRun     = "speed_run"
	TypeRace         = "race"
	TypeLocationHunt = "location_hunt"
	LocationHuntName = "peas_place"
)

type Catalog struct {
	Challenges []*Challenge `json:"challenges"`
}

// Challenge is one definition from the rules file. Information is
// polymorphic per type: a question list for trivia, a stage map for
// speed runs, free-form text for races, and "location.clue" media keys
// for the hunt. It is decoded into the typed views at load time.
type Challenge struct {
	Name            string          `json:"name"`
	DisplayName     string          `json:"display_name"`
	Type            string          `json:"type"`
	Rules           string          `json:"rules"`
	DurationMinutes int             `json:"duration"`
	TitleCard       string          `json:"title_card,omitempty"`
	Reward          string          `json:"reward,omitempty"`
	Location        string          `json:"location,omitempty"`
	Skip            string          `json:"skip,omitempty"`
	Information     json.RawMessage `json:"information"`

	questions []Question
	stages    map[string]string
	items     []string
	media     map[string]string
}

// Question is one trivia entry. The answer keeps whatever JSON shape the
// file uses (string, list, or map); the validate package interprets it.
type Question struct {
	Number      string      `json:"number"`
	Text        string      `json:"q"`
	Answer      any         `json:"a"`
	Type        string      `json:"type"`
	Options     []string    `json:"o"`
	MinCount    int         `json:"min_count"`
	Explanation Explanation `json:"p"`
}

// Explanation accepts either a string or a list of strings.
type Explanation string

func (e *Explanation) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		*e = Explanation(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		*e = Explanation(strings.Join(list, "\n"))
		return nil
	}
	return fmt.Errorf("catalog: explanation must be string or list")
}

// Load reads and decodes the rules file. A bad file aborts startup: the
// bot is useless without its challenge definitions.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var c Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", path, err)
	}
	for _, ch := range c.Challenges {
		if err := ch.decodeInformation(); err != nil {
			return nil, fmt.Errorf("catalog: challenge %q: %w", ch.Name, err)
		}
	}
	return &c, nil
}

func (ch *Challenge) decodeInformation() error {
	if len(ch.Information) == 0 {
		return nil
	}
	if ch.Name == LocationHuntName {
		return ch.decodeMedia()
	}
	switch ch.Type {
	case TypeTrivia:
		return json.Unmarshal(ch.Information, &ch.questions)
	case TypeSpeedRun:
		return json.Unmarshal(ch.Information, &ch.stages)
	default:
		// Race information is a list of lines or a single blob.
		if err := json.Unmarshal(ch.Information, &ch.items); err == nil {
			return nil
		}
		var single string
		if err := json.Unmarshal(ch.Information, &single); err != nil {
			return fmt.Errorf("information must be a list or string")
		}
		ch.items = []string{single}
		return nil
	}
}

// decodeMedia flattens the hunt's list of {"loc.clue": url} objects into
// one lookup map.
func (ch *Challenge) decodeMedia() error {
	var objects []map[string]string
	if err := json.Unmarshal(ch.Information, &objects); err != nil {
		return fmt.Errorf("hunt information must be a list of media objects")
	}
	ch.media = map[string]string{}
	for _, obj := range objects {
		for key, url := range obj {
			ch.media[key] = url
		}
	}
	return nil
}

func (c *Catalog) Len() int { return len(c.Challenges) }

func (c *Catalog) ByIndex(i int) (*Challenge, bool) {
	if i < 0 || i >= len(c.Challenges) {
		return nil, false
	}
	return c.Challenges[i], true
}

// ByName finds a challenge by its name field, tolerant of the casing and
// punctuation users type ("Scape Smarts!" finds "scape smarts").
func (c *Catalog) ByName(name string) (*Challenge, bool) {
	want := validate.Normalize(name)
	for _, ch := range c.Challenges {
		if validate.Normalize(ch.Name) == want {
			return ch, true
		}
	}
	return nil, false
}

// Skippable reports whether the skip command works for this challenge.
func (ch *Challenge) Skippable() bool { return ch.Skip == "yes" }

// DMBased challenges run their whole interaction over DM; starting one
// gets a short pointer in the channel instead of a public embed.
func (ch *Challenge) DMBased() bool { return ch.Location == "DM" }

// TimeLimit is the per-user completion window; zero means untimed.
func (ch *Challenge) TimeLimit() time.Duration {
	return time.Duration(ch.DurationMinutes) * time.Minute
}

// Question finds a trivia question by its number field ("1", "2", ...).
func (ch *Challenge) Question(number string) (Question, bool) {
	for _, q := range ch.questions {
		if q.Number == number {
			return q, true
		}
	}
	return Question{}, false
}

func (ch *Challenge) QuestionCount() int { return len(ch.questions) }

// Stage returns the speed-run text for a 1-based stage number.
func (ch *Challenge) Stage(number string) (string, bool) {
	text, ok := ch.stages[number]
	return text, ok
}

// Items is the race information payload, one line per entry.
func (ch *Challenge) Items() []string { return ch.items }

// MediaURL resolves a hunt "location.clue" key to its image URL.
func (ch *Challenge) MediaURL(key string) (string, bool) {
	url, ok := ch.media[key]
	return url, ok
}

func (ch *Challenge) HasMedia(key string) bool {
	_, ok := ch.media[key]
	return ok
}
