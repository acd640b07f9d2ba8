package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type ChallengeStatus string

const (
	ChallengeNotStarted ChallengeStatus = "not_started"
	ChallengeActive     ChallengeStatus = "active"
	ChallengeFinished   ChallengeStatus = "finished"
)

// UserChallengeState tracks one user's attempt at one challenge.
// Stage encoding is handler-specific: a 1-based counter for trivia and
// speed runs, "location.clue" for the location hunt (see LocationStage).
type UserChallengeState struct {
	Status           ChallengeStatus         `json:"status"`
	StartTime        *time.Time              `json:"start_time,omitempty"`
	FinishTime       *time.Time              `json:"finish_time,omitempty"`
	DurationSeconds  float64                 `json:"duration_seconds,omitempty"`
	Stage            string                  `json:"stage,omitempty"`
	Evidence         []EvidenceItem          `json:"evidence"`
	Answers          map[string]AnswerRecord `json:"answers,omitempty"`
	TimedOut         bool                    `json:"timed_out,omitempty"`
	LastStageAdvance *time.Time              `json:"last_stage_advance,omitempty"`
}

// CorrectAnswers counts validated trivia answers; used for score sheets.
func (cs *UserChallengeState) CorrectAnswers() int {
	n := 0
	for _, a := range cs.Answers {
		if a.Correct {
			n++
		}
	}
	return n
}

type EvidenceType string

const (
	EvidenceAttachment EvidenceType = "attachment"
	EvidenceURL        EvidenceType = "url"
	EvidenceText       EvidenceType = "text"
)

// EvidenceItem is one piece of submitted proof. The list on a challenge
// state is append-only.
type EvidenceItem struct {
	Type        EvidenceType `json:"type"`
	Payload     string       `json:"payload"`
	Filename    string       `json:"filename,omitempty"`
	Stage       string       `json:"stage,omitempty"`
	SubmittedAt time.Time    `json:"submitted_at"`
}

// AnswerRecord is one submitted trivia answer, keyed by stage.
type AnswerRecord struct {
	Answer      string    `json:"answer"`
	Correct     bool      `json:"correct"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// LocationStage is the structured form of the location hunt's dotted
// "location.clue" stage string. Both parts are 1-based. All hunt logic
// works on this type; the string form exists only at the persistence
// boundary.
type LocationStage struct {
	Location int
	Clue     int
}

func ParseLocationStage(s string) (LocationStage, error) {
	loc, clue, ok := strings.Cut(s, ".")
	if !ok {
		return LocationStage{}, fmt.Errorf("bad location stage %q", s)
	}
	l, err := strconv.Atoi(loc)
	if err != nil {
		return LocationStage{}, fmt.Errorf("bad location stage %q", s)
	}
	c, err := strconv.Atoi(clue)
	if err != nil {
		return LocationStage{}, fmt.Errorf("bad location stage %q", s)
	}
	return LocationStage{Location: l, Clue: c}, nil
}

func (ls LocationStage) String() string {
	return strconv.Itoa(ls.Location) + "." + strconv.Itoa(ls.Clue)
}

// NextLocation is the stage after evidence is accepted: clue 1 of the
// following location. NextClue stays within the current location.
func (ls LocationStage) NextLocation() LocationStage {
	return LocationStage{Location: ls.Location + 1, Clue: 1}
}

func (ls LocationStage) NextClue() LocationStage {
	return LocationStage{Location: ls.Location, Clue: ls.Clue + 1}
}
