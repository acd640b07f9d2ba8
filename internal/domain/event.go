package domain

import "time"

type EventStatus string

const (
	EventCreated   EventStatus = "created"
	EventActive    EventStatus = "active"
	EventPaused    EventStatus = "paused"
	EventCompleted EventStatus = "completed"
)

// Event is one time-boxed competition. It owns every participant's
// per-challenge state for its duration.
type Event struct {
	ID                    string                     `json:"id"`
	Name                  string                     `json:"name"`
	CreatorID             string                     `json:"creator_id"`
	GuildID               string                     `json:"guild_id"`
	ChannelID             string                     `json:"channel_id"`
	StartTime             time.Time                  `json:"start_time"`
	EndTime               time.Time                  `json:"end_time"`
	Duration              time.Duration              `json:"duration"`
	ReleaseInterval       time.Duration              `json:"release_interval"`
	Status                EventStatus                `json:"status"`
	CurrentChallengeIndex int                        `json:"current_challenge_index"`
	LastRelease           time.Time                  `json:"last_release"`
	AllChallengesReleased bool                       `json:"all_challenges_released"`
	Users                 map[string]*UserEventState `json:"users"`
}

func (e *Event) Ended(now time.Time) bool {
	return !e.EndTime.IsZero() && !now.Before(e.EndTime)
}

// UserEventState is one participant's standing inside an event.
// ActiveChallenge points at the single challenge (by name) the user may
// have running at a time; it is a relation into Challenges, not a copy.
type UserEventState struct {
	JoinedAt        time.Time                      `json:"joined_at"`
	ActiveChallenge string                         `json:"active_challenge,omitempty"`
	Challenges      map[string]*UserChallengeState `json:"challenges"`
}

func (u *UserEventState) Challenge(name string) *UserChallengeState {
	if u.Challenges == nil {
		u.Challenges = map[string]*UserChallengeState{}
	}
	cs, ok := u.Challenges[name]
	if !ok {
		cs = &UserChallengeState{Status: ChallengeNotStarted, Evidence: []EvidenceItem{}}
		u.Challenges[name] = cs
	}
	return cs
}
