package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wiseoldpea/events-bot/internal/domain"
)

var (
	ErrEventNotActive      = errors.New("event is not active")
	ErrAlreadyJoined       = errors.New("user already joined")
	ErrNotJoined           = errors.New("user has not joined the event")
	ErrChallengeFinished   = errors.New("challenge already finished")
	ErrChallengeNotStarted = errors.New("challenge not started")
	ErrAnotherEventActive  = errors.New("another event is already active")
)

// ConflictError reports a StartChallenge attempt while another challenge
// is still running, carrying the blocker's name for the user message.
type ConflictError struct {
	ActiveChallenge string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("challenge %q is already active", e.ActiveChallenge)
}

// CreateEvent registers a new event in the created state. Activation is
// a separate step so admins can stage an event before the start.
func (s *Store) CreateEvent(name, creatorID, guildID, channelID string, duration, releaseInterval time.Duration) *domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := &domain.Event{
		ID:              uuid.NewString(),
		Name:            name,
		CreatorID:       creatorID,
		GuildID:         guildID,
		ChannelID:       channelID,
		Duration:        duration,
		ReleaseInterval: releaseInterval,
		Status:          domain.EventCreated,
		Users:           map[string]*domain.UserEventState{},
	}
	s.events[ev.ID] = ev
	s.save()
	return ev.Clone()
}

func (s *Store) Event(id string) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ev.Clone(), nil
}

// Events returns a snapshot of every known event.
func (s *Store) Events() []*domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Event, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Clone())
	}
	return out
}

// ActiveEvent returns the single running (active or paused) event, or
// ErrNotFound when none is.
func (s *Store) ActiveEvent() (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev := s.activeEventLocked(); ev != nil {
		return ev.Clone(), nil
	}
	return nil, ErrNotFound
}

func (s *Store) activeEventLocked() *domain.Event {
	for _, ev := range s.events {
		if ev.Status == domain.EventActive || ev.Status == domain.EventPaused {
			return ev
		}
	}
	return nil
}

// ActivateEvent transitions a created event to active and stamps its
// start and end times. Only one event may run at a time; activating
// while another is active or paused fails.
func (s *Store) ActivateEvent(id string, now time.Time) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	if running := s.activeEventLocked(); running != nil && running.ID != id {
		return nil, ErrAnotherEventActive
	}
	if ev.Status != domain.EventCreated {
		return nil, fmt.Errorf("event %q is %s, not created", ev.Name, ev.Status)
	}

	ev.Status = domain.EventActive
	ev.StartTime = now
	if ev.Duration > 0 {
		ev.EndTime = now.Add(ev.Duration)
	}
	ev.LastRelease = time.Time{}
	s.save()
	return ev.Clone(), nil
}

func (s *Store) PauseEvent(id string) (*domain.Event, error) {
	return s.setStatus(id, domain.EventActive, domain.EventPaused)
}

func (s *Store) ResumeEvent(id string) (*domain.Event, error) {
	return s.setStatus(id, domain.EventPaused, domain.EventActive)
}

func (s *Store) CompleteEvent(id string) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	ev.Status = domain.EventCompleted
	s.save()
	return ev.Clone(), nil
}

func (s *Store) setStatus(id string, from, to domain.EventStatus) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	if ev.Status != from {
		return nil, fmt.Errorf("event %q is %s, not %s", ev.Name, ev.Status, from)
	}
	ev.Status = to
	s.save()
	return ev.Clone(), nil
}

// NextRelease advances the release cursor by one, persisting the new
// index before the caller announces anything. Announcing after the
// increment means a crash mid-release skips an announcement rather than
// repeating one. done reports that the cursor has passed the last
// challenge; the flag is recorded so the check stops firing.
func (s *Store) NextRelease(id string, catalogLen int, now time.Time) (index int, done bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[id]
	if !ok {
		return 0, false, ErrNotFound
	}
	if ev.Status != domain.EventActive {
		return 0, false, ErrEventNotActive
	}
	if ev.AllChallengesReleased {
		return ev.CurrentChallengeIndex, true, nil
	}

	index = ev.CurrentChallengeIndex
	ev.CurrentChallengeIndex++
	ev.LastRelease = now
	if ev.CurrentChallengeIndex >= catalogLen {
		ev.AllChallengesReleased = true
	}
	s.save()
	return index, false, nil
}

// JoinEvent enrols a user in the event. Joining twice is an error so the
// caller can tell the user.
func (s *Store) JoinEvent(eventID, userID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[eventID]
	if !ok {
		return ErrNotFound
	}
	if ev.Status != domain.EventActive {
		return ErrEventNotActive
	}
	if _, joined := ev.Users[userID]; joined {
		return ErrAlreadyJoined
	}
	ev.Users[userID] = &domain.UserEventState{
		JoinedAt:   now,
		Challenges: map[string]*domain.UserChallengeState{},
	}
	s.save()
	return nil
}

func (s *Store) IsUserInEvent(eventID, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[eventID]
	if !ok {
		return false
	}
	_, joined := ev.Users[userID]
	return joined
}

// StartChallenge is the check-and-set behind the one-active-challenge
// rule: the check of ActiveChallenge and the assignment happen under the
// same lock acquisition, so two racing start commands cannot both win.
func (s *Store) StartChallenge(eventID, userID, name string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.userLocked(eventID, userID)
	if err != nil {
		return err
	}
	// A finished challenge stays finished no matter what else the user
	// has running, so that check comes before the conflict check.
	if cs, ok := user.Challenges[name]; ok {
		switch cs.Status {
		case domain.ChallengeFinished:
			return ErrChallengeFinished
		case domain.ChallengeActive:
			return &ConflictError{ActiveChallenge: name}
		}
	}
	if user.ActiveChallenge != "" && user.ActiveChallenge != name {
		return &ConflictError{ActiveChallenge: user.ActiveChallenge}
	}

	cs := user.Challenge(name)

	start := now
	cs.Status = domain.ChallengeActive
	cs.StartTime = &start
	user.ActiveChallenge = name
	s.save()
	return nil
}

// UpdateChallenge applies fn to a user's challenge state and persists
// the result. fn runs under the store lock and must not call back in.
func (s *Store) UpdateChallenge(eventID, userID, name string, fn func(*domain.UserChallengeState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.userLocked(eventID, userID)
	if err != nil {
		return err
	}
	fn(user.Challenge(name))
	s.save()
	return nil
}

// FinishChallenge closes out a challenge at finish, which may lie in the
// past when a timeout check backdates the finish to start+limit. The
// recorded duration always comes from the stored timestamps.
func (s *Store) FinishChallenge(eventID, userID, name string, finish time.Time, timedOut bool) (*domain.UserChallengeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.userLocked(eventID, userID)
	if err != nil {
		return nil, err
	}
	cs := user.Challenge(name)
	if cs.Status == domain.ChallengeFinished {
		return nil, ErrChallengeFinished
	}
	if cs.Status != domain.ChallengeActive {
		return nil, ErrChallengeNotStarted
	}

	end := finish
	cs.Status = domain.ChallengeFinished
	cs.FinishTime = &end
	cs.TimedOut = timedOut
	if cs.StartTime != nil {
		cs.DurationSeconds = end.Sub(*cs.StartTime).Seconds()
	}
	if user.ActiveChallenge == name {
		user.ActiveChallenge = ""
	}
	s.save()
	return cs.Clone(), nil
}

func (s *Store) ActiveChallengeName(eventID, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.userLocked(eventID, userID)
	if err != nil {
		return "", err
	}
	return user.ActiveChallenge, nil
}

func (s *Store) ChallengeState(eventID, userID, name string) (*domain.UserChallengeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.userLocked(eventID, userID)
	if err != nil {
		return nil, err
	}
	cs, ok := user.Challenges[name]
	if !ok {
		return nil, ErrNotFound
	}
	return cs.Clone(), nil
}

func (s *Store) UserState(eventID, userID string) (*domain.UserEventState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.userLocked(eventID, userID)
	if err != nil {
		return nil, err
	}
	return user.Clone(), nil
}

// SetStage is the admin override: force a user's challenge to a given
// stage regardless of its current one.
func (s *Store) SetStage(eventID, userID, name, stage string, now time.Time) error {
	return s.UpdateChallenge(eventID, userID, name, func(cs *domain.UserChallengeState) {
		cs.Stage = stage
		t := now
		cs.LastStageAdvance = &t
	})
}

// ResetChallenge wipes a user's attempt so they can start over.
func (s *Store) ResetChallenge(eventID, userID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.userLocked(eventID, userID)
	if err != nil {
		return err
	}
	if user.ActiveChallenge == name {
		user.ActiveChallenge = ""
	}
	delete(user.Challenges, name)
	s.save()
	return nil
}

func (s *Store) userLocked(eventID, userID string) (*domain.UserEventState, error) {
	ev, ok := s.events[eventID]
	if !ok {
		return nil, ErrNotFound
	}
	user, ok := ev.Users[userID]
	if !ok {
		return nil, ErrNotJoined
	}
	return user, nil
}
