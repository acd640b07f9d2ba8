package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/wiseoldpea/events-bot/internal/domain"
	"github.com/wiseoldpea/events-bot/internal/infra/catalog"
	"github.com/wiseoldpea/events-bot/internal/infra/storage"
)

// ScoreService renders score sheets. Scores stay readable after an
// event completes; only the total absence of events is an error.
type ScoreService struct {
	store   *storage.Store
	catalog *catalog.Catalog
	log     *slog.Logger
}

func NewScoreService(store *storage.Store, cat *catalog.Catalog, log *slog.Logger) *ScoreService {
	return &ScoreService{store: store, catalog: cat, log: log}
}

// MyScores is the player's own sheet for the current (or most recent
// running) event.
func (s *ScoreService) MyScores(userID string) (Message, error) {
	acc, err := s.store.Account(userID)
	if errors.Is(err, storage.ErrNotFound) {
		return Message{Text: "❌ You must link your OSRS account first using `!link_account <username>`"}, nil
	}
	if err != nil {
		return Message{}, err
	}

	ev, err := s.store.ActiveEvent()
	if errors.Is(err, storage.ErrNotFound) {
		if ev = s.latestEvent(); ev == nil {
			return Message{Text: "❌ No recent event found."}, nil
		}
	} else if err != nil {
		return Message{}, err
	}

	user, ok := ev.Users[userID]
	if !ok {
		return Message{Text: "You haven't joined any recent events yet!"}, nil
	}

	msg := Message{Title: fmt.Sprintf("📊 Scores for %s", acc.OSRSUsername)}
	msg.Fields = s.challengeFields(user)
	if len(msg.Fields) == 0 {
		msg.Fields = []Field{{Name: "No Challenges", Value: "You haven't started any challenges yet!"}}
	}
	return msg, nil
}

// AdminScores shows one user in detail, or a per-user summary of the
// whole event when no target is given.
func (s *ScoreService) AdminScores(targetUsername string) (Message, error) {
	ev, err := s.store.ActiveEvent()
	if errors.Is(err, storage.ErrNotFound) {
		if ev = s.latestEvent(); ev == nil {
			return Message{Text: "❌ No recent event found."}, nil
		}
	} else if err != nil {
		return Message{}, err
	}

	if targetUsername != "" {
		userID, ok := s.store.FindUserByName(targetUsername)
		if !ok {
			return Message{Text: fmt.Sprintf("❌ User '%s' not found.", targetUsername)}, nil
		}
		user, ok := ev.Users[userID]
		if !ok {
			return Message{Text: fmt.Sprintf("❌ User '%s' hasn't joined the event.", targetUsername)}, nil
		}
		msg := Message{Title: fmt.Sprintf("🛡️ Scores for %s — %s", targetUsername, ev.Name)}
		msg.Fields = s.challengeFields(user)
		if len(msg.Fields) == 0 {
			msg.Fields = []Field{{Name: "No Challenges", Value: "No challenge activity yet."}}
		}
		return msg, nil
	}

	if len(ev.Users) == 0 {
		return Message{Text: "Nobody has joined the event yet."}, nil
	}

	names := make([]string, 0, len(ev.Users))
	byName := make(map[string]*domain.UserEventState, len(ev.Users))
	for userID, user := range ev.Users {
		name := s.store.DisplayName(userID)
		names = append(names, name)
		byName[name] = user
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		user := byName[name]
		finished, active, evidence := 0, 0, 0
		for _, cs := range user.Challenges {
			switch cs.Status {
			case domain.ChallengeFinished:
				finished++
			case domain.ChallengeActive:
				active++
			}
			evidence += len(cs.Evidence)
		}
		fmt.Fprintf(&b, "**%s** — ✅ %d finished | 🔄 %d active | 📸 %d evidence\n", name, finished, active, evidence)
	}
	return Message{
		Title: fmt.Sprintf("🛡️ Event Summary — %s", ev.Name),
		Body:  b.String(),
	}, nil
}

// challengeFields renders one field per challenge, in catalog order so
// sheets always read the same way.
func (s *ScoreService) challengeFields(user *domain.UserEventState) []Field {
	var fields []Field
	for _, ch := range s.catalog.Challenges {
		cs, ok := user.Challenges[ch.Name]
		if !ok {
			continue
		}
		var status string
		switch cs.Status {
		case domain.ChallengeFinished:
			status = fmt.Sprintf("✅ Completed (%s)", FormatSeconds(cs.DurationSeconds))
			if cs.TimedOut {
				status += " ⏰ timed out"
			}
			if score := cs.CorrectAnswers(); score > 0 {
				status += fmt.Sprintf(" | Correct: %d", score)
			}
		case domain.ChallengeActive:
			status = "🔄 In Progress"
		default:
			status = "⭕ Not Started"
		}
		if n := len(cs.Evidence); n > 0 {
			status += fmt.Sprintf(" | Evidence: %d", n)
		}
		fields = append(fields, Field{Name: ch.DisplayName, Value: status})
	}
	return fields
}

// latestEvent is the fallback when nothing is running: the most recently
// started event, so scores survive the event's end.
func (s *ScoreService) latestEvent() *domain.Event {
	var newest *domain.Event
	for _, ev := range s.store.Events() {
		if newest == nil || ev.StartTime.After(newest.StartTime) {
			newest = ev
		}
	}
	return newest
}
