package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wiseoldpea/events-bot/internal/app/validate"
	"github.com/wiseoldpea/events-bot/internal/domain"
	"github.com/wiseoldpea/events-bot/internal/infra/catalog"
	"github.com/wiseoldpea/events-bot/internal/infra/storage"
)

// EventService owns the event lifecycle: creation, activation, the
// release schedule, and the end-of-event sweep. The scheduler drives
// CheckEventTiming and CheckChallengeTimeouts every tick.
type EventService struct {
	store   *storage.Store
	catalog *catalog.Catalog
	gw      Gateway
	log     *slog.Logger
}

func NewEventService(store *storage.Store, cat *catalog.Catalog, gw Gateway, log *slog.Logger) *EventService {
	return &EventService{store: store, catalog: cat, gw: gw, log: log}
}

// Create registers a staged event. Durations are human-typed, like
// "7 days" and "1 day".
func (s *EventService) Create(name, creatorID, guildID, channelID, durationStr, intervalStr string) (string, error) {
	duration, err := validate.ParseHumanDuration(durationStr)
	if err != nil {
		return "❌ Invalid event duration. Use something like `7 days` or `2 weeks`.", nil
	}
	interval, err := validate.ParseHumanDuration(intervalStr)
	if err != nil {
		return "❌ Invalid release interval. Use something like `1 day` or `12 hours`.", nil
	}

	ev := s.store.CreateEvent(name, creatorID, guildID, channelID, duration, interval)
	s.log.Info("event created", "event_id", ev.ID, "name", name, "duration", duration, "interval", interval)
	return fmt.Sprintf("✅ Event **%s** created. Use `!start_event %s` to begin it.", name, name), nil
}

// StartEvent activates a staged event by name, posts the opening
// announcement, and releases the first challenge right away.
func (s *EventService) StartEvent(name string, now time.Time) (string, error) {
	ev, ok := s.findEventByName(name)
	if !ok {
		return fmt.Sprintf("❌ Event '%s' not found.", name), nil
	}

	ev, err := s.store.ActivateEvent(ev.ID, now)
	if errors.Is(err, storage.ErrAnotherEventActive) {
		return "❌ Another event is already running. Only one event can be active at a time.", nil
	}
	if err != nil {
		return "", err
	}

	s.log.Info("event started", "event_id", ev.ID, "name", ev.Name, "ends", ev.EndTime)
	announcement := Message{
		Title: fmt.Sprintf("🎉 Event Started: %s", ev.Name),
		Body: "A new event has begun! Challenges will be released over time.\n\n" +
			fmt.Sprintf("`!join %s` to participate.", ev.Name),
		Fields: []Field{
			{Name: "Ends", Value: ev.EndTime.UTC().Format("2006-01-02 15:04 UTC"), Inline: true},
			{Name: "Challenges", Value: fmt.Sprintf("%d", s.catalog.Len()), Inline: true},
		},
	}
	if err := s.gw.SendChannel(ev.ChannelID, announcement); err != nil {
		s.log.Error("send event announcement", "event_id", ev.ID, "err", err)
	}
	if _, err := s.ReleaseNext(ev.ID, now); err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Event **%s** is now active!", ev.Name), nil
}

func (s *EventService) PauseEvent(name string) (string, error) {
	ev, ok := s.findEventByName(name)
	if !ok {
		return fmt.Sprintf("❌ Event '%s' not found.", name), nil
	}
	if _, err := s.store.PauseEvent(ev.ID); err != nil {
		return fmt.Sprintf("❌ Cannot pause **%s**: it is not active.", ev.Name), nil
	}
	s.log.Info("event paused", "event_id", ev.ID)
	return fmt.Sprintf("⏸️ Event **%s** paused. Releases and timeouts are on hold.", ev.Name), nil
}

func (s *EventService) ResumeEvent(name string) (string, error) {
	ev, ok := s.findEventByName(name)
	if !ok {
		return fmt.Sprintf("❌ Event '%s' not found.", name), nil
	}
	if _, err := s.store.ResumeEvent(ev.ID); err != nil {
		return fmt.Sprintf("❌ Cannot resume **%s**: it is not paused.", ev.Name), nil
	}
	s.log.Info("event resumed", "event_id", ev.ID)
	return fmt.Sprintf("▶️ Event **%s** resumed.", ev.Name), nil
}

// ReleaseNext publishes the next unreleased challenge to the event
// channel. The release index is persisted before the announcement goes
// out, so a crash in between skips an announcement instead of repeating
// one on restart.
func (s *EventService) ReleaseNext(eventID string, now time.Time) (bool, error) {
	ev, err := s.store.Event(eventID)
	if err != nil {
		return false, err
	}

	index, done, err := s.store.NextRelease(eventID, s.catalog.Len(), now)
	if err != nil || done {
		return false, err
	}

	ch, ok := s.catalog.ByIndex(index)
	if !ok {
		return false, fmt.Errorf("release index %d out of range", index)
	}

	s.log.Info("challenge released", "event_id", eventID, "challenge", ch.Name, "index", index)

	msg := Message{
		Title:    fmt.Sprintf("🎯 New Challenge: %s", ch.DisplayName),
		Body:     ch.Rules,
		ImageURL: ch.TitleCard,
		Footer:   fmt.Sprintf("Event: %s", ev.Name),
		Fields: []Field{
			{Name: "Type", Value: titleCase(ch.Type), Inline: true},
		},
	}
	if limit := ch.TimeLimit(); limit > 0 {
		msg.Fields = append(msg.Fields, Field{Name: "Time Limit", Value: fmt.Sprintf("%d minutes", ch.DurationMinutes), Inline: true})
	}
	msg.Fields = append(msg.Fields, Field{
		Name: "How to Participate",
		Value: fmt.Sprintf("1. `!join %s` to join\n2. `!start %s` to begin\n3. `!finish %s` to complete\n4. `!evidence` to submit evidence",
			ch.Name, ch.Name, ch.Name),
	})
	if err := s.gw.SendChannel(ev.ChannelID, msg); err != nil {
		s.log.Error("send challenge announcement", "event_id", eventID, "challenge", ch.Name, "err", err)
	}
	return true, nil
}

// ForceRelease is the admin override for the release schedule.
func (s *EventService) ForceRelease(now time.Time) (string, error) {
	ev, err := s.store.ActiveEvent()
	if errors.Is(err, storage.ErrNotFound) {
		return "❌ No active event.", nil
	}
	if err != nil {
		return "", err
	}

	released, err := s.ReleaseNext(ev.ID, now)
	if err != nil {
		return "", err
	}
	if !released {
		return "ℹ️ All challenges have already been released.", nil
	}
	return "✅ Challenge released.", nil
}

// CheckEventTiming is the scheduler entrypoint for the release loop.
// End-of-event always wins over a pending release: an event past its end
// completes and nothing more goes out.
func (s *EventService) CheckEventTiming(now time.Time) error {
	ev, err := s.store.ActiveEvent()
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if ev.Status != domain.EventActive {
		return nil
	}

	if ev.Ended(now) {
		if _, err := s.store.CompleteEvent(ev.ID); err != nil {
			return err
		}
		s.log.Info("event ended", "event_id", ev.ID, "name", ev.Name)
		msg := Message{
			Title: fmt.Sprintf("🏁 Event Ended: %s", ev.Name),
			Body:  "Thanks for playing! Use `!my_scores` to review your results.",
		}
		if err := s.gw.SendChannel(ev.ChannelID, msg); err != nil {
			s.log.Error("send event end announcement", "event_id", ev.ID, "err", err)
		}
		return nil
	}

	if ev.AllChallengesReleased {
		return nil
	}
	if now.Sub(ev.LastRelease) >= ev.ReleaseInterval {
		_, err := s.ReleaseNext(ev.ID, now)
		return err
	}
	return nil
}

// CheckChallengeTimeouts closes out every running timed challenge whose
// window has passed. The finish is backdated to exactly start+limit, so
// a late tick never inflates the recorded duration.
func (s *EventService) CheckChallengeTimeouts(now time.Time) error {
	ev, err := s.store.ActiveEvent()
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if ev.Status != domain.EventActive {
		return nil
	}

	for userID, user := range ev.Users {
		for name, cs := range user.Challenges {
			if cs.Status != domain.ChallengeActive || cs.StartTime == nil {
				continue
			}
			ch, ok := s.catalog.ByName(name)
			if !ok {
				continue
			}
			limit := ch.TimeLimit()
			if limit <= 0 || now.Sub(*cs.StartTime) < limit {
				continue
			}

			deadline := cs.StartTime.Add(limit)
			if _, err := s.store.FinishChallenge(ev.ID, userID, name, deadline, true); err != nil {
				s.log.Error("finish timed out challenge", "event_id", ev.ID, "user_id", userID, "challenge", name, "err", err)
				continue
			}
			s.log.Info("challenge timed out", "event_id", ev.ID, "user_id", userID, "challenge", name)

			dm := Message{Text: fmt.Sprintf(
				"⏰ Time's up! **%s** has ended after %d minutes. Your attempt has been recorded.",
				ch.DisplayName, ch.DurationMinutes)}
			if err := s.gw.SendDM(userID, dm); err != nil {
				s.log.Warn("send timeout dm", "user_id", userID, "err", err)
			}
		}
	}
	return nil
}

// Status is the admin's event overview.
func (s *EventService) Status(now time.Time) (string, error) {
	ev, err := s.store.ActiveEvent()
	if errors.Is(err, storage.ErrNotFound) {
		return "❌ No active event.", nil
	}
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 **Event: %s** (%s)\n", ev.Name, ev.Status)
	fmt.Fprintf(&b, "Started: %s\n", ev.StartTime.UTC().Format("2006-01-02 15:04 UTC"))
	if !ev.EndTime.IsZero() {
		remaining := ev.EndTime.Sub(now)
		if remaining < 0 {
			remaining = 0
		}
		fmt.Fprintf(&b, "Ends: %s (%s remaining)\n", ev.EndTime.UTC().Format("2006-01-02 15:04 UTC"), FormatSeconds(remaining.Seconds()))
	}
	fmt.Fprintf(&b, "Challenges released: %d/%d\n", ev.CurrentChallengeIndex, s.catalog.Len())
	fmt.Fprintf(&b, "Participants: %d", len(ev.Users))
	return b.String(), nil
}

func (s *EventService) findEventByName(name string) (*domain.Event, bool) {
	want := validate.Normalize(name)
	var newest *domain.Event
	for _, ev := range s.store.Events() {
		if validate.Normalize(ev.Name) != want {
			continue
		}
		if newest == nil || ev.StartTime.After(newest.StartTime) {
			newest = ev
		}
	}
	return newest, newest != nil
}
