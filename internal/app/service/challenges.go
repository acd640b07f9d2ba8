package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wiseoldpea/events-bot/internal/app/validate"
	"github.com/wiseoldpea/events-bot/internal/domain"
	"github.com/wiseoldpea/events-bot/internal/infra/catalog"
	"github.com/wiseoldpea/events-bot/internal/infra/storage"
)

// ChallengeService is the player-facing command surface: joining,
// starting, finishing, evidence, skipping, plus the DM routing that
// feeds active challenges.
type ChallengeService struct {
	store    *storage.Store
	catalog  *catalog.Catalog
	registry *HandlerRegistry
	gw       Gateway
	log      *slog.Logger
}

func NewChallengeService(store *storage.Store, cat *catalog.Catalog, registry *HandlerRegistry, gw Gateway, log *slog.Logger) *ChallengeService {
	return &ChallengeService{store: store, catalog: cat, registry: registry, gw: gw, log: log}
}

// Join enrols the user in the event (by event name) or in a specific
// challenge (auto-joining the event first).
func (s *ChallengeService) Join(userID, target string, now time.Time) (string, error) {
	if msg, ok := s.requireAccount(userID); !ok {
		return msg, nil
	}
	ev, failMsg := s.runningEvent(now)
	if ev == nil {
		return failMsg, nil
	}

	if validate.Normalize(target) == validate.Normalize(ev.Name) {
		err := s.store.JoinEvent(ev.ID, userID, now)
		if errors.Is(err, storage.ErrAlreadyJoined) {
			return fmt.Sprintf("ℹ️ You've already joined **%s**.", ev.Name), nil
		}
		if err != nil {
			return "", err
		}
		s.log.Info("user joined event", "event_id", ev.ID, "user_id", userID)
		return fmt.Sprintf("✅ Joined event: **%s**! You can now start challenges.", ev.Name), nil
	}

	ch, ok := s.catalog.ByName(target)
	if !ok {
		return fmt.Sprintf("❌ Challenge or event '%s' not found.", target), nil
	}

	if !s.store.IsUserInEvent(ev.ID, userID) {
		if err := s.store.JoinEvent(ev.ID, userID, now); err != nil {
			return "", err
		}
	}
	err := s.store.UpdateChallenge(ev.ID, userID, ch.Name, func(*domain.UserChallengeState) {})
	if err != nil {
		return "", err
	}
	s.log.Info("user joined challenge", "event_id", ev.ID, "user_id", userID, "challenge", ch.Name)
	return fmt.Sprintf("✅ Joined challenge: **%s**!", ch.DisplayName), nil
}

// Start begins the user's attempt and hands off to the type handler.
// The one-active-challenge rule is enforced by the store's check-and-set
// so concurrent starts cannot slip through.
func (s *ChallengeService) Start(userID, displayName, challengeName string, now time.Time) (Message, error) {
	if msg, ok := s.requireAccount(userID); !ok {
		return Message{Text: msg}, nil
	}
	ev, failMsg := s.runningEvent(now)
	if ev == nil {
		return Message{Text: failMsg}, nil
	}

	ch, ok := s.catalog.ByName(challengeName)
	if !ok {
		return Message{Text: fmt.Sprintf("❌ Challenge '%s' not found.", challengeName)}, nil
	}
	if !s.store.IsUserInEvent(ev.ID, userID) {
		return Message{Text: "❌ You must join the event first using `!join`"}, nil
	}

	err := s.store.StartChallenge(ev.ID, userID, ch.Name, now)
	var conflict *storage.ConflictError
	switch {
	case errors.As(err, &conflict):
		blocker := conflict.ActiveChallenge
		if blocked, ok := s.catalog.ByName(blocker); ok {
			blocker = blocked.DisplayName
		}
		if conflict.ActiveChallenge == ch.Name {
			return Message{Text: fmt.Sprintf("❌ You've already started '%s'. Use `!finish %s` to complete it.", ch.DisplayName, ch.Name)}, nil
		}
		return Message{Text: fmt.Sprintf("❌ You already have an active challenge: **%s**. Finish it first or contact an admin.", blocker)}, nil
	case errors.Is(err, storage.ErrChallengeFinished):
		return Message{Text: fmt.Sprintf("❌ You've already finished '%s'.", ch.DisplayName)}, nil
	case err != nil:
		return Message{}, err
	}

	s.log.Info("challenge started", "event_id", ev.ID, "user_id", userID, "challenge", ch.Name)

	suffix, err := s.registry.For(ch).Start(ev.ID, userID, ch, now)
	if err != nil {
		return Message{}, err
	}

	display := s.usernames(userID, displayName)

	if ch.DMBased() {
		return Message{Text: fmt.Sprintf("%s 🚀 Started **%s**! %s", display, ch.DisplayName, suffix)}, nil
	}

	msg := Message{
		Title:  fmt.Sprintf("%s 🚀 Started: %s", display, ch.DisplayName),
		Body:   ch.Rules,
		Footer: fmt.Sprintf("Started at %s", now.UTC().Format("15:04:05 UTC")),
		Fields: []Field{{Name: "Type", Value: titleCase(ch.Type), Inline: true}},
	}
	if ch.TimeLimit() > 0 {
		msg.Fields = append(msg.Fields, Field{Name: "Time Limit", Value: fmt.Sprintf("%d minutes", ch.DurationMinutes), Inline: true})
	}
	if suffix != "" {
		msg.Body += "\n\n" + suffix
	}
	return msg, nil
}

// Finish locks in the user's time.
func (s *ChallengeService) Finish(userID, challengeName string, now time.Time) (Message, error) {
	ev, failMsg := s.runningEvent(now)
	if ev == nil {
		return Message{Text: failMsg}, nil
	}
	ch, ok := s.catalog.ByName(challengeName)
	if !ok {
		return Message{Text: fmt.Sprintf("❌ Challenge '%s' not found.", challengeName)}, nil
	}

	cs, err := s.store.FinishChallenge(ev.ID, userID, ch.Name, now, false)
	switch {
	case errors.Is(err, storage.ErrChallengeFinished),
		errors.Is(err, storage.ErrChallengeNotStarted),
		errors.Is(err, storage.ErrNotJoined):
		return Message{Text: fmt.Sprintf("❌ You haven't started '%s' or have already finished it.", ch.DisplayName)}, nil
	case err != nil:
		return Message{}, err
	}

	s.log.Info("challenge finished", "event_id", ev.ID, "user_id", userID, "challenge", ch.Name, "duration_s", cs.DurationSeconds)
	return Message{
		Title:  fmt.Sprintf("✅ Completed: %s", ch.DisplayName),
		Body:   fmt.Sprintf("Time taken: %s", FormatSeconds(cs.DurationSeconds)),
		Footer: fmt.Sprintf("Finished at %s | Use !evidence to submit evidence", now.UTC().Format("15:04:05 UTC")),
	}, nil
}

// Evidence attaches proof to a challenge. With no name given it falls
// back to the active challenge, then to the most recently finished one.
// Only attachments and URLs count here; loose text is not evidence.
func (s *ChallengeService) Evidence(userID, challengeName string, in Incoming, now time.Time) (Message, error) {
	ev, failMsg := s.runningEvent(now)
	if ev == nil {
		return Message{Text: failMsg}, nil
	}

	targetName, msg, err := s.resolveEvidenceTarget(ev.ID, userID, challengeName)
	if err != nil {
		return Message{}, err
	}
	if targetName == "" {
		return Message{Text: msg}, nil
	}

	var items []domain.EvidenceItem
	for _, att := range in.Attachments {
		items = append(items, domain.EvidenceItem{
			Type: domain.EvidenceAttachment, Payload: att.URL, Filename: att.Filename, SubmittedAt: now,
		})
	}
	for _, url := range extractURLs(in.Content) {
		items = append(items, domain.EvidenceItem{Type: domain.EvidenceURL, Payload: url, SubmittedAt: now})
	}
	if len(items) == 0 {
		return Message{Text: "❌ No evidence found. Please attach screenshots or provide URLs."}, nil
	}

	err = s.store.UpdateChallenge(ev.ID, userID, targetName, func(cs *domain.UserChallengeState) {
		cs.Evidence = append(cs.Evidence, items...)
	})
	if errors.Is(err, storage.ErrNotJoined) {
		return Message{Text: "❌ You must join the event first using `!join`"}, nil
	}
	if err != nil {
		return Message{}, err
	}

	display := targetName
	if ch, ok := s.catalog.ByName(targetName); ok {
		display = ch.DisplayName
	}
	s.log.Info("evidence submitted", "event_id", ev.ID, "user_id", userID, "challenge", targetName, "items", len(items))
	return Message{
		Title: fmt.Sprintf("📸 Evidence Submitted: %s", display),
		Body:  fmt.Sprintf("Collected %d evidence items", len(items)),
	}, nil
}

func (s *ChallengeService) resolveEvidenceTarget(eventID, userID, challengeName string) (string, string, error) {
	if challengeName != "" {
		ch, ok := s.catalog.ByName(challengeName)
		if !ok {
			return "", fmt.Sprintf("❌ Challenge '%s' not found.", challengeName), nil
		}
		return ch.Name, "", nil
	}

	active, err := s.store.ActiveChallengeName(eventID, userID)
	if err != nil && !errors.Is(err, storage.ErrNotJoined) {
		return "", "", err
	}
	if active != "" {
		return active, "", nil
	}

	// Fall back to the most recently finished challenge.
	user, err := s.store.UserState(eventID, userID)
	if err == nil {
		var best string
		var bestTime time.Time
		for name, cs := range user.Challenges {
			if cs.Status != domain.ChallengeFinished || cs.FinishTime == nil {
				continue
			}
			if best == "" || cs.FinishTime.After(bestTime) {
				best, bestTime = name, *cs.FinishTime
			}
		}
		if best != "" {
			return best, "", nil
		}
	}
	return "", "❌ No challenges to submit evidence for. You need to `!join`, `!start`, or `!finish` a challenge first.", nil
}

// Skip advances a DM challenge one stage by hand. Only challenges
// flagged skippable in the catalog allow it.
func (s *ChallengeService) Skip(userID string, now time.Time) (string, error) {
	ev, failMsg := s.runningEvent(now)
	if ev == nil {
		return failMsg, nil
	}

	activeName, err := s.store.ActiveChallengeName(ev.ID, userID)
	if err != nil || activeName == "" {
		return "❌ You're not currently in an active challenge.", nil
	}
	ch, ok := s.catalog.ByName(activeName)
	if !ok || !ch.Skippable() {
		return "❌ This challenge doesn't support skipping.", nil
	}

	var advanced bool
	switch h := s.registry.For(ch).(type) {
	case *LocationHuntHandler:
		advanced, err = h.AdvanceClue(ev.ID, userID, ch, now)
	case *SpeedRunHandler:
		advanced, err = h.AdvanceStage(ev.ID, userID, ch, now)
	default:
		return "❌ This challenge doesn't support skipping.", nil
	}
	if err != nil {
		return "", err
	}
	if !advanced {
		return "🏁 You're already at the final stage!", nil
	}
	s.log.Info("stage skipped", "event_id", ev.ID, "user_id", userID, "challenge", ch.Name)
	return "⏭️ Skipped to next stage.", nil
}

// HandleDM routes a non-command DM to the user's active challenge
// handler. Unroutable messages are dropped silently so stray DMs don't
// spam errors.
func (s *ChallengeService) HandleDM(userID string, in Incoming, now time.Time) (bool, error) {
	ev, err := s.store.ActiveEvent()
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if ev.Ended(now) {
		if err := s.gw.SendDM(userID, Message{Text: "❌ This event has concluded. DM interactions are no longer available."}); err != nil {
			s.log.Warn("send dm", "user_id", userID, "err", err)
		}
		return true, nil
	}
	if ev.Status != domain.EventActive {
		return false, nil
	}

	activeName, err := s.store.ActiveChallengeName(ev.ID, userID)
	if err != nil || activeName == "" {
		return false, nil
	}
	cs, err := s.store.ChallengeState(ev.ID, userID, activeName)
	if err != nil || cs.Status != domain.ChallengeActive {
		return false, nil
	}
	ch, ok := s.catalog.ByName(activeName)
	if !ok {
		s.log.Error("active challenge missing from catalog", "challenge", activeName)
		return false, nil
	}
	return s.registry.For(ch).HandleDM(ev.ID, userID, ch, in, now)
}

// CheckClueTimers drips the next hunt clue to users who have been stuck
// on a location longer than delay.
func (s *ChallengeService) CheckClueTimers(now time.Time, delay time.Duration) error {
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

	ch, ok := s.catalog.ByName(catalog.LocationHuntName)
	if !ok {
		return nil
	}
	hunt, ok := s.registry.For(ch).(*LocationHuntHandler)
	if !ok {
		return nil
	}

	for userID, user := range ev.Users {
		if user.ActiveChallenge != ch.Name {
			continue
		}
		cs := user.Challenges[ch.Name]
		if cs == nil || cs.Status != domain.ChallengeActive || cs.LastStageAdvance == nil {
			continue
		}
		if now.Sub(*cs.LastStageAdvance) < delay {
			continue
		}
		advanced, err := hunt.AdvanceClue(ev.ID, userID, ch, now)
		if err != nil {
			s.log.Error("advance hunt clue", "event_id", ev.ID, "user_id", userID, "err", err)
			continue
		}
		if advanced {
			s.log.Info("hunt clue released", "event_id", ev.ID, "user_id", userID)
		}
	}
	return nil
}

// SetStage is the admin override for a user's active challenge stage.
func (s *ChallengeService) SetStage(targetUsername, stage string, now time.Time) (string, error) {
	ev, err := s.store.ActiveEvent()
	if errors.Is(err, storage.ErrNotFound) {
		return "❌ No active event found.", nil
	}
	if err != nil {
		return "", err
	}

	userID, ok := s.store.FindUserByName(targetUsername)
	if !ok {
		return fmt.Sprintf("❌ User '%s' not found.", targetUsername), nil
	}

	activeName, err := s.store.ActiveChallengeName(ev.ID, userID)
	if err != nil || activeName == "" {
		return fmt.Sprintf("❌ User '%s' doesn't have an active challenge.", targetUsername), nil
	}
	ch, ok := s.catalog.ByName(activeName)
	if !ok {
		return "❌ Could not find challenge data.", nil
	}

	if err := s.store.SetStage(ev.ID, userID, ch.Name, stage, now); err != nil {
		return "", err
	}
	s.log.Info("stage set by admin", "event_id", ev.ID, "user_id", userID, "challenge", ch.Name, "stage", stage)
	return fmt.Sprintf("✅ Set %s's stage to **%s** for challenge **%s**.", targetUsername, stage, ch.DisplayName), nil
}

// Reset wipes a user's attempt at one challenge so they can restart it.
func (s *ChallengeService) Reset(targetUsername, challengeName string) (string, error) {
	ev, err := s.store.ActiveEvent()
	if errors.Is(err, storage.ErrNotFound) {
		return "❌ No active event found.", nil
	}
	if err != nil {
		return "", err
	}

	userID, ok := s.store.FindUserByName(targetUsername)
	if !ok {
		return fmt.Sprintf("❌ User '%s' not found.", targetUsername), nil
	}
	ch, ok := s.catalog.ByName(challengeName)
	if !ok {
		return fmt.Sprintf("❌ Challenge '%s' not found.", challengeName), nil
	}

	if err := s.store.ResetChallenge(ev.ID, userID, ch.Name); err != nil {
		if errors.Is(err, storage.ErrNotJoined) {
			return fmt.Sprintf("❌ User '%s' hasn't joined the event.", targetUsername), nil
		}
		return "", err
	}
	s.log.Info("challenge reset by admin", "event_id", ev.ID, "user_id", userID, "challenge", ch.Name)
	return fmt.Sprintf("✅ Reset %s's data for challenge **%s**. They can now restart it.", targetUsername, ch.DisplayName), nil
}

// usernames renders the user for public announcements as
// *discordName* (**osrsName**), falling back to whatever is known.
func (s *ChallengeService) usernames(userID, fallback string) string {
	acc, err := s.store.Account(userID)
	if err != nil {
		if fallback != "" {
			return fallback
		}
		return userID
	}
	name := acc.DisplayName
	if name == "" {
		name = fallback
	}
	if name == "" {
		name = userID
	}
	return fmt.Sprintf("*%s* (**%s**)", name, acc.OSRSUsername)
}

func (s *ChallengeService) requireAccount(userID string) (string, bool) {
	if _, err := s.store.Account(userID); err != nil {
		return "❌ You must link your OSRS account first using `!link_account <username>`", false
	}
	return "", true
}

// runningEvent returns the event user commands may act on: active,
// not paused, not past its end.
func (s *ChallengeService) runningEvent(now time.Time) (*domain.Event, string) {
	ev, err := s.store.ActiveEvent()
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "❌ No event is currently running."
	}
	if err != nil {
		return nil, "❌ Something went wrong, please try again."
	}
	if ev.Status == domain.EventPaused {
		return nil, "⏸️ The event is paused. Hang tight!"
	}
	if ev.Ended(now) {
		return nil, "❌ This event has concluded."
	}
	return ev, ""
}
