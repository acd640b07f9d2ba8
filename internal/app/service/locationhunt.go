package service

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wiseoldpea/events-bot/internal/domain"
	"github.com/wiseoldpea/events-bot/internal/infra/catalog"
	"github.com/wiseoldpea/events-bot/internal/infra/storage"
)

// LocationHuntHandler runs the screenshot hunt. Users get an image clue
// per location; a screenshot attachment proves the find and jumps to the
// next location, while extra clues for the current location trickle out
// on a timer. Evidence is attachments only: text and links are refused.
type LocationHuntHandler struct {
	store  *storage.Store
	gw     Gateway
	prefix string
	log    *slog.Logger
}

func (h *LocationHuntHandler) Start(eventID, userID string, ch *catalog.Challenge, now time.Time) (string, error) {
	first := domain.LocationStage{Location: 1, Clue: 1}
	err := h.store.UpdateChallenge(eventID, userID, ch.Name, func(cs *domain.UserChallengeState) {
		cs.Stage = first.String()
		t := now
		cs.LastStageAdvance = &t
	})
	if err != nil {
		return "", err
	}
	if !h.sendClue(userID, ch, first) {
		return "Challenge started, but there was an issue loading the first clue. Please contact an admin.", nil
	}
	return "Check your DMs for the first location clue. More clues will appear over time if needed!", nil
}

func (h *LocationHuntHandler) HandleDM(eventID, userID string, ch *catalog.Challenge, in Incoming, now time.Time) (bool, error) {
	cs, err := h.store.ChallengeState(eventID, userID, ch.Name)
	if err != nil {
		return false, err
	}
	stage, err := domain.ParseLocationStage(defaultStage(cs.Stage))
	if err != nil {
		return false, err
	}

	if len(in.Attachments) == 0 {
		if strings.HasPrefix(strings.TrimSpace(in.Content), h.prefix) {
			return false, nil
		}
		h.dm(userID, Message{Text: "📸 **This hunt requires screenshot evidence!**\n\n" +
			"Please attach a screenshot showing you've found the location. " +
			"Text descriptions or links won't be accepted for this challenge.\n\n" +
			"💡 *Tip: Take a screenshot and drag it into this chat window.*"})
		return true, nil
	}

	var items []domain.EvidenceItem
	for _, att := range in.Attachments {
		items = append(items, domain.EvidenceItem{
			Type:        domain.EvidenceAttachment,
			Payload:     att.URL,
			Filename:    att.Filename,
			Stage:       stage.String(),
			SubmittedAt: now,
		})
	}
	err = h.store.UpdateChallenge(eventID, userID, ch.Name, func(cs *domain.UserChallengeState) {
		cs.Evidence = append(cs.Evidence, items...)
	})
	if err != nil {
		return false, err
	}

	next := stage.NextLocation()
	if ch.HasMedia(next.String()) {
		err = h.store.UpdateChallenge(eventID, userID, ch.Name, func(cs *domain.UserChallengeState) {
			cs.Stage = next.String()
			t := now
			cs.LastStageAdvance = &t
		})
		if err != nil {
			return false, err
		}
		h.dm(userID, Message{Text: fmt.Sprintf("✅ **Location %d found!**\n🗺️ Moving to location %d...", stage.Location, next.Location)})
		h.sendClue(userID, ch, next)
		return true, nil
	}

	final, err := h.store.FinishChallenge(eventID, userID, ch.Name, now, false)
	if err != nil {
		return false, err
	}
	h.log.Info("hunt complete", "event_id", eventID, "user_id", userID, "locations", stage.Location)
	h.dm(userID, Message{
		Title: "🎉 All locations found!",
		Body: fmt.Sprintf("You completed the hunt in **%s** with %d screenshots submitted.",
			FormatSeconds(final.DurationSeconds), len(final.Evidence)),
	})
	return true, nil
}

// AdvanceClue reveals the next clue for the user's current location,
// driven by the idle timer or the skip command. Returns false when the
// catalog has no further clue for that location.
func (h *LocationHuntHandler) AdvanceClue(eventID, userID string, ch *catalog.Challenge, now time.Time) (bool, error) {
	cs, err := h.store.ChallengeState(eventID, userID, ch.Name)
	if err != nil {
		return false, err
	}
	if cs.Status != domain.ChallengeActive {
		return false, nil
	}
	stage, err := domain.ParseLocationStage(defaultStage(cs.Stage))
	if err != nil {
		return false, err
	}

	next := stage.NextClue()
	if !ch.HasMedia(next.String()) {
		return false, nil
	}
	err = h.store.UpdateChallenge(eventID, userID, ch.Name, func(cs *domain.UserChallengeState) {
		cs.Stage = next.String()
		t := now
		cs.LastStageAdvance = &t
	})
	if err != nil {
		return false, err
	}
	if h.sendClue(userID, ch, next) {
		h.dm(userID, Message{Text: fmt.Sprintf("🔍 **Here's a better view of location %d** (Clue %d)", next.Location, next.Clue)})
	}
	return true, nil
}

func (h *LocationHuntHandler) sendClue(userID string, ch *catalog.Challenge, stage domain.LocationStage) bool {
	url, ok := ch.MediaURL(stage.String())
	if !ok {
		h.log.Warn("missing hunt media", "challenge", ch.Name, "stage", stage.String())
		h.dm(userID, Message{Text: fmt.Sprintf("📍 **Location %d, Clue %d**\n⚠️ Image not available - please contact an admin.", stage.Location, stage.Clue)})
		return false
	}
	h.dm(userID, Message{
		Title:    fmt.Sprintf("📍 Location %d, Clue %d", stage.Location, stage.Clue),
		Body:     "Find this spot and send a screenshot as proof!",
		ImageURL: url,
	})
	return true
}

func (h *LocationHuntHandler) dm(userID string, msg Message) {
	if err := h.gw.SendDM(userID, msg); err != nil {
		h.log.Warn("send hunt dm", "user_id", userID, "err", err)
	}
}

func defaultStage(stage string) string {
	if stage == "" {
		return "1.1"
	}
	return stage
}
