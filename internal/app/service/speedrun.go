package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/wiseoldpea/events-bot/internal/domain"
	"github.com/wiseoldpea/events-bot/internal/infra/catalog"
	"github.com/wiseoldpea/events-bot/internal/infra/storage"
)

// SpeedRunHandler runs sequential-clue challenges. Any DM counts as
// evidence for the current stage and advances to the next one; running
// out of stages finishes the challenge and stops the clock.
type SpeedRunHandler struct {
	store *storage.Store
	gw    Gateway
	log   *slog.Logger
}

func (h *SpeedRunHandler) Start(eventID, userID string, ch *catalog.Challenge, now time.Time) (string, error) {
	err := h.store.UpdateChallenge(eventID, userID, ch.Name, func(cs *domain.UserChallengeState) {
		cs.Stage = "1"
	})
	if err != nil {
		return "", err
	}
	h.sendStage(userID, ch, "1")
	return "Check your DMs for the first clue.", nil
}

func (h *SpeedRunHandler) HandleDM(eventID, userID string, ch *catalog.Challenge, in Incoming, now time.Time) (bool, error) {
	cs, err := h.store.ChallengeState(eventID, userID, ch.Name)
	if err != nil {
		return false, err
	}
	stage := cs.Stage
	if stage == "" {
		stage = "1"
	}

	items := collectEvidence(in, stage, now)
	if len(items) > 0 {
		err = h.store.UpdateChallenge(eventID, userID, ch.Name, func(cs *domain.UserChallengeState) {
			cs.Evidence = append(cs.Evidence, items...)
		})
		if err != nil {
			return false, err
		}
	}

	next := nextNumber(stage)
	if _, ok := ch.Stage(next); ok {
		err = h.store.UpdateChallenge(eventID, userID, ch.Name, func(cs *domain.UserChallengeState) {
			cs.Stage = next
		})
		if err != nil {
			return false, err
		}
		h.sendStage(userID, ch, next)
		return true, nil
	}

	if _, err := h.store.FinishChallenge(eventID, userID, ch.Name, now, false); err != nil {
		return false, err
	}
	h.log.Info("speed run complete", "event_id", eventID, "user_id", userID, "challenge", ch.Name)
	h.dm(userID, Message{Text: "🎉 All stages completed! Your time has been recorded."})
	return true, nil
}

// AdvanceStage is the skip command's path: jump to the next stage
// without recording evidence. Returns false at the final stage.
func (h *SpeedRunHandler) AdvanceStage(eventID, userID string, ch *catalog.Challenge, now time.Time) (bool, error) {
	cs, err := h.store.ChallengeState(eventID, userID, ch.Name)
	if err != nil {
		return false, err
	}
	stage := cs.Stage
	if stage == "" {
		stage = "1"
	}

	next := nextNumber(stage)
	if _, ok := ch.Stage(next); !ok {
		return false, nil
	}
	err = h.store.UpdateChallenge(eventID, userID, ch.Name, func(cs *domain.UserChallengeState) {
		cs.Stage = next
	})
	if err != nil {
		return false, err
	}
	h.sendStage(userID, ch, next)
	return true, nil
}

func (h *SpeedRunHandler) sendStage(userID string, ch *catalog.Challenge, stage string) {
	text, ok := ch.Stage(stage)
	if !ok {
		h.log.Warn("missing speed run stage", "challenge", ch.Name, "stage", stage)
		return
	}
	msg := Message{
		Title:        fmt.Sprintf("%s - Stage %s", ch.DisplayName, stage),
		Body:         text,
		ThumbnailURL: ch.TitleCard,
	}
	if ch.Skippable() {
		msg.Footer = "Type !skip to move to the next stage"
	}
	h.dm(userID, msg)
}

func (h *SpeedRunHandler) dm(userID string, msg Message) {
	if err := h.gw.SendDM(userID, msg); err != nil {
		h.log.Warn("send speed run dm", "user_id", userID, "err", err)
	}
}
