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

// RaceHandler runs all-info-up-front challenges: the whole payload goes
// out at start, then every DM is just evidence until the user finishes
// explicitly with the finish command.
type RaceHandler struct {
	store *storage.Store
	gw    Gateway
	log   *slog.Logger
}

func (h *RaceHandler) Start(eventID, userID string, ch *catalog.Challenge, now time.Time) (string, error) {
	msg := Message{
		Title:    ch.DisplayName,
		Body:     ch.Rules,
		ImageURL: ch.TitleCard,
	}
	if items := ch.Items(); len(items) > 0 {
		var lines []string
		for i, item := range items {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, item))
		}
		msg.Fields = append(msg.Fields, Field{Name: "Information", Value: strings.Join(lines, "\n")})
	}
	if err := h.gw.SendDM(userID, msg); err != nil {
		h.log.Warn("send race dm", "user_id", userID, "err", err)
	}
	return "Check your DMs for the challenge information.", nil
}

func (h *RaceHandler) HandleDM(eventID, userID string, ch *catalog.Challenge, in Incoming, now time.Time) (bool, error) {
	items := collectEvidence(in, "", now)
	if len(items) == 0 {
		return false, nil
	}
	err := h.store.UpdateChallenge(eventID, userID, ch.Name, func(cs *domain.UserChallengeState) {
		cs.Evidence = append(cs.Evidence, items...)
	})
	if err != nil {
		return false, err
	}
	reply := Message{Text: fmt.Sprintf("✅ Evidence submitted! (%d items collected)", len(items))}
	if err := h.gw.SendDM(userID, reply); err != nil {
		h.log.Warn("send race dm", "user_id", userID, "err", err)
	}
	return true, nil
}
