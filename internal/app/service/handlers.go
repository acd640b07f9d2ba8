package service

import (
	"log/slog"
	"strings"
	"time"

	"github.com/wiseoldpea/events-bot/internal/domain"
	"github.com/wiseoldpea/events-bot/internal/infra/catalog"
	"github.com/wiseoldpea/events-bot/internal/infra/storage"
)

// ChallengeHandler is the per-type protocol for a running challenge.
// Start fires after the state machine has marked the challenge active
// and returns the public reply suffix. HandleDM consumes a DM from a
// user whose active challenge this is; handled=false hands the message
// back to the command router.
type ChallengeHandler interface {
	Start(eventID, userID string, ch *catalog.Challenge, now time.Time) (string, error)
	HandleDM(eventID, userID string, ch *catalog.Challenge, in Incoming, now time.Time) (bool, error)
}

// HandlerRegistry picks the handler for a challenge: by name for the
// hunt, by type otherwise, race as the fallback.
type HandlerRegistry struct {
	byType map[string]ChallengeHandler
	byName map[string]ChallengeHandler
}

// NewHandlerRegistry wires one handler per challenge type. prefix is
// the command prefix, which the hunt declines to treat as evidence.
func NewHandlerRegistry(store *storage.Store, gw Gateway, prefix string, log *slog.Logger) *HandlerRegistry {
	if prefix == "" {
		prefix = "!"
	}
	hunt := &LocationHuntHandler{store: store, gw: gw, prefix: prefix, log: log}
	return &HandlerRegistry{
		byType: map[string]ChallengeHandler{
			catalog.TypeTrivia:       &TriviaHandler{store: store, gw: gw, log: log},
			catalog.TypeSpeedRun:     &SpeedRunHandler{store: store, gw: gw, log: log},
			catalog.TypeRace:         &RaceHandler{store: store, gw: gw, log: log},
			catalog.TypeLocationHunt: hunt,
		},
		byName: map[string]ChallengeHandler{
			catalog.LocationHuntName: hunt,
		},
	}
}

func (r *HandlerRegistry) For(ch *catalog.Challenge) ChallengeHandler {
	if h, ok := r.byName[ch.Name]; ok {
		return h
	}
	if h, ok := r.byType[ch.Type]; ok {
		return h
	}
	return r.byType[catalog.TypeRace]
}

// collectEvidence turns a DM into evidence items: attachments, then any
// URLs in the text, then the text itself.
func collectEvidence(in Incoming, stage string, now time.Time) []domain.EvidenceItem {
	var items []domain.EvidenceItem
	for _, att := range in.Attachments {
		items = append(items, domain.EvidenceItem{
			Type:        domain.EvidenceAttachment,
			Payload:     att.URL,
			Filename:    att.Filename,
			Stage:       stage,
			SubmittedAt: now,
		})
	}
	for _, url := range extractURLs(in.Content) {
		items = append(items, domain.EvidenceItem{
			Type:        domain.EvidenceURL,
			Payload:     url,
			Stage:       stage,
			SubmittedAt: now,
		})
	}
	if text := strings.TrimSpace(in.Content); text != "" {
		items = append(items, domain.EvidenceItem{
			Type:        domain.EvidenceText,
			Payload:     text,
			Stage:       stage,
			SubmittedAt: now,
		})
	}
	return items
}
