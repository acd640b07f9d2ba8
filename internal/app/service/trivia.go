package service

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/wiseoldpea/events-bot/internal/app/validate"
	"github.com/wiseoldpea/events-bot/internal/domain"
	"github.com/wiseoldpea/events-bot/internal/infra/catalog"
	"github.com/wiseoldpea/events-bot/internal/infra/storage"
)

// TriviaHandler runs question-and-answer challenges over DM. Every
// answer advances to the next question whether or not it was correct;
// the score is the count of correct answers, not a gate.
type TriviaHandler struct {
	store *storage.Store
	gw    Gateway
	log   *slog.Logger
}

func (h *TriviaHandler) Start(eventID, userID string, ch *catalog.Challenge, now time.Time) (string, error) {
	err := h.store.UpdateChallenge(eventID, userID, ch.Name, func(cs *domain.UserChallengeState) {
		cs.Stage = "1"
	})
	if err != nil {
		return "", err
	}
	h.sendQuestion(userID, ch, "1")
	return "Check your DMs for the first question.", nil
}

func (h *TriviaHandler) HandleDM(eventID, userID string, ch *catalog.Challenge, in Incoming, now time.Time) (bool, error) {
	cs, err := h.store.ChallengeState(eventID, userID, ch.Name)
	if err != nil {
		return false, err
	}
	stage := cs.Stage
	if stage == "" {
		stage = "1"
	}

	q, ok := ch.Question(stage)
	if !ok {
		h.log.Warn("no trivia question for stage", "challenge", ch.Name, "stage", stage, "user_id", userID)
		h.dm(userID, Message{Text: "⚠️ There's no question for your current stage. Please contact an admin."})
		return true, nil
	}

	qctx := validate.Context{Options: q.Options, MinCount: q.MinCount}
	correct, feedback := validate.Validate(in.Content, q.Answer, q.Type, qctx)

	err = h.store.UpdateChallenge(eventID, userID, ch.Name, func(cs *domain.UserChallengeState) {
		if cs.Answers == nil {
			cs.Answers = map[string]domain.AnswerRecord{}
		}
		cs.Answers[stage] = domain.AnswerRecord{Answer: in.Content, Correct: correct, SubmittedAt: now}
	})
	if err != nil {
		return false, err
	}

	var b strings.Builder
	if correct {
		b.WriteString("✅ Correct!")
	} else {
		b.WriteString("❌ Incorrect.")
	}
	if feedback != "" {
		b.WriteString("\n" + feedback)
	}
	fmt.Fprintf(&b, "\n\n**Answer:** %s", validate.FormatAnswer(q.Answer, q.Type))
	if q.Explanation != "" {
		fmt.Fprintf(&b, "\n\n**Explanation:** %s", q.Explanation)
	}
	h.dm(userID, Message{Text: b.String()})

	// Advance regardless of correctness.
	next := nextNumber(stage)
	if _, ok := ch.Question(next); ok {
		err = h.store.UpdateChallenge(eventID, userID, ch.Name, func(cs *domain.UserChallengeState) {
			cs.Stage = next
		})
		if err != nil {
			return false, err
		}
		h.sendQuestion(userID, ch, next)
		return true, nil
	}

	if _, err := h.store.FinishChallenge(eventID, userID, ch.Name, now, false); err != nil {
		return false, err
	}
	h.log.Info("trivia complete", "event_id", eventID, "user_id", userID, "challenge", ch.Name)
	h.dm(userID, Message{Text: "🎉 Trivia complete!"})
	return true, nil
}

func (h *TriviaHandler) sendQuestion(userID string, ch *catalog.Challenge, stage string) {
	q, ok := ch.Question(stage)
	if !ok {
		h.log.Warn("missing trivia question", "challenge", ch.Name, "stage", stage)
		return
	}
	msg := Message{
		Title: fmt.Sprintf("Question %s", stage),
		Body:  q.Text,
	}
	if len(q.Options) > 0 {
		var lines []string
		for i, opt := range q.Options {
			lines = append(lines, fmt.Sprintf("%c. %s", 'A'+i, opt))
		}
		msg.Fields = append(msg.Fields, Field{Name: "Options", Value: strings.Join(lines, "\n")})
	}
	h.dm(userID, msg)
}

func (h *TriviaHandler) dm(userID string, msg Message) {
	if err := h.gw.SendDM(userID, msg); err != nil {
		h.log.Warn("send trivia dm", "user_id", userID, "err", err)
	}
}

func nextNumber(stage string) string {
	n, err := strconv.Atoi(stage)
	if err != nil {
		return ""
	}
	return strconv.Itoa(n + 1)
}
