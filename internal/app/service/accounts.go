package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/wiseoldpea/events-bot/internal/infra/storage"
)

// AccountService links Discord users to OSRS usernames and answers
// stats lookups against the WiseOldMan API.
type AccountService struct {
	store *storage.Store
	stats StatsAPI
	log   *slog.Logger
}

func NewAccountService(store *storage.Store, stats StatsAPI, log *slog.Logger) *AccountService {
	return &AccountService{store: store, stats: stats, log: log}
}

// Link ties the Discord user to an OSRS username. The username is
// checked against WiseOldMan when possible, but an unknown player still
// links: not everyone is tracked there.
func (s *AccountService) Link(ctx context.Context, userID, displayName, osrsUsername string, now time.Time) (string, error) {
	osrsUsername = strings.TrimSpace(osrsUsername)
	if osrsUsername == "" {
		return "Please provide your OSRS username: `!link_account <username>`", nil
	}

	tracked, err := s.stats.PlayerExists(ctx, osrsUsername)
	if err != nil {
		s.log.Warn("player lookup failed, linking anyway", "username", osrsUsername, "err", err)
	}

	s.store.LinkAccount(userID, displayName, osrsUsername, now)
	s.log.Info("account linked", "user_id", userID, "osrs_username", osrsUsername, "tracked", tracked)

	reply := fmt.Sprintf("✅ Successfully linked Discord account to OSRS account: **%s**", osrsUsername)
	if err == nil && !tracked {
		reply += "\nℹ️ That name isn't tracked on WiseOldMan yet, so `!gains` won't have data for it."
	}
	return reply, nil
}

// Gains reports the linked player's recent XP and boss kills. period is
// one of day, week, month, or year; empty defaults to week.
func (s *AccountService) Gains(ctx context.Context, userID, period string) (Message, error) {
	acc, err := s.store.Account(userID)
	if errors.Is(err, storage.ErrNotFound) {
		return Message{Text: "❌ You must link your OSRS account first using `!link_account <username>`"}, nil
	}
	if err != nil {
		return Message{}, err
	}

	womPeriod, ok := normalizePeriod(period)
	if !ok {
		return Message{Text: "❌ Invalid period. Use `day`, `week`, `month`, or `year`."}, nil
	}

	gains, err := s.stats.PlayerGains(ctx, acc.OSRSUsername, womPeriod)
	if err != nil {
		s.log.Error("fetch gains", "username", acc.OSRSUsername, "err", err)
		return Message{Text: "❌ Couldn't reach WiseOldMan right now. Try again in a bit."}, nil
	}
	if gains == nil {
		return Message{Text: fmt.Sprintf("❌ **%s** isn't tracked on WiseOldMan. Visit wiseoldman.net to start tracking.", acc.OSRSUsername)}, nil
	}

	msg := Message{
		Title: fmt.Sprintf("📈 Gains for %s (%s)", gains.Username, womPeriod),
		Fields: []Field{
			{Name: "Experience", Value: fmt.Sprintf("%s XP", formatInt(gains.ExperienceGained)), Inline: true},
		},
	}
	if len(gains.BossKills) > 0 {
		bosses := make([]string, 0, len(gains.BossKills))
		for boss := range gains.BossKills {
			bosses = append(bosses, boss)
		}
		sort.Strings(bosses)
		var lines []string
		for _, boss := range bosses {
			lines = append(lines, fmt.Sprintf("%s: %d", titleCase(boss), gains.BossKills[boss]))
		}
		msg.Fields = append(msg.Fields, Field{Name: "Boss Kills", Value: strings.Join(lines, "\n")})
	}
	return msg, nil
}

func normalizePeriod(period string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "":
		return "week", true
	case "day", "week", "month", "year":
		return strings.ToLower(strings.TrimSpace(period)), true
	default:
		return "", false
	}
}

// formatInt puts thousands separators into big XP numbers.
func formatInt(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
