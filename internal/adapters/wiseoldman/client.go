package wiseoldman

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/wiseoldpea/events-bot/internal/domain"
)

// PlayerExists reports whether WiseOldMan tracks the username.
func (c *Client) PlayerExists(ctx context.Context, username string) (bool, error) {
	var dto playerDTO
	err := c.doJSON(ctx, "GET", fmt.Sprintf("/players/%s", url.PathEscape(username)), nil, &dto)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PlayerGains fetches what the player gained over period (day, week,
// month, year). Untracked players return nil without error.
func (c *Client) PlayerGains(ctx context.Context, username, period string) (*domain.GainedStats, error) {
	q := url.Values{}
	q.Set("period", period)

	var dto gainedDTO
	err := c.doJSON(ctx, "GET", fmt.Sprintf("/players/%s/gained", url.PathEscape(username)), q, &dto)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	out := &domain.GainedStats{
		Username:  username,
		Period:    period,
		BossKills: map[string]int{},
	}
	if overall, ok := dto.Data.Skills["overall"]; ok {
		out.ExperienceGained = overall.Experience.Gained
	}
	for boss, stats := range dto.Data.Bosses {
		if stats.Kills.Gained > 0 {
			out.BossKills[boss] = stats.Kills.Gained
		}
	}
	return out, nil
}
