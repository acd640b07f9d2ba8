package domain

import "time"

// Account links a Discord user to their OSRS username. One per user,
// created by the link command, never deleted by the bot.
type Account struct {
	UserID       string    `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	OSRSUsername string    `json:"osrs_username"`
	LinkedAt     time.Time `json:"linked_at"`
}

// GainedStats is the slice of a WiseOldMan gained-stats response the bot
// cares about.
type GainedStats struct {
	Username         string
	Period           string
	ExperienceGained int64
	BossKills        map[string]int
}
