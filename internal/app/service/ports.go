package service

import (
	"context"

	"github.com/wiseoldpea/events-bot/internal/domain"
)

// Implemented by internal/adapters/discord.Gateway
type Gateway interface {
	SendChannel(channelID string, msg Message) error
	SendDM(userID string, msg Message) error
}

// Implemented by internal/adapters/wiseoldman.Client. Gains for a
// player WiseOldMan doesn't track come back nil with no error.
type StatsAPI interface {
	PlayerExists(ctx context.Context, username string) (bool, error)
	PlayerGains(ctx context.Context, username, period string) (*domain.GainedStats, error)
}

// Message is a transport-neutral outgoing message. Text-only messages
// set Text; rich ones use the embed fields.
type Message struct {
	Text         string
	Title        string
	Body         string
	Fields       []Field
	ImageURL     string
	ThumbnailURL string
	Footer       string
}

type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Incoming is the slice of a Discord message the handlers care about.
type Incoming struct {
	Content     string
	Attachments []Attachment
}

type Attachment struct {
	URL      string
	Filename string
}
