package discord

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/wiseoldpea/events-bot/internal/app/service"
)

// Gateway sends outgoing messages through a live Discord session. It
// satisfies service.Gateway so the app layer never touches discordgo.
type Gateway struct {
	s   *discordgo.Session
	log *slog.Logger

	mu  sync.Mutex
	dms map[string]string // userID -> DM channel ID
}

func NewGateway(s *discordgo.Session, log *slog.Logger) *Gateway {
	return &Gateway{s: s, log: log, dms: map[string]string{}}
}

func (g *Gateway) SendChannel(channelID string, msg service.Message) error {
	_, err := g.s.ChannelMessageSendComplex(channelID, buildMessage(msg))
	if err != nil {
		return fmt.Errorf("send channel %s: %w", channelID, err)
	}
	return nil
}

func (g *Gateway) SendDM(userID string, msg service.Message) error {
	chID, err := g.dmChannel(userID)
	if err != nil {
		return err
	}
	if _, err := g.s.ChannelMessageSendComplex(chID, buildMessage(msg)); err != nil {
		return fmt.Errorf("send dm to %s: %w", userID, err)
	}
	return nil
}

// dmChannel resolves (and caches) the DM channel for a user. Discord
// keeps one DM channel per user pair, so the ID never goes stale.
func (g *Gateway) dmChannel(userID string) (string, error) {
	g.mu.Lock()
	id, ok := g.dms[userID]
	g.mu.Unlock()
	if ok {
		return id, nil
	}

	ch, err := g.s.UserChannelCreate(userID)
	if err != nil {
		return "", fmt.Errorf("open dm with %s: %w", userID, err)
	}
	g.mu.Lock()
	g.dms[userID] = ch.ID
	g.mu.Unlock()
	return ch.ID, nil
}

// buildMessage converts the transport-neutral message into discordgo's
// shape. Text-only messages stay plain; anything with a title, body, or
// fields goes out as an embed.
func buildMessage(msg service.Message) *discordgo.MessageSend {
	out := &discordgo.MessageSend{Content: msg.Text}
	if msg.Title == "" && msg.Body == "" && len(msg.Fields) == 0 {
		return out
	}

	emb := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Body,
		Color:       embedColor,
	}
	for _, f := range msg.Fields {
		emb.Fields = append(emb.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	if msg.ImageURL != "" {
		emb.Image = &discordgo.MessageEmbedImage{URL: msg.ImageURL}
	}
	if msg.ThumbnailURL != "" {
		emb.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: msg.ThumbnailURL}
	}
	if msg.Footer != "" {
		emb.Footer = &discordgo.MessageEmbedFooter{Text: msg.Footer}
	}
	out.Embeds = []*discordgo.MessageEmbed{emb}
	return out
}

const embedColor = 0x2ECC71
