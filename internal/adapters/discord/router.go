package discord

import (
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/wiseoldpea/events-bot/internal/app/service"
)

// Router turns raw Discord messages into service calls. Prefix
// messages go through the command table; everything else sent in a DM
// is handed to the active challenge handler as a possible answer or
// evidence drop. Guild chatter without the prefix is ignored.
type Router struct {
	prefix       string
	adminRoleIDs []string

	accounts   *service.AccountService
	events     *service.EventService
	challenges *service.ChallengeService
	scores     *service.ScoreService

	limiter *userLimiter
	log     *slog.Logger
}

type RouterConfig struct {
	Prefix       string
	AdminRoleIDs []string
	Cooldown     time.Duration

	Accounts   *service.AccountService
	Events     *service.EventService
	Challenges *service.ChallengeService
	Scores     *service.ScoreService

	Log *slog.Logger
}

func NewRouter(cfg RouterConfig) *Router {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "!"
	}
	return &Router{
		prefix:       prefix,
		adminRoleIDs: cfg.AdminRoleIDs,
		accounts:     cfg.Accounts,
		events:       cfg.Events,
		challenges:   cfg.Challenges,
		scores:       cfg.Scores,
		limiter:      newUserLimiter(cfg.Cooldown),
		log:          cfg.Log,
	}
}

func (r *Router) Register(s *discordgo.Session) {
	s.AddHandler(r.onMessage)
}

func (r *Router) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("panic handling message", "panic", rec, "user_id", m.Author.ID, "channel_id", m.ChannelID)
		}
	}()

	content := strings.TrimSpace(m.Content)
	isDM := m.GuildID == ""

	if !strings.HasPrefix(content, r.prefix) {
		if isDM {
			r.handleChallengeDM(s, m)
		}
		return
	}

	name, args := splitCommand(strings.TrimPrefix(content, r.prefix))
	cmd, ok := commandTable[name]
	if !ok {
		if isDM {
			r.replyText(s, m.ChannelID, "❓ Unknown command. Try `"+r.prefix+"help`.")
		}
		return
	}

	if cmd.admin {
		if isDM {
			r.replyText(s, m.ChannelID, "🔒 Admin commands only work in the server.")
			return
		}
		if !r.isAdmin(s, m) {
			r.replyText(s, m.ChannelID, "🔒 You don't have permission to use this command.")
			return
		}
	}
	if cmd.dmOnly && !isDM {
		r.replyText(s, m.ChannelID, "📨 That one only works in our DM.")
		return
	}
	if !r.limiter.Allow(m.Author.ID) {
		r.replyText(s, m.ChannelID, "⏳ Easy there — give it a second and try again.")
		return
	}

	msg, err := cmd.run(r, m, args)
	if err != nil {
		r.log.Error("command failed", "command", name, "user_id", m.Author.ID, "err", err)
		r.replyText(s, m.ChannelID, "❌ Something went wrong. Please try again.")
		return
	}
	r.reply(s, m.ChannelID, msg)
}

// handleChallengeDM feeds a plain DM to whatever challenge the user has
// running. Unhandled messages are dropped silently so casual chatter at
// the bot doesn't produce error spam.
func (r *Router) handleChallengeDM(s *discordgo.Session, m *discordgo.MessageCreate) {
	handled, err := r.challenges.HandleDM(m.Author.ID, incomingFrom(m), time.Now())
	if err != nil {
		r.log.Error("dm handling failed", "user_id", m.Author.ID, "err", err)
		r.replyText(s, m.ChannelID, "❌ Something went wrong. Please try again.")
		return
	}
	if !handled {
		r.log.Debug("dm not handled", "user_id", m.Author.ID)
	}
}

func (r *Router) reply(s *discordgo.Session, channelID string, msg service.Message) {
	if msg.Text == "" && msg.Title == "" && msg.Body == "" && len(msg.Fields) == 0 {
		return
	}
	if _, err := s.ChannelMessageSendComplex(channelID, buildMessage(msg)); err != nil {
		r.log.Error("reply failed", "channel_id", channelID, "err", err)
	}
}

func (r *Router) replyText(s *discordgo.Session, channelID, text string) {
	r.reply(s, channelID, service.Message{Text: text})
}

// splitCommand separates the command word from the rest of the line.
func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	name, args, _ := strings.Cut(line, " ")
	return strings.ToLower(name), strings.TrimSpace(args)
}

func incomingFrom(m *discordgo.MessageCreate) service.Incoming {
	in := service.Incoming{Content: m.Content}
	for _, att := range m.Attachments {
		if att == nil {
			continue
		}
		in.Attachments = append(in.Attachments, service.Attachment{URL: att.URL, Filename: att.Filename})
	}
	return in
}

// displayName prefers the server nickname, then the global display
// name, then the bare username.
func displayName(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}
