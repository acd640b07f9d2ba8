package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/wiseoldpea/events-bot/internal/app/service"
)

const lookupTimeout = 15 * time.Second

type command struct {
	usage  string
	desc   string
	admin  bool
	dmOnly bool
	run    func(r *Router, m *discordgo.MessageCreate, args string) (service.Message, error)
}

// commandOrder drives the help listing; commandTable drives dispatch.
var commandOrder = []string{
	"link_account", "join", "start", "finish", "evidence", "skip",
	"my_scores", "gains", "help",
	"create_event", "start_event", "pause_event", "resume_event",
	"force_release", "event_status", "admin_scores", "set_stage", "reset",
}

var commandTable map[string]*command

func init() {
	commandTable = map[string]*command{
		"link_account": {
			usage: "link_account <osrs username>",
			desc:  "Link your Discord account to your OSRS username.",
			run: func(r *Router, m *discordgo.MessageCreate, args string) (service.Message, error) {
				if args == "" {
					return r.usage("link_account"), nil
				}
				ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
				defer cancel()
				text, err := r.accounts.Link(ctx, m.Author.ID, displayName(m), args, time.Now())
				return service.Message{Text: text}, err
			},
		},
		"join": {
			usage: "join <event or challenge name>",
			desc:  "Join the active event, or join it and start a challenge in one go.",
			run: func(r *Router, m *discordgo.MessageCreate, args string) (service.Message, error) {
				if args == "" {
					return r.usage("join"), nil
				}
				text, err := r.challenges.Join(m.Author.ID, args, time.Now())
				return service.Message{Text: text}, err
			},
		},
		"start": {
			usage: "start <challenge name>",
			desc:  "Start a challenge. Your timer begins immediately.",
			run: func(r *Router, m *discordgo.MessageCreate, args string) (service.Message, error) {
				if args == "" {
					return r.usage("start"), nil
				}
				return r.challenges.Start(m.Author.ID, displayName(m), args, time.Now())
			},
		},
		"finish": {
			usage: "finish <challenge name>",
			desc:  "Finish a challenge and lock in your time.",
			run: func(r *Router, m *discordgo.MessageCreate, args string) (service.Message, error) {
				if args == "" {
					return r.usage("finish"), nil
				}
				return r.challenges.Finish(m.Author.ID, args, time.Now())
			},
		},
		"evidence": {
			usage: "evidence [challenge name]",
			desc:  "Submit screenshots or links as evidence. Defaults to your active challenge.",
			run: func(r *Router, m *discordgo.MessageCreate, args string) (service.Message, error) {
				return r.challenges.Evidence(m.Author.ID, args, incomingFrom(m), time.Now())
			},
		},
		"skip": {
			usage:  "skip",
			desc:   "Skip the current stage of a skippable challenge (DM only).",
			dmOnly: true,
			run: func(r *Router, m *discordgo.MessageCreate, args string) (service.Message, error) {
				text, err := r.challenges.Skip(m.Author.ID, time.Now())
				return service.Message{Text: text}, err
			},
		},
		"my_scores": {
			usage: "my_scores",
			desc:  "See your progress across the event's challenges.",
			run: func(r *Router, m *discordgo.MessageCreate, args string) (service.Message, error) {
				return r.scores.MyScores(m.Author.ID)
			},
		},
		"gains": {
			usage: "gains [day|week|month|year]",
			desc:  "Your WiseOldMan XP and boss kill gains. Defaults to the past week.",
			run: func(r *Router, m *discordgo.MessageCreate, args string) (service.Message, error) {
				ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
				defer cancel()
				return r.accounts.Gains(ctx, m.Author.ID, args)
			},
		},
		"help": {
			usage: "help",
			desc:  "Show this message.",
			run: func(r *Router, m *discordgo.MessageCreate, args string) (service.Message, error) {
				return r.helpMessage(m.GuildID != ""), nil
			},
		},

		"create_event": {
			usage: "create_event <name> | <duration> | <release interval>",
			desc:  "Create an event, e.g. `!create_event Summer Hunt | 7 days | 1 day`.",
			admin: true,
			run: func(r *Router, m *discordgo.MessageCreate, args string) (service.Message, error) {
				parts := splitPipe(args)
				if len(parts) != 3 {
					return r.usage("create_event"), nil
				}
				text, err := r.events.Create(parts[0], m.Author.ID, m.GuildID, m.ChannelID, parts[1], parts[2])
				return service.Message{Text: text}, err
			},
		},
		"start_event": {
			usage: "start_event <name>",
			desc:  "Activate a created event. Only one event runs at a time.",
			admin: true,
			run: func(r *Router, m *discordgo.MessageCreate, args string) (service.Message, error) {
				if args == "" {
					return r.usage("start_event"), nil
				}
				text, err := r.events.StartEvent(args, time.Now())
				return service.Message{Text: text}, err
			},
		},
		"pause_event": {
			usage: "pause_event <name>",
			desc:  "Pause an active event. Releases and DM handling stop.",
			admin: true,
			run: func(r *Router, m *discordgo.MessageCreate, args string) (service.Message, error) {
				if args == "" {
					return r.usage("pause_event"), nil
				}
				text, err := r.events.PauseEvent(args)
				return service.Message{Text: text}, err
			},
		},
		"resume_event": {
			usage: "resume_event <name>",
			desc:  "Resume a paused event.",
			admin: true,
			run: func(r *Router, m *discordgo.MessageCreate, args string) (service.Message, error) {
				if args == "" {
					return r.usage("resume_event"), nil
				}
				text, err := r.events.ResumeEvent(args)
				return service.Message{Text: text}, err
			},
		},
		"force_release": {
			usage: "force_release",
			desc:  "Release the next challenge right now instead of waiting for the interval.",
			admin: true,
			run: func(r *Router, m *discordgo.MessageCreate, args string) (service.Message, error) {
				text, err := r.events.ForceRelease(time.Now())
				return service.Message{Text: text}, err
			},
		},
		"event_status": {
			usage: "event_status",
			desc:  "Show the active event's timing and release progress.",
			admin: true,
			run: func(r *Router, m *discordgo.MessageCreate, args string) (service.Message, error) {
				text, err := r.events.Status(time.Now())
				return service.Message{Text: text}, err
			},
		},
		"admin_scores": {
			usage: "admin_scores [username]",
			desc:  "Everyone's progress, or one player's full detail.",
			admin: true,
			run: func(r *Router, m *discordgo.MessageCreate, args string) (service.Message, error) {
				return r.scores.AdminScores(args)
			},
		},
		"set_stage": {
			usage: "set_stage <username> <stage>",
			desc:  "Move a player's active challenge to a specific stage.",
			admin: true,
			run: func(r *Router, m *discordgo.MessageCreate, args string) (service.Message, error) {
				username, stage := splitLast(args)
				if username == "" || stage == "" {
					return r.usage("set_stage"), nil
				}
				text, err := r.challenges.SetStage(username, stage, time.Now())
				return service.Message{Text: text}, err
			},
		},
		"reset": {
			usage: "reset <username> | <challenge name>",
			desc:  "Wipe a player's progress on one challenge so they can retry.",
			admin: true,
			run: func(r *Router, m *discordgo.MessageCreate, args string) (service.Message, error) {
				parts := splitPipe(args)
				if len(parts) != 2 {
					return r.usage("reset"), nil
				}
				text, err := r.challenges.Reset(parts[0], parts[1])
				return service.Message{Text: text}, err
			},
		},
	}
}

func (r *Router) helpMessage(includeAdmin bool) service.Message {
	var player, admin strings.Builder
	for _, name := range commandOrder {
		cmd := commandTable[name]
		line := fmt.Sprintf("`%s%s` — %s\n", r.prefix, cmd.usage, cmd.desc)
		if cmd.admin {
			admin.WriteString(line)
		} else {
			player.WriteString(line)
		}
	}

	msg := service.Message{
		Title: "🤖 Wise Old Pea",
		Body:  "Link your account, join the event, and race the clock. Challenge answers and evidence go to me in DMs.",
		Fields: []service.Field{
			{Name: "Commands", Value: strings.TrimRight(player.String(), "\n")},
		},
	}
	if includeAdmin {
		msg.Fields = append(msg.Fields, service.Field{
			Name: "Admin", Value: strings.TrimRight(admin.String(), "\n"),
		})
	}
	return msg
}

func (r *Router) usage(name string) service.Message {
	return service.Message{Text: fmt.Sprintf("Usage: `%s%s`", r.prefix, commandTable[name].usage)}
}

// splitPipe splits "a | b | c" into trimmed parts, dropping empties.
func splitPipe(args string) []string {
	var out []string
	for _, part := range strings.Split(args, "|") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitLast peels the final whitespace-separated token off the line.
// Usernames may contain spaces; stage labels never do.
func splitLast(args string) (string, string) {
	i := strings.LastIndexByte(args, ' ')
	if i < 0 {
		return "", ""
	}
	return strings.TrimSpace(args[:i]), strings.TrimSpace(args[i+1:])
}
