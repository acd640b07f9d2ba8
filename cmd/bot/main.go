package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	discordadapter "github.com/wiseoldpea/events-bot/internal/adapters/discord"
	"github.com/wiseoldpea/events-bot/internal/adapters/wiseoldman"
	"github.com/wiseoldpea/events-bot/internal/app/scheduler"
	"github.com/wiseoldpea/events-bot/internal/app/service"
	"github.com/wiseoldpea/events-bot/internal/infra/catalog"
	"github.com/wiseoldpea/events-bot/internal/infra/config"
	"github.com/wiseoldpea/events-bot/internal/infra/storage"
)

func main() {
	_ = godotenv.Load()
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.DataDir, cfg.BackupKeep, log)
	if err != nil {
		log.Error("open store", "err", err)
		os.Exit(1)
	}
	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		log.Error("load challenge catalog", "err", err)
		os.Exit(1)
	}
	log.Info("✅ store and catalog ready", "challenges", cat.Len())

	wom := wiseoldman.New(
		wiseoldman.WithBaseURL(cfg.WiseOldManBaseURL),
		wiseoldman.WithMinInterval(cfg.WiseOldManInterval),
	)

	// Discord session
	auth := strings.TrimSpace(cfg.DiscordToken)
	if !strings.HasPrefix(strings.ToLower(auth), "bot ") {
		auth = "Bot " + auth
	}
	s, err := discordgo.New(auth)
	if err != nil {
		log.Error("discord session", "err", err)
		os.Exit(1)
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	// Services
	gw := discordadapter.NewGateway(s, log)
	registry := service.NewHandlerRegistry(store, gw, cfg.CommandPrefix, log)
	events := service.NewEventService(store, cat, gw, log)
	challenges := service.NewChallengeService(store, cat, registry, gw, log)
	accounts := service.NewAccountService(store, wom, log)
	scores := service.NewScoreService(store, cat, log)

	router := discordadapter.NewRouter(discordadapter.RouterConfig{
		Prefix:       cfg.CommandPrefix,
		AdminRoleIDs: cfg.AdminRoleIDs,
		Cooldown:     time.Second,
		Accounts:     accounts,
		Events:       events,
		Challenges:   challenges,
		Scores:       scores,
		Log:          log,
	})
	router.Register(s)

	if err := s.Open(); err != nil {
		log.Error("discord open", "err", err)
		os.Exit(1)
	}
	defer s.Close()
	log.Info("✅ connected", "user", s.State.User.Username, "id", s.State.User.ID)

	// Background loops: release cadence, challenge deadlines, hunt clue
	// drip, and data backups.
	ctx, cancel := context.WithCancel(context.Background())
	sched := scheduler.New(log,
		scheduler.Task{Name: "event_timing", Interval: cfg.TimingCheckInterval, Run: events.CheckEventTiming},
		scheduler.Task{Name: "challenge_timeouts", Interval: cfg.TimeoutCheckInterval, Run: events.CheckChallengeTimeouts},
		scheduler.Task{Name: "clue_timers", Interval: cfg.ClueCheckInterval, Run: func(now time.Time) error {
			return challenges.CheckClueTimers(now, cfg.ClueDelay)
		}},
		scheduler.Task{Name: "backups", Interval: cfg.BackupPruneInterval, Run: store.Backup},
	)
	sched.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop

	log.Info("shutting down")
	cancel()
	sched.Wait()
}
