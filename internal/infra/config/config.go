package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DiscordToken  string   `env:"DISCORD_BOT_TOKEN,required"`
	CommandPrefix string   `env:"COMMAND_PREFIX" envDefault:"!"`
	AdminRoleIDs  []string `env:"ADMIN_ROLE_IDS" envSeparator:","`

	DataDir     string `env:"DATA_DIR" envDefault:"data"`
	CatalogFile string `env:"CATALOG_FILE" envDefault:"challenge_rules.json"`
	BackupKeep  int    `env:"BACKUP_KEEP" envDefault:"10"`

	// Background task cadence. The three checks tick independently.
	TimingCheckInterval  time.Duration `env:"TIMING_CHECK_INTERVAL" envDefault:"1m"`
	TimeoutCheckInterval time.Duration `env:"TIMEOUT_CHECK_INTERVAL" envDefault:"1m"`
	ClueCheckInterval    time.Duration `env:"CLUE_CHECK_INTERVAL" envDefault:"1m"`
	BackupPruneInterval  time.Duration `env:"BACKUP_PRUNE_INTERVAL" envDefault:"6h"`

	// How long a hunt stage sits idle before the next clue goes out.
	ClueDelay time.Duration `env:"CLUE_DELAY" envDefault:"5m"`

	WiseOldManBaseURL  string        `env:"WISEOLDMAN_BASE_URL" envDefault:"https://api.wiseoldman.net/v2"`
	WiseOldManInterval time.Duration `env:"WISEOLDMAN_MIN_INTERVAL" envDefault:"1s"`
}

// Load reads configuration from the environment. A missing required
// value aborts startup; there is no partial boot.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
