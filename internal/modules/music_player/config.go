package music_player

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
)

// maxSearchLimit is the most results a Discord embed list can show as choices.
const maxSearchLimit = 25

// Config holds the music player module configuration.
type Config struct {
	Volume       int  `env:"MUSIC_VOLUME"        envDefault:"100"`
	MaxVolume    int  `env:"MUSIC_MAX_VOLUME"    envDefault:"250"`
	Loop         bool `env:"MUSIC_LOOP"          envDefault:"false"`
	ExcludeBots  bool `env:"MUSIC_EXCLUDE_BOTS"  envDefault:"true"`
	Deaf         bool `env:"MUSIC_DEAF"          envDefault:"true"`
	ReportErrors bool `env:"MUSIC_REPORT_ERRORS" envDefault:"true"`
	AutoLeave    bool `env:"MUSIC_AUTO_LEAVE"    envDefault:"true"`

	SearchLimit int           `env:"MUSIC_SEARCH_LIMIT" envDefault:"10"`
	SearchRate  float64       `env:"MUSIC_SEARCH_RATE"  envDefault:"2"`
	SearchBurst int           `env:"MUSIC_SEARCH_BURST" envDefault:"4"`
	SearchTTL   time.Duration `env:"MUSIC_SEARCH_TTL"   envDefault:"1h"`

	LoopCacheDir string `env:"MUSIC_LOOP_CACHE_DIR" envDefault:"./temp/music-manager"`
	FFmpegPath   string `env:"FFMPEG_PATH"          envDefault:"ffmpeg"`
	LibraryDir   string `env:"MUSIC_LIBRARY_DIR"`
	HistoryDB    string `env:"MUSIC_HISTORY_DB"`

	Lavalink LavalinkConfig `envPrefix:"LAVALINK_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
}

// LavalinkConfig configures the optional Lavalink provider.
// The provider is disabled when Address is empty.
type LavalinkConfig struct {
	Address      string `env:"ADDRESS"`
	Password     string `env:"PASSWORD"`
	Secure       bool   `env:"SECURE"`
	SearchPrefix string `env:"SEARCH_PREFIX" envDefault:"ytsearch"`
}

// RedisConfig configures the optional Redis search store.
// Search results are kept in memory when Address is empty.
type RedisConfig struct {
	Address  string `env:"ADDRESS"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB"`
}

// LoadConfig parses the module configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if c.MaxVolume <= 0 {
		errs = append(errs, fmt.Errorf("MUSIC_MAX_VOLUME must be positive, got %d", c.MaxVolume))
	}
	if c.Volume < 0 || c.Volume > c.MaxVolume {
		errs = append(errs, fmt.Errorf("MUSIC_VOLUME must be between 0 and %d, got %d", c.MaxVolume, c.Volume))
	}
	if c.SearchLimit < 1 || c.SearchLimit > maxSearchLimit {
		errs = append(errs, fmt.Errorf("MUSIC_SEARCH_LIMIT must be between 1 and %d, got %d", maxSearchLimit, c.SearchLimit))
	}
	if c.SearchTTL < 0 {
		errs = append(errs, fmt.Errorf("MUSIC_SEARCH_TTL must not be negative, got %s", c.SearchTTL))
	}
	if !domain.LavalinkSearchPrefix(c.Lavalink.SearchPrefix).IsKnown() {
		errs = append(errs, fmt.Errorf("unknown LAVALINK_SEARCH_PREFIX %q", c.Lavalink.SearchPrefix))
	}

	return errors.Join(errs...)
}
