package music_player

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Volume != 100 || cfg.MaxVolume != 250 {
		t.Errorf("expected volume 100/250, got %d/%d", cfg.Volume, cfg.MaxVolume)
	}
	if cfg.Loop {
		t.Error("expected loop to default to false")
	}
	if !cfg.ExcludeBots || !cfg.Deaf || !cfg.ReportErrors || !cfg.AutoLeave {
		t.Errorf("expected boolean defaults to be true, got %+v", cfg)
	}
	if cfg.SearchLimit != 10 {
		t.Errorf("expected search limit 10, got %d", cfg.SearchLimit)
	}
	if cfg.SearchTTL != time.Hour {
		t.Errorf("expected search TTL 1h, got %s", cfg.SearchTTL)
	}
	if cfg.LoopCacheDir != "./temp/music-manager" {
		t.Errorf("unexpected loop cache dir %q", cfg.LoopCacheDir)
	}
	if cfg.Lavalink.SearchPrefix != "ytsearch" {
		t.Errorf("unexpected Lavalink search prefix %q", cfg.Lavalink.SearchPrefix)
	}
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("MUSIC_VOLUME", "40")
	t.Setenv("MUSIC_MAX_VOLUME", "150")
	t.Setenv("MUSIC_LOOP", "true")
	t.Setenv("MUSIC_EXCLUDE_BOTS", "false")
	t.Setenv("MUSIC_SEARCH_TTL", "15m")
	t.Setenv("LAVALINK_ADDRESS", "localhost:2333")
	t.Setenv("LAVALINK_PASSWORD", "youshallnotpass")
	t.Setenv("LAVALINK_SEARCH_PREFIX", "scsearch")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")
	t.Setenv("REDIS_DB", "2")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Volume != 40 || cfg.MaxVolume != 150 || !cfg.Loop || cfg.ExcludeBots {
		t.Errorf("unexpected session defaults %+v", cfg)
	}
	if cfg.SearchTTL != 15*time.Minute {
		t.Errorf("expected 15m TTL, got %s", cfg.SearchTTL)
	}
	if cfg.Lavalink.Address != "localhost:2333" || cfg.Lavalink.Password != "youshallnotpass" {
		t.Errorf("unexpected Lavalink config %+v", cfg.Lavalink)
	}
	if cfg.Lavalink.SearchPrefix != "scsearch" {
		t.Errorf("unexpected Lavalink search prefix %q", cfg.Lavalink.SearchPrefix)
	}
	if cfg.Redis.Address != "localhost:6379" || cfg.Redis.DB != 2 {
		t.Errorf("unexpected Redis config %+v", cfg.Redis)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		contains string
	}{
		{"volume above max", map[string]string{"MUSIC_VOLUME": "300"}, "MUSIC_VOLUME"},
		{"negative volume", map[string]string{"MUSIC_VOLUME": "-1"}, "MUSIC_VOLUME"},
		{"zero max volume", map[string]string{"MUSIC_MAX_VOLUME": "0", "MUSIC_VOLUME": "0"}, "MUSIC_MAX_VOLUME"},
		{"search limit too large", map[string]string{"MUSIC_SEARCH_LIMIT": "50"}, "MUSIC_SEARCH_LIMIT"},
		{"unknown prefix", map[string]string{"LAVALINK_SEARCH_PREFIX": "spsearch"}, "LAVALINK_SEARCH_PREFIX"},
		{"malformed number", map[string]string{"MUSIC_VOLUME": "loud"}, "Volume"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("expected error mentioning %s, got %v", tt.contains, err)
			}
		})
	}
}
