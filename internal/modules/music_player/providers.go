package music_player

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
	"github.com/frostzzone/frost-music/internal/modules/music_player/infrastructure"
)

// Providers is the set of track providers built from Config.
type Providers struct {
	Registry ports.ProviderRegistry

	lavalink *infrastructure.LavalinkProvider
}

// NewProviders builds every configured provider. YouTube and YouTube Music are
// always available. Lavalink needs an address and the bot's user ID; the local
// library needs MUSIC_LIBRARY_DIR.
func NewProviders(ctx context.Context, cfg *Config, botID snowflake.ID) (*Providers, error) {
	rateCfg := infrastructure.SearchRateConfig{
		PerSecond: cfg.SearchRate,
		Burst:     cfg.SearchBurst,
	}
	streamer := infrastructure.NewYtdlpStreamer()
	youtube := infrastructure.NewYouTubeProvider(rateCfg, streamer)

	p := &Providers{
		Registry: ports.ProviderRegistry{
			domain.PlatformYouTube:      youtube,
			domain.PlatformYouTubeMusic: infrastructure.NewYouTubeMusicProvider(rateCfg, youtube),
		},
	}

	if cfg.LibraryDir != "" {
		local, err := infrastructure.NewLocalProvider(ctx, cfg.LibraryDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open music library: %w", err)
		}
		p.Registry[domain.PlatformLocal] = local
	}

	switch {
	case cfg.Lavalink.Address == "":
	case botID == 0:
		slog.Warn("Lavalink configured but bot ID unknown, Lavalink provider disabled")
	default:
		lavalink, err := infrastructure.NewLavalinkProvider(ctx, botID, infrastructure.LavalinkConfig{
			Address:      cfg.Lavalink.Address,
			Password:     cfg.Lavalink.Password,
			Secure:       cfg.Lavalink.Secure,
			SearchPrefix: domain.LavalinkSearchPrefix(cfg.Lavalink.SearchPrefix),
		}, streamer)
		if err != nil {
			return nil, err
		}
		p.lavalink = lavalink
		p.Registry[domain.PlatformLavalink] = lavalink
	}

	return p, nil
}

// Close releases provider connections.
func (p *Providers) Close() {
	if p.lavalink != nil {
		p.lavalink.Close()
	}
}
