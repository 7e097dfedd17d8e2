package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/frostzzone/frost-music/internal/bot"
	"github.com/frostzzone/frost-music/internal/logging"
	"github.com/frostzzone/frost-music/internal/modules/music_player"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
	"github.com/spf13/cobra"
)

const searchTimeout = 30 * time.Second

var (
	indexColor  = color.New(color.FgHiBlack)
	titleColor  = color.New(color.FgHiWhite, color.Bold)
	detailColor = color.New(color.FgHiMagenta)
)

func newSearchCommand() *cobra.Command {
	var (
		platform string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search a track provider without connecting to Discord",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), searchTimeout)
			defer cancel()
			return runSearch(ctx, cmd.OutOrStdout(), strings.Join(args, " "), platform, limit)
		},
	}

	cmd.Flags().StringVarP(&platform, "platform", "p", string(domain.DefaultPlatform),
		"provider to search (youtube, ytmusic, local)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of results (0 uses MUSIC_SEARCH_LIMIT)")

	return cmd
}

func runSearch(ctx context.Context, out io.Writer, query, platformName string, limit int) error {
	bot.LoadDotEnv()

	cfg, err := music_player.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Keep stdout for results
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logging.ParseLevel(os.Getenv("LOG_LEVEL")),
	})))

	// Lavalink needs a bot user ID, so it is never available here
	providers, err := music_player.NewProviders(ctx, cfg, 0)
	if err != nil {
		return err
	}
	defer providers.Close()

	platform := domain.ParsePlatform(platformName)
	provider, ok := providers.Registry.Lookup(platform)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownPlatform, platformName)
	}

	if limit <= 0 {
		limit = cfg.SearchLimit
	}

	tracks, err := provider.Search(ctx, query, limit)
	if err != nil {
		return &domain.ProviderError{Platform: platform, Op: "search", Err: err}
	}
	if len(tracks) > limit {
		tracks = tracks[:limit]
	}

	printTracks(out, platform, tracks)
	return nil
}

func printTracks(out io.Writer, platform domain.Platform, tracks []domain.TrackDescriptor) {
	if len(tracks) == 0 {
		fmt.Fprintf(out, "No results on %s.\n", platform.DisplayName())
		return
	}

	for i, track := range tracks {
		_, _ = indexColor.Fprintf(out, "%2d. ", i+1)
		_, _ = titleColor.Fprint(out, track.DisplayTitle())
		if track.Artist != "" {
			fmt.Fprintf(out, " - %s", track.Artist)
		}
		if track.IsStream {
			_, _ = detailColor.Fprint(out, " [live]")
		} else if track.Duration > 0 {
			_, _ = detailColor.Fprintf(out, " [%s]", track.FormattedDuration())
		}
		fmt.Fprintln(out)
		if track.URL != "" {
			fmt.Fprintf(out, "    %s\n", track.URL)
		}
	}
}
