package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
)

// errNoLavalinkNode is returned when no Lavalink node is available.
var errNoLavalinkNode = errors.New("no available Lavalink node")

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address      string
	Password     string
	Secure       bool
	SearchPrefix domain.LavalinkSearchPrefix
}

// trackLoader is the part of a Lavalink node used for track lookup.
type trackLoader interface {
	LoadTracks(ctx context.Context, identifier string) (*lavalink.LoadResult, error)
}

// LavalinkProvider resolves tracks through a Lavalink node's track loader.
// Lavalink does not hand out audio, so streams are piped through yt-dlp from the track URI.
type LavalinkProvider struct {
	link     disgolink.Client
	prefix   domain.LavalinkSearchPrefix
	streamer *YtdlpStreamer

	// loader overrides BestNode in tests.
	loader trackLoader
}

// NewLavalinkProvider connects to the configured Lavalink node.
func NewLavalinkProvider(
	ctx context.Context,
	botID snowflake.ID,
	config LavalinkConfig,
	streamer *YtdlpStreamer,
) (*LavalinkProvider, error) {
	link := disgolink.New(botID)

	node, err := link.AddNode(ctx, disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   config.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)

	prefix := config.SearchPrefix
	if prefix == "" {
		prefix = domain.PrefixYouTube
	}

	return &LavalinkProvider{
		link:     link,
		prefix:   prefix,
		streamer: streamer,
	}, nil
}

// Close disconnects from all Lavalink nodes.
func (p *LavalinkProvider) Close() {
	if p.link != nil {
		p.link.Close()
	}
}

// Resolve loads a URL or searches for free text and returns the first track.
func (p *LavalinkProvider) Resolve(ctx context.Context, input string) (domain.TrackDescriptor, error) {
	query := domain.ParseSearchQuery(input)
	if !query.IsValid() {
		return domain.TrackDescriptor{}, domain.ErrResolution
	}

	tracks, err := p.load(ctx, query.LavalinkIdentifier(p.prefix))
	if err != nil {
		return domain.TrackDescriptor{}, err
	}
	if len(tracks) == 0 {
		return domain.TrackDescriptor{}, domain.ErrResolution
	}
	return tracks[0], nil
}

// Search runs a prefixed search on the Lavalink node.
func (p *LavalinkProvider) Search(
	ctx context.Context,
	query string,
	limit int,
) ([]domain.TrackDescriptor, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	tracks, err := p.load(ctx, domain.ParseSearchQuery(query).LavalinkIdentifier(p.prefix))
	if err != nil {
		return nil, err
	}
	if len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return tracks, nil
}

// StreamFor pipes the track URI through yt-dlp.
func (p *LavalinkProvider) StreamFor(
	ctx context.Context,
	track domain.TrackDescriptor,
) (*ports.AudioStream, error) {
	if track.URL == "" {
		return nil, fmt.Errorf("track %s has no uri to stream", track.ID)
	}
	rc, err := p.streamer.Stream(ctx, track.URL)
	if err != nil {
		return nil, err
	}
	return &ports.AudioStream{ReadCloser: rc, Duration: track.Duration}, nil
}

func (p *LavalinkProvider) load(ctx context.Context, identifier string) ([]domain.TrackDescriptor, error) {
	loader := p.loader
	if loader == nil {
		node := p.link.BestNode()
		if node == nil {
			return nil, errNoLavalinkNode
		}
		loader = node
	}

	result, err := loader.LoadTracks(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}
	return convertLoadResult(result)
}

// convertLoadResult flattens a Lavalink load result into descriptors.
func convertLoadResult(result *lavalink.LoadResult) ([]domain.TrackDescriptor, error) {
	switch data := result.Data.(type) {
	case lavalink.Track:
		return []domain.TrackDescriptor{convertTrack(data)}, nil

	case lavalink.Playlist:
		tracks := make([]domain.TrackDescriptor, len(data.Tracks))
		for i, track := range data.Tracks {
			tracks[i] = convertTrack(track)
		}
		return tracks, nil

	case lavalink.Search:
		tracks := make([]domain.TrackDescriptor, len(data))
		for i, track := range data {
			tracks[i] = convertTrack(track)
		}
		return tracks, nil

	case lavalink.Exception:
		return nil, fmt.Errorf("lavalink load failed: %s", data.Message)

	default:
		return []domain.TrackDescriptor{}, nil
	}
}

// convertTrack converts a Lavalink track to a descriptor.
func convertTrack(track lavalink.Track) domain.TrackDescriptor {
	info := track.Info
	return domain.TrackDescriptor{
		ID:         info.Identifier,
		Title:      info.Title,
		Artist:     info.Author,
		URL:        derefString(info.URI),
		ArtworkURL: derefString(info.ArtworkURL),
		Duration:   time.Duration(info.Length) * time.Millisecond,
		Platform:   domain.PlatformLavalink,
		IsStream:   info.IsStream,
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ ports.TrackProvider = (*LavalinkProvider)(nil)
