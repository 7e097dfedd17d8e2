package infrastructure

import (
	"context"
	"fmt"

	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
	"github.com/kkdai/youtube/v2"
	"github.com/raitonoberu/ytmusic"
	"golang.org/x/time/rate"
)

const youtubeMusicWatchURL = "https://music.youtube.com/watch?v="

// YouTubeMusicProvider searches YouTube Music. Audio is streamed from the
// matching YouTube video.
type YouTubeMusicProvider struct {
	youtube *YouTubeProvider
	limiter *rate.Limiter
}

// NewYouTubeMusicProvider creates a new YouTubeMusicProvider.
func NewYouTubeMusicProvider(rateCfg SearchRateConfig, yt *YouTubeProvider) *YouTubeMusicProvider {
	return &YouTubeMusicProvider{
		youtube: yt,
		limiter: newSearchLimiter(rateCfg),
	}
}

// Resolve accepts a music.youtube.com or YouTube URL, or a search query.
func (p *YouTubeMusicProvider) Resolve(ctx context.Context, input string) (domain.TrackDescriptor, error) {
	query := domain.ParseSearchQuery(input)
	if !query.IsValid() {
		return domain.TrackDescriptor{}, domain.ErrResolution
	}

	if query.IsURL {
		id, err := youtube.ExtractVideoID(query.Text)
		if err != nil {
			return domain.TrackDescriptor{}, fmt.Errorf("%w: %w", domain.ErrResolution, err)
		}
		video, err := p.youtube.client.GetVideoContext(ctx, id)
		if err != nil {
			return domain.TrackDescriptor{}, fmt.Errorf("%w: %w", domain.ErrResolution, err)
		}
		return videoDescriptor(video, domain.PlatformYouTubeMusic), nil
	}

	results, err := p.Search(ctx, query.Text, 1)
	if err != nil {
		return domain.TrackDescriptor{}, err
	}
	if len(results) == 0 {
		return domain.TrackDescriptor{}, domain.ErrResolution
	}
	return results[0], nil
}

// Search queries YouTube Music for songs.
func (p *YouTubeMusicProvider) Search(
	ctx context.Context,
	query string,
	limit int,
) ([]domain.TrackDescriptor, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := ytmusic.TrackSearch(query).Next()
	if err != nil {
		return nil, fmt.Errorf("youtube music search failed: %w", err)
	}

	tracks := make([]domain.TrackDescriptor, 0, min(limit, len(result.Tracks)))
	for _, t := range result.Tracks {
		if t.VideoID == "" {
			continue
		}
		var artist string
		if len(t.Artists) > 0 {
			artist = t.Artists[0].Name
		}
		tracks = append(tracks, domain.TrackDescriptor{
			ID:         t.VideoID,
			Title:      t.Title,
			Artist:     artist,
			URL:        youtubeMusicWatchURL + t.VideoID,
			ArtworkURL: "https://i.ytimg.com/vi/" + t.VideoID + "/hqdefault.jpg",
			Platform:   domain.PlatformYouTubeMusic,
		})
		if len(tracks) == limit {
			break
		}
	}
	return tracks, nil
}

// StreamFor streams the song from YouTube.
func (p *YouTubeMusicProvider) StreamFor(
	ctx context.Context,
	track domain.TrackDescriptor,
) (*ports.AudioStream, error) {
	return p.youtube.streamVideo(ctx, track.ID, track.URL)
}

var _ ports.TrackProvider = (*YouTubeMusicProvider)(nil)
