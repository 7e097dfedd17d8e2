package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
	"github.com/kkdai/youtube/v2"
	"github.com/ppalone/ytsearch"
	"golang.org/x/time/rate"
)

const (
	defaultSearchLimit = 10
	youtubeWatchURL    = "https://www.youtube.com/watch?v="
	opusItag           = 251
)

// SearchRateConfig throttles upstream search requests.
// A non-positive PerSecond disables throttling.
type SearchRateConfig struct {
	PerSecond float64
	Burst     int
}

func newSearchLimiter(cfg SearchRateConfig) *rate.Limiter {
	if cfg.PerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.PerSecond), burst)
}

// YouTubeProvider resolves and streams YouTube videos.
// Metadata and streams come from kkdai/youtube; yt-dlp is used when that fails.
type YouTubeProvider struct {
	client   *youtube.Client
	limiter  *rate.Limiter
	fallback *YtdlpStreamer
}

// NewYouTubeProvider creates a new YouTubeProvider.
func NewYouTubeProvider(rateCfg SearchRateConfig, fallback *YtdlpStreamer) *YouTubeProvider {
	return &YouTubeProvider{
		client:   &youtube.Client{},
		limiter:  newSearchLimiter(rateCfg),
		fallback: fallback,
	}
}

// Resolve accepts a video URL, a bare video ID or a search query.
func (p *YouTubeProvider) Resolve(ctx context.Context, input string) (domain.TrackDescriptor, error) {
	query := domain.ParseSearchQuery(input)
	if !query.IsValid() {
		return domain.TrackDescriptor{}, domain.ErrResolution
	}

	if id, err := youtube.ExtractVideoID(query.Text); err == nil {
		video, err := p.client.GetVideoContext(ctx, id)
		if err == nil {
			return videoDescriptor(video, domain.PlatformYouTube), nil
		}
		if query.IsURL {
			return domain.TrackDescriptor{}, fmt.Errorf("%w: %w", domain.ErrResolution, err)
		}
		// Eleven characters of plain text can look like an ID; treat it as a query.
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

// Search queries YouTube for videos.
func (p *YouTubeProvider) Search(
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

	res, err := ytsearch.NewClient(nil).Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("youtube search failed: %w", err)
	}

	tracks := make([]domain.TrackDescriptor, 0, min(limit, len(res.Results)))
	for _, r := range res.Results {
		if r.VideoID == "" {
			continue
		}
		tracks = append(tracks, domain.TrackDescriptor{
			ID:         r.VideoID,
			Title:      r.Title,
			Artist:     r.Channel,
			URL:        youtubeWatchURL + r.VideoID,
			ArtworkURL: "https://i.ytimg.com/vi/" + r.VideoID + "/hqdefault.jpg",
			Duration:   parseClockDuration(r.Duration),
			Platform:   domain.PlatformYouTube,
		})
		if len(tracks) == limit {
			break
		}
	}
	return tracks, nil
}

// StreamFor opens the best audio format of the video.
func (p *YouTubeProvider) StreamFor(
	ctx context.Context,
	track domain.TrackDescriptor,
) (*ports.AudioStream, error) {
	return p.streamVideo(ctx, track.ID, track.URL)
}

func (p *YouTubeProvider) streamVideo(ctx context.Context, id, url string) (*ports.AudioStream, error) {
	if id == "" {
		extracted, err := youtube.ExtractVideoID(url)
		if err != nil {
			return nil, fmt.Errorf("no video id for %q: %w", url, err)
		}
		id = extracted
	}

	stream, duration, err := p.kkdaiStream(ctx, id)
	if err == nil {
		return &ports.AudioStream{ReadCloser: stream, Duration: duration}, nil
	}
	if p.fallback == nil {
		return nil, err
	}

	slog.Warn("kkdai stream failed, falling back to yt-dlp", "video", id, "error", err)
	rc, ytdlpErr := p.fallback.Stream(ctx, youtubeWatchURL+id)
	if ytdlpErr != nil {
		return nil, fmt.Errorf("stream failed: %w (yt-dlp: %w)", err, ytdlpErr)
	}
	return &ports.AudioStream{ReadCloser: rc}, nil
}

func (p *YouTubeProvider) kkdaiStream(ctx context.Context, id string) (io.ReadCloser, time.Duration, error) {
	video, err := p.client.GetVideoContext(ctx, id)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get video: %w", err)
	}

	format := bestAudioFormat(video.Formats)
	if format == nil {
		return nil, 0, fmt.Errorf("no audio formats for video %s", id)
	}

	stream, _, err := p.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open stream: %w", err)
	}
	return stream, video.Duration, nil
}

// bestAudioFormat prefers Opus audio-only formats, then the highest quality audio.
func bestAudioFormat(formats youtube.FormatList) *youtube.Format {
	audio := formats.WithAudioChannels().Type("audio")
	if len(audio) == 0 {
		audio = formats.WithAudioChannels()
	}
	if len(audio) == 0 {
		return nil
	}

	for i := range audio {
		if audio[i].ItagNo == opusItag {
			return &audio[i]
		}
	}
	for i := range audio {
		if strings.Contains(audio[i].MimeType, "opus") {
			return &audio[i]
		}
	}
	audio.Sort()
	return &audio[0]
}

func videoDescriptor(video *youtube.Video, platform domain.Platform) domain.TrackDescriptor {
	var artwork string
	if n := len(video.Thumbnails); n > 0 {
		artwork = video.Thumbnails[n-1].URL
	}
	url := youtubeWatchURL + video.ID
	if platform == domain.PlatformYouTubeMusic {
		url = youtubeMusicWatchURL + video.ID
	}
	return domain.TrackDescriptor{
		ID:         video.ID,
		Title:      video.Title,
		Artist:     video.Author,
		URL:        url,
		ArtworkURL: artwork,
		Duration:   video.Duration,
		Platform:   platform,
		IsStream:   video.Duration == 0,
	}
}

var _ ports.TrackProvider = (*YouTubeProvider)(nil)
