package ports

import (
	"context"
	"io"
	"time"

	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
)

// AudioStream is an encoded audio byte stream plus the duration the provider reports for it.
// Duration is zero when the provider does not know it.
type AudioStream struct {
	io.ReadCloser
	Duration time.Duration
}

// TrackProvider resolves, searches and streams songs for a single platform.
type TrackProvider interface {
	// Resolve turns a URL, ID or free-text query into a descriptor.
	// Free text resolves to the first search hit.
	Resolve(ctx context.Context, input string) (domain.TrackDescriptor, error)

	// Search returns up to limit descriptors. A limit of 0 means the provider default.
	// An empty slice is a valid result.
	Search(ctx context.Context, query string, limit int) ([]domain.TrackDescriptor, error)

	// StreamFor opens the audio stream for a descriptor previously returned by this provider.
	StreamFor(ctx context.Context, track domain.TrackDescriptor) (*AudioStream, error)
}

// ProviderRegistry maps platform keys to providers.
type ProviderRegistry map[domain.Platform]TrackProvider

// Lookup returns the provider for platform.
func (r ProviderRegistry) Lookup(platform domain.Platform) (TrackProvider, bool) {
	p, ok := r[platform]
	return p, ok && p != nil
}

// Platforms returns the registered platform keys.
func (r ProviderRegistry) Platforms() []domain.Platform {
	platforms := make([]domain.Platform, 0, len(r))
	for platform, p := range r {
		if p != nil {
			platforms = append(platforms, platform)
		}
	}
	return platforms
}
