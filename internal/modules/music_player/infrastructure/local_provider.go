package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dhowden/tag"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
)

var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
	".wav":  true,
	".opus": true,
	".webm": true,
}

// errOutsideLibrary is returned for paths that escape the library root.
var errOutsideLibrary = errors.New("path is outside the music library")

// LocalProvider serves audio files from a directory tree.
// Track IDs are slash-separated paths relative to the root.
type LocalProvider struct {
	root string

	mu     sync.RWMutex
	tracks []domain.TrackDescriptor
}

// NewLocalProvider scans root and returns a provider for it.
func NewLocalProvider(ctx context.Context, root string) (*LocalProvider, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve library root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open library root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("library root %s is not a directory", abs)
	}

	p := &LocalProvider{root: abs}
	if err := p.Rescan(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Rescan rebuilds the track index from disk.
func (p *LocalProvider) Rescan(ctx context.Context) error {
	var tracks []domain.TrackDescriptor

	err := filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !audioExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(p.root, path)
		if err != nil {
			return nil
		}
		tracks = append(tracks, describeFile(path, filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan library: %w", err)
	}

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].ID < tracks[j].ID })

	p.mu.Lock()
	p.tracks = tracks
	p.mu.Unlock()

	slog.Info("scanned local music library", "root", p.root, "tracks", len(tracks))
	return nil
}

// Len returns the number of indexed tracks.
func (p *LocalProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.tracks)
}

// Resolve accepts a library-relative path or a search query.
func (p *LocalProvider) Resolve(_ context.Context, input string) (domain.TrackDescriptor, error) {
	query := strings.TrimSpace(input)
	if query == "" {
		return domain.TrackDescriptor{}, domain.ErrResolution
	}

	if path, err := p.path(query); err == nil {
		if info, statErr := os.Stat(path); statErr == nil && !info.IsDir() {
			return describeFile(path, filepath.ToSlash(filepath.Clean(query))), nil
		}
	}

	matches := p.match(query, 1)
	if len(matches) == 0 {
		return domain.TrackDescriptor{}, domain.ErrResolution
	}
	return matches[0], nil
}

// Search matches the query against titles, artists and file paths.
func (p *LocalProvider) Search(
	_ context.Context,
	query string,
	limit int,
) ([]domain.TrackDescriptor, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return p.match(strings.TrimSpace(query), limit), nil
}

// StreamFor opens the file behind the track.
func (p *LocalProvider) StreamFor(
	_ context.Context,
	track domain.TrackDescriptor,
) (*ports.AudioStream, error) {
	path, err := p.path(track.ID)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", track.ID, err)
	}
	return &ports.AudioStream{ReadCloser: f, Duration: track.Duration}, nil
}

func (p *LocalProvider) match(query string, limit int) []domain.TrackDescriptor {
	needle := strings.ToLower(query)

	p.mu.RLock()
	defer p.mu.RUnlock()

	matches := make([]domain.TrackDescriptor, 0, min(limit, len(p.tracks)))
	for _, t := range p.tracks {
		if len(matches) == limit {
			break
		}
		if strings.Contains(strings.ToLower(t.Title), needle) ||
			strings.Contains(strings.ToLower(t.Artist), needle) ||
			strings.Contains(strings.ToLower(t.ID), needle) {
			matches = append(matches, t)
		}
	}
	return matches
}

// path maps a library-relative ID to an absolute path confined to the root.
func (p *LocalProvider) path(id string) (string, error) {
	rel := filepath.FromSlash(id)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", errOutsideLibrary, id)
	}
	return filepath.Join(p.root, rel), nil
}

// describeFile reads tags from path, falling back to the file name for the title.
func describeFile(path, id string) domain.TrackDescriptor {
	track := domain.TrackDescriptor{
		ID:       id,
		Title:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Platform: domain.PlatformLocal,
	}

	f, err := os.Open(path)
	if err != nil {
		return track
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return track
	}
	if title := strings.TrimSpace(meta.Title()); title != "" {
		track.Title = title
	}
	track.Artist = strings.TrimSpace(meta.Artist())
	return track
}

var _ ports.TrackProvider = (*LocalProvider)(nil)
