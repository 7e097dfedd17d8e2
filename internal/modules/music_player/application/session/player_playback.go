package session

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
)

// play starts req and keeps advancing through the queue while tracks fail to start.
func (p *Player) play(req *domain.TrackRequest) {
	for req != nil {
		req = p.startPlayback(req)
	}
}

// startPlayback acquires req's stream and hands it to the sink.
// On failure it reports the error and returns the next request to try.
func (p *Player) startPlayback(req *domain.TrackRequest) *domain.TrackRequest {
	p.mu.Lock()
	if p.destroyed || p.playing != req {
		p.mu.Unlock()
		return nil
	}
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	stream, err := p.openStream(req)

	p.mu.Lock()
	if p.destroyed || p.generation != gen {
		p.mu.Unlock()
		if stream != nil {
			_ = stream.Close()
		}
		slog.Debug("dropped stale stream", "guild", p.guildID, "track", req.Track().ID)
		return nil
	}
	if err == nil {
		err = p.beginLocked(req, stream)
	}
	if err != nil {
		next := p.failLocked(req, err)
		p.mu.Unlock()
		p.flush()
		return next
	}
	p.mu.Unlock()
	p.flush()
	return nil
}

func (p *Player) openStream(req *domain.TrackRequest) (*ports.AudioStream, error) {
	provider, err := p.provider(req.Platform(), "stream")
	if err != nil {
		return nil, err
	}

	stream, err := provider.StreamFor(p.ctx, req.Track())
	if err != nil {
		return nil, &domain.ProviderError{Platform: req.Platform(), Op: "stream", Err: err}
	}
	if stream == nil || stream.ReadCloser == nil {
		return nil, &domain.ProviderError{
			Platform: req.Platform(),
			Op:       "stream",
			Err:      domain.ErrResolution,
		}
	}
	return stream, nil
}

// beginLocked starts sink playback of stream, capturing it for loop replay.
// p.mu must be held.
func (p *Player) beginLocked(req *domain.TrackRequest, stream *ports.AudioStream) error {
	key := p.loopKey()
	if err := p.loopCache.Remove(key); err != nil {
		slog.Warn("failed to remove previous loop artifact", "guild", p.guildID, "error", err)
	}

	var src io.ReadCloser
	capture, err := p.loopCache.Capture(key)
	if err != nil {
		slog.Warn("failed to start loop capture", "guild", p.guildID, "error", err)
		src = newOnceCloser(stream.ReadCloser)
	} else {
		src = newCaptureReader(stream.ReadCloser, capture)
	}

	duration := stream.Duration
	if duration <= 0 {
		duration = req.Track().Duration
	}

	if err := p.sink.Play(src, domain.VolumeScale(p.volume)); err != nil {
		_ = src.Close()
		return fmt.Errorf("failed to start audio sink: %w", err)
	}

	p.stream = src
	p.paused = false
	p.skipped = false
	p.retry = false
	p.timing = domain.NewPlaybackTiming(p.clock(), duration)
	p.emitLocked(domain.Event{Name: domain.EventSongStart, Track: req})

	slog.Debug("started track",
		"guild", p.guildID,
		"track", req.Track().ID,
		"platform", req.Platform(),
		"queued", req.WasQueued(),
	)
	return nil
}

// failLocked reports a track that could not start and moves on to the queue head.
// p.mu must be held.
func (p *Player) failLocked(req *domain.TrackRequest, err error) *domain.TrackRequest {
	slog.Warn("failed to start track",
		"guild", p.guildID,
		"track", req.Track().ID,
		"error", err,
	)

	p.stream = nil
	p.emitLocked(domain.Event{Name: domain.EventError, Err: err})

	next := p.queue.Pop()
	p.playing = next
	if next == nil {
		p.emitLocked(domain.Event{Name: domain.EventQueueEnd})
	}
	return next
}

// handleIdle runs when the sink finishes or is stopped.
func (p *Player) handleIdle() {
	p.mu.Lock()

	if p.replayLocked() {
		p.mu.Unlock()
		p.flush()
		return
	}

	if p.destroyed || p.playing == nil {
		p.mu.Unlock()
		return
	}
	p.stream = nil

	if p.queue.IsEmpty() {
		p.playing = nil
		p.skipped = false
		p.retry = false
		p.emitLocked(domain.Event{Name: domain.EventQueueEnd})
		p.mu.Unlock()
		p.flush()
		return
	}

	if p.retry {
		p.retry = false
		req := p.playing
		p.mu.Unlock()
		p.play(req)
		return
	}

	finished := p.playing
	if p.skipped {
		p.skipped = false
		p.emitLocked(domain.Event{Name: domain.EventSongSkip, Track: finished})
	} else {
		p.emitLocked(domain.Event{Name: domain.EventSongEnd, Track: finished})
	}
	next := p.queue.Pop()
	p.playing = next
	p.mu.Unlock()
	p.flush()

	p.play(next)
}

// replayLocked plays the loop artifact of the current track again.
// Returns false when looping is off or no complete artifact exists.
// p.mu must be held.
func (p *Player) replayLocked() bool {
	if !p.looping || p.destroyed || p.playing == nil {
		return false
	}

	key := p.loopKey()
	if !p.loopCache.Exists(key) {
		return false
	}

	r, err := p.loopCache.Open(key)
	if err != nil {
		slog.Warn("failed to open loop artifact", "guild", p.guildID, "error", err)
		return false
	}

	src := newOnceCloser(r)
	if err := p.sink.Play(src, domain.VolumeScale(p.volume)); err != nil {
		_ = src.Close()
		slog.Warn("failed to replay loop artifact", "guild", p.guildID, "error", err)
		return false
	}

	p.stream = src
	p.paused = false
	p.skipped = false
	p.retry = false
	p.timing = domain.NewPlaybackTiming(p.clock(), p.timing.Duration())
	p.emitLocked(domain.Event{Name: domain.EventSongLooped, Track: p.playing})
	return true
}
