package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/events"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
	"github.com/google/uuid"
)

// Config holds the initial settings of a session.
type Config struct {
	Volume    int
	MaxVolume int
	Loop      bool
}

// Dependencies are the collaborators a Player drives. All fields except Clock are required.
type Dependencies struct {
	Sink      ports.AudioSink
	Providers ports.ProviderRegistry
	Searches  ports.SearchStore
	LoopCache ports.LoopCache
	Clock     func() time.Time
}

// Player is the playback state machine of a single guild.
//
// State is mutated under mu. Events produced by a mutation are queued and
// delivered in order after mu is released, so handlers may call back into
// the Player.
type Player struct {
	id             uuid.UUID
	guildID        snowflake.ID
	voiceChannelID snowflake.ID
	textChannelID  snowflake.ID

	sink       ports.AudioSink
	providers  ports.ProviderRegistry
	searches   ports.SearchStore
	loopCache  ports.LoopCache
	clock      func() time.Time
	dispatcher *events.Dispatcher[domain.EventName, domain.Event]

	// ctx bounds stream acquisition and is cancelled on destroy.
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	playing    *domain.TrackRequest
	queue      domain.Queue
	timing     domain.PlaybackTiming
	volume     int
	maxVolume  int
	looping    bool
	paused     bool
	skipped    bool
	retry      bool
	destroyed  bool
	generation uint64
	stream     io.ReadCloser

	outboxMu sync.Mutex
	outbox   []domain.Event
	draining bool
}

// NewPlayer creates a Player bound to an already connected sink.
func NewPlayer(
	guildID, voiceChannelID, textChannelID snowflake.ID,
	cfg Config,
	deps Dependencies,
) *Player {
	maxVolume := cfg.MaxVolume
	if maxVolume <= 0 {
		maxVolume = domain.DefaultMaxVolume
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Player{
		id:             uuid.New(),
		guildID:        guildID,
		voiceChannelID: voiceChannelID,
		textChannelID:  textChannelID,
		sink:           deps.Sink,
		providers:      deps.Providers,
		searches:       deps.Searches,
		loopCache:      deps.LoopCache,
		clock:          clock,
		dispatcher:     events.NewDispatcher[domain.EventName, domain.Event](),
		ctx:            ctx,
		cancel:         cancel,
		queue:          domain.NewQueue(),
		volume:         domain.ClampVolume(cfg.Volume, maxVolume),
		maxVolume:      maxVolume,
		looping:        cfg.Loop,
	}
	p.sink.OnIdle(p.handleIdle)
	return p
}

// LoopKey returns the loop cache key of the session in a guild's voice channel.
func LoopKey(guildID, voiceChannelID snowflake.ID) string {
	return fmt.Sprintf("%d_%d", guildID, voiceChannelID)
}

// Subscribe registers handler for the named event.
func (p *Player) Subscribe(
	name domain.EventName,
	handler events.Handler[domain.Event],
) events.SubscriptionID {
	return p.dispatcher.Subscribe(name, handler)
}

// Unsubscribe removes a handler registered with Subscribe.
func (p *Player) Unsubscribe(name domain.EventName, id events.SubscriptionID) bool {
	return p.dispatcher.Unsubscribe(name, id)
}

// SessionID returns the unique ID of this session.
func (p *Player) SessionID() uuid.UUID {
	return p.id
}

// GuildID returns the guild the session belongs to.
func (p *Player) GuildID() snowflake.ID {
	return p.guildID
}

// VoiceChannelID returns the voice channel the session plays into.
func (p *Player) VoiceChannelID() snowflake.ID {
	return p.voiceChannelID
}

// TextChannelID returns the channel notifications are sent to.
func (p *Player) TextChannelID() snowflake.ID {
	return p.textChannelID
}

// NowPlaying returns the playing request, or nil.
func (p *Player) NowPlaying() *domain.TrackRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Queue returns the pending requests in order.
func (p *Player) Queue() []*domain.TrackRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.List()
}

// Volume returns the volume percentage.
func (p *Player) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// MaxVolume returns the volume ceiling.
func (p *Player) MaxVolume() int {
	return p.maxVolume
}

// IsLooping reports whether the playing track repeats.
func (p *Player) IsLooping() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.looping
}

// IsPaused reports whether playback is paused.
func (p *Player) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// IsDestroyed reports whether the session has left.
func (p *Player) IsDestroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

// Status returns the current playback state.
func (p *Player) Status() domain.Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.destroyed:
		return domain.StatusDestroyed
	case p.playing == nil:
		return domain.StatusEmpty
	case p.paused:
		return domain.StatusPaused
	default:
		return domain.StatusPlaying
	}
}

// Timestamps returns the timing of the playing track.
// While paused the window is re-baselined to now first.
func (p *Player) Timestamps() domain.PlaybackTiming {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		p.timing.Rebaseline(p.clock())
	}
	return p.timing
}

// Pause suspends playback. Returns false if already paused or destroyed.
func (p *Player) Pause() bool {
	p.mu.Lock()
	if p.destroyed || p.paused {
		p.mu.Unlock()
		return false
	}
	p.paused = true
	p.timing.Freeze(p.clock())
	p.sink.Pause()
	p.emitLocked(domain.Event{Name: domain.EventPaused})
	p.mu.Unlock()

	p.flush()
	return true
}

// Unpause resumes playback. Returns false if not paused or destroyed.
func (p *Player) Unpause() bool {
	p.mu.Lock()
	if p.destroyed || !p.paused {
		p.mu.Unlock()
		return false
	}
	p.paused = false
	p.timing.Thaw(p.clock())
	p.sink.Unpause()
	p.emitLocked(domain.Event{Name: domain.EventResumed})
	p.mu.Unlock()

	p.flush()
	return true
}

// SetVolume clamps v to [0, MaxVolume], applies it and returns the applied value.
func (p *Player) SetVolume(v int) int {
	p.mu.Lock()
	if p.destroyed {
		defer p.mu.Unlock()
		return p.volume
	}
	p.volume = domain.ClampVolume(v, p.maxVolume)
	applied := p.volume
	p.sink.SetVolume(domain.VolumeScale(applied))
	p.emitLocked(domain.Event{Name: domain.EventVolumeChange, Volume: applied})
	p.mu.Unlock()

	p.flush()
	return applied
}

// ToggleLoop flips looping and returns the new value.
func (p *Player) ToggleLoop() bool {
	return p.setLoop(func(current bool) bool { return !current })
}

// SetLoop sets looping and returns the new value.
func (p *Player) SetLoop(looping bool) bool {
	return p.setLoop(func(bool) bool { return looping })
}

func (p *Player) setLoop(next func(current bool) bool) bool {
	p.mu.Lock()
	if p.destroyed {
		defer p.mu.Unlock()
		return p.looping
	}
	p.looping = next(p.looping)
	looping := p.looping
	p.emitLocked(domain.Event{Name: domain.EventLoopToggled, Looping: looping})
	p.mu.Unlock()

	p.flush()
	return looping
}

// SkipSong stops the playing track; the idle transition reports it as skipped.
// A track whose stream is still being acquired is skipped immediately.
// Returns false if nothing is playing.
func (p *Player) SkipSong() bool {
	p.mu.Lock()
	if p.destroyed || p.playing == nil {
		p.mu.Unlock()
		return false
	}
	if p.stream == nil {
		next := p.skipPendingLocked()
		p.mu.Unlock()
		p.flush()
		p.play(next)
		return true
	}
	p.skipped = true
	p.mu.Unlock()

	p.sink.Stop()
	return true
}

// RetrySong stops the playing track and starts it again from the beginning.
// A track whose stream is still being acquired has its acquisition restarted.
// Returns false if nothing is playing.
func (p *Player) RetrySong() bool {
	p.mu.Lock()
	if p.destroyed || p.playing == nil {
		p.mu.Unlock()
		return false
	}
	if p.stream == nil {
		// The in-flight acquisition becomes stale and is discarded.
		p.generation++
		req := p.playing
		p.mu.Unlock()
		p.play(req)
		return true
	}
	p.retry = true
	p.mu.Unlock()

	p.sink.Stop()
	return true
}

// skipPendingLocked abandons the request whose stream is still being acquired
// and returns the queue head that replaces it.
// p.mu must be held.
func (p *Player) skipPendingLocked() *domain.TrackRequest {
	p.generation++
	skipped := p.playing

	if p.queue.IsEmpty() {
		p.playing = nil
		p.emitLocked(domain.Event{Name: domain.EventQueueEnd})
		return nil
	}

	p.emitLocked(domain.Event{Name: domain.EventSongSkip, Track: skipped})
	next := p.queue.Pop()
	p.playing = next
	return next
}

// ClearQueue drops every pending request. The playing track is unaffected.
func (p *Player) ClearQueue() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.queue.Clear()
	p.emitLocked(domain.Event{Name: domain.EventQueueClear})
	p.mu.Unlock()

	p.flush()
}

// RemoveFromQueue removes the pending request at index.
// Returns false, without publishing anything, if index is out of range.
func (p *Player) RemoveFromQueue(index int) (*domain.TrackRequest, bool) {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return nil, false
	}
	removed := p.queue.RemoveAt(index)
	if removed == nil {
		p.mu.Unlock()
		return nil, false
	}
	p.emitLocked(domain.Event{Name: domain.EventQueueRemove, Track: removed})
	p.mu.Unlock()

	p.flush()
	return removed, true
}

// Play resolves input on platform and plays or queues it.
func (p *Player) Play(
	ctx context.Context,
	input string,
	requesterID snowflake.ID,
	platform domain.Platform,
) (*domain.TrackRequest, error) {
	if p.IsDestroyed() {
		return nil, domain.ErrDestroyed
	}

	provider, err := p.provider(platform, "resolve")
	if err != nil {
		p.reportError(err)
		return nil, err
	}

	track, err := provider.Resolve(ctx, input)
	if err != nil {
		perr := &domain.ProviderError{Platform: platform, Op: "resolve", Err: err}
		p.reportError(perr)
		return nil, perr
	}
	if track.Platform == "" {
		track.Platform = platform
	}

	return p.enqueue(track, platform, requesterID)
}

// Leave destroys the session: it stops playback, disconnects from voice and
// releases every resource. It is idempotent.
func (p *Player) Leave() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.destroyed = true
	p.generation++
	stream := p.stream
	p.stream = nil
	p.emitLocked(domain.Event{Name: domain.EventLeave})
	p.mu.Unlock()
	p.flush()

	p.sink.Stop()
	if err := p.sink.Disconnect(); err != nil {
		p.logResourceError(&domain.ResourceError{Op: "disconnect voice", Err: err})
	}
	p.cancel()
	if stream != nil {
		if err := stream.Close(); err != nil {
			p.logResourceError(&domain.ResourceError{Op: "close stream", Err: err})
		}
	}
	// The stream is closed, so no capture can commit the artifact again.
	if err := p.loopCache.Remove(p.loopKey()); err != nil {
		p.logResourceError(&domain.ResourceError{Op: "remove loop artifact", Err: err})
	}
	if err := p.searches.Clear(context.Background(), p.guildID); err != nil {
		p.logResourceError(&domain.ResourceError{Op: "clear search results", Err: err})
	}

	slog.Info("destroyed session", "guild", p.guildID, "session", p.id)

	p.mu.Lock()
	p.emitLocked(domain.Event{Name: domain.EventDestroyed})
	p.mu.Unlock()
	p.flush()
}

// Destroy is equivalent to Leave.
func (p *Player) Destroy() {
	p.Leave()
}

// enqueue is the single entry point into Playing: it starts req when
// nothing is playing and queues it otherwise.
func (p *Player) enqueue(
	track domain.TrackDescriptor,
	platform domain.Platform,
	requesterID snowflake.ID,
) (*domain.TrackRequest, error) {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return nil, domain.ErrDestroyed
	}

	start := p.playing == nil
	req := domain.NewTrackRequest(track, platform, requesterID, !start, p.clock())
	if start {
		p.playing = req
	} else {
		p.queue.Push(req)
		p.emitLocked(domain.Event{Name: domain.EventQueueAdd, Track: req})
	}
	p.mu.Unlock()
	p.flush()

	if start {
		p.play(req)
	}
	return req, nil
}

func (p *Player) provider(platform domain.Platform, op string) (ports.TrackProvider, error) {
	provider, ok := p.providers.Lookup(platform)
	if !ok {
		return nil, &domain.ProviderError{Platform: platform, Op: op, Err: domain.ErrUnknownPlatform}
	}
	return provider, nil
}

func (p *Player) loopKey() string {
	return LoopKey(p.guildID, p.voiceChannelID)
}

// reportError publishes an error event unless the session is destroyed.
func (p *Player) reportError(err error) {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.emitLocked(domain.Event{Name: domain.EventError, Err: err})
	p.mu.Unlock()
	p.flush()
}

func (p *Player) logResourceError(err *domain.ResourceError) {
	slog.Warn("failed to release session resource",
		"guild", p.guildID,
		"session", p.id,
		"error", err,
	)
}

// emitLocked queues ev for delivery. p.mu must be held.
func (p *Player) emitLocked(ev domain.Event) {
	p.outboxMu.Lock()
	p.outbox = append(p.outbox, ev)
	p.outboxMu.Unlock()
}

// flush delivers queued events in order. Only one goroutine drains at a
// time; events queued by handlers are delivered by the same drain loop.
func (p *Player) flush() {
	p.outboxMu.Lock()
	if p.draining {
		p.outboxMu.Unlock()
		return
	}
	p.draining = true

	for len(p.outbox) > 0 {
		ev := p.outbox[0]
		p.outbox = p.outbox[1:]
		p.outboxMu.Unlock()

		p.dispatcher.Publish(ev.Name, ev)

		p.outboxMu.Lock()
	}

	p.draining = false
	p.outboxMu.Unlock()
}
