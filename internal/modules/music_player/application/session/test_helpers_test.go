package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
)

const (
	testGuildID        = snowflake.ID(1)
	testVoiceChannelID = snowflake.ID(2)
	testTextChannelID  = snowflake.ID(3)
)

// fakeStream is an in-memory audio stream that records Close.
type fakeStream struct {
	*strings.Reader
	mu     sync.Mutex
	closed bool
}

func newFakeStream(data string) *fakeStream {
	return &fakeStream{Reader: strings.NewReader(data)}
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// fakeSink plays nothing; tests drive completion with finish.
type fakeSink struct {
	mu            sync.Mutex
	current       io.ReadCloser
	plays         int
	volume        float64
	paused        bool
	stops         int
	disconnects   int
	playErr       error
	disconnectErr error
	idle          func()

	// beforeStop, when set, sees the current stream before Stop closes it.
	beforeStop func(io.ReadCloser)
}

func (s *fakeSink) Play(stream io.ReadCloser, volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playErr != nil {
		return s.playErr
	}
	s.current = stream
	s.plays++
	s.volume = volume
	s.paused = false
	return nil
}

func (s *fakeSink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

func (s *fakeSink) Unpause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

func (s *fakeSink) Stop() {
	s.mu.Lock()
	current := s.current
	s.current = nil
	s.stops++
	idle := s.idle
	beforeStop := s.beforeStop
	s.mu.Unlock()

	if current != nil {
		if beforeStop != nil {
			beforeStop(current)
		}
		_ = current.Close()
		idle()
	}
}

func (s *fakeSink) SetVolume(volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = volume
}

func (s *fakeSink) OnIdle(callback func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idle = callback
}

func (s *fakeSink) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnects++
	return s.disconnectErr
}

// finish plays the current stream to EOF and reports idle. Returns the bytes played.
func (s *fakeSink) finish(t *testing.T) string {
	t.Helper()

	s.mu.Lock()
	current := s.current
	s.current = nil
	idle := s.idle
	s.mu.Unlock()

	if current == nil {
		t.Fatal("expected sink to be playing")
	}
	data, err := io.ReadAll(current)
	if err != nil {
		t.Fatalf("failed to read stream: %v", err)
	}
	_ = current.Close()
	idle()
	return string(data)
}

func (s *fakeSink) isPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// fakeProvider resolves any input to a descriptor whose ID is the input.
type fakeProvider struct {
	mu             sync.Mutex
	resolveErr     error
	searchResults  []domain.TrackDescriptor
	searchErr      error
	searchLimits   []int
	streamErrs     map[string]error
	streamDuration time.Duration
	streamCalls    []string
	opened         []*fakeStream

	// When set, StreamFor signals entered and blocks until gate is closed.
	gate    chan struct{}
	entered chan struct{}
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		streamErrs:     make(map[string]error),
		streamDuration: 3 * time.Minute,
	}
}

func (p *fakeProvider) Resolve(_ context.Context, input string) (domain.TrackDescriptor, error) {
	if p.resolveErr != nil {
		return domain.TrackDescriptor{}, p.resolveErr
	}
	return domain.TrackDescriptor{
		ID:       input,
		Title:    "Track " + input,
		Duration: 2 * time.Minute,
	}, nil
}

func (p *fakeProvider) Search(
	_ context.Context,
	_ string,
	limit int,
) ([]domain.TrackDescriptor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.searchLimits = append(p.searchLimits, limit)
	if p.searchErr != nil {
		return nil, p.searchErr
	}
	return slices.Clone(p.searchResults), nil
}

func (p *fakeProvider) StreamFor(
	_ context.Context,
	track domain.TrackDescriptor,
) (*ports.AudioStream, error) {
	p.mu.Lock()
	p.streamCalls = append(p.streamCalls, track.ID)
	err := p.streamErrs[track.ID]
	gate, entered := p.gate, p.entered
	p.mu.Unlock()

	if gate != nil {
		entered <- struct{}{}
		<-gate
	}
	if err != nil {
		return nil, err
	}

	stream := newFakeStream("audio-" + track.ID)
	p.mu.Lock()
	p.opened = append(p.opened, stream)
	p.mu.Unlock()

	return &ports.AudioStream{ReadCloser: stream, Duration: p.streamDuration}, nil
}

// ungate lets every blocked and future StreamFor call through.
func (p *fakeProvider) ungate() {
	p.mu.Lock()
	gate := p.gate
	p.gate = nil
	p.mu.Unlock()
	close(gate)
}

func (p *fakeProvider) calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.streamCalls)
}

func (p *fakeProvider) openedStreams() []*fakeStream {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.opened)
}

func (p *fakeProvider) lastOpened() *fakeStream {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.opened) == 0 {
		return nil
	}
	return p.opened[len(p.opened)-1]
}

type searchKey struct {
	guildID snowflake.ID
	key     snowflake.ID
}

type fakeSearchStore struct {
	mu      sync.Mutex
	sets    map[searchKey]domain.SearchResultSet
	getErr  error
	cleared []snowflake.ID
}

func newFakeSearchStore() *fakeSearchStore {
	return &fakeSearchStore{sets: make(map[searchKey]domain.SearchResultSet)}
}

func (s *fakeSearchStore) Get(
	_ context.Context,
	guildID, key snowflake.ID,
) (domain.SearchResultSet, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getErr != nil {
		return domain.SearchResultSet{}, false, s.getErr
	}
	set, ok := s.sets[searchKey{guildID, key}]
	return set, ok, nil
}

func (s *fakeSearchStore) Set(
	_ context.Context,
	guildID, key snowflake.ID,
	results domain.SearchResultSet,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[searchKey{guildID, key}] = results
	return nil
}

func (s *fakeSearchStore) Clear(_ context.Context, guildID snowflake.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleared = append(s.cleared, guildID)
	for k := range s.sets {
		if k.guildID == guildID {
			delete(s.sets, k)
		}
	}
	return nil
}

type fakeLoopCache struct {
	mu         sync.Mutex
	committed  map[string][]byte
	removed    []string
	captureErr error
}

func newFakeLoopCache() *fakeLoopCache {
	return &fakeLoopCache{committed: make(map[string][]byte)}
}

type fakeCapture struct {
	cache *fakeLoopCache
	key   string
	buf   bytes.Buffer
}

func (c *fakeCapture) Write(b []byte) (int, error) {
	return c.buf.Write(b)
}

func (c *fakeCapture) Commit() error {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()
	c.cache.committed[c.key] = bytes.Clone(c.buf.Bytes())
	return nil
}

func (c *fakeCapture) Abort() error {
	return nil
}

func (c *fakeLoopCache) Capture(key string) (ports.LoopCapture, error) {
	if c.captureErr != nil {
		return nil, c.captureErr
	}
	return &fakeCapture{cache: c, key: key}, nil
}

func (c *fakeLoopCache) Open(key string) (io.ReadCloser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.committed[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return newFakeStream(string(data)), nil
}

func (c *fakeLoopCache) Exists(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.committed[key]
	return ok
}

func (c *fakeLoopCache) Remove(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed = append(c.removed, key)
	delete(c.committed, key)
	return nil
}

func (c *fakeLoopCache) removedKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.removed)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// eventRecorder captures every event a player publishes.
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func recordEvents(p *Player) *eventRecorder {
	r := &eventRecorder{}
	for _, name := range domain.AllEvents() {
		p.Subscribe(name, func(ev domain.Event) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, ev)
		})
	}
	return r
}

func (r *eventRecorder) all() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

func (r *eventRecorder) names() []domain.EventName {
	events := r.all()
	names := make([]domain.EventName, len(events))
	for i, ev := range events {
		names[i] = ev.Name
	}
	return names
}

func (r *eventRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func assertEvents(t *testing.T, r *eventRecorder, expected ...domain.EventName) {
	t.Helper()
	if got := r.names(); !slices.Equal(got, expected) {
		t.Errorf("expected events %v, got %v", expected, got)
	}
}

type harness struct {
	player   *Player
	sink     *fakeSink
	provider *fakeProvider
	searches *fakeSearchStore
	loops    *fakeLoopCache
	clock    *fakeClock
	events   *eventRecorder
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()

	h := &harness{
		sink:     &fakeSink{},
		provider: newFakeProvider(),
		searches: newFakeSearchStore(),
		loops:    newFakeLoopCache(),
		clock:    newFakeClock(),
	}
	h.player = NewPlayer(testGuildID, testVoiceChannelID, testTextChannelID, cfg, Dependencies{
		Sink:      h.sink,
		Providers: ports.ProviderRegistry{domain.PlatformYouTube: h.provider},
		Searches:  h.searches,
		LoopCache: h.loops,
		Clock:     h.clock.Now,
	})
	h.events = recordEvents(h.player)
	return h
}

func (h *harness) play(t *testing.T, input string) *domain.TrackRequest {
	t.Helper()

	req, err := h.player.Play(context.Background(), input, snowflake.ID(42), domain.PlatformYouTube)
	if err != nil {
		t.Fatalf("unexpected error playing %q: %v", input, err)
	}
	return req
}

var errTest = errors.New("test failure")
