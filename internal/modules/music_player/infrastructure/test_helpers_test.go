package infrastructure

import (
	"io"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/events"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/session"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
)

// mockNotifier is a test double for ports.NotificationSender.
type mockNotifier struct {
	mu                sync.Mutex
	sentNowPlaying    []*ports.NowPlayingInfo
	sentQueueAdded    []*ports.QueueAddedInfo
	sentInfo          []string
	sentErrors        []string
	deletedMessages   []snowflake.ID
	sendNowPlayingErr error
	lastMessageID     snowflake.ID
}

func (m *mockNotifier) SendNowPlaying(
	_ snowflake.ID,
	info *ports.NowPlayingInfo,
) (snowflake.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendNowPlayingErr != nil {
		return 0, m.sendNowPlayingErr
	}
	m.sentNowPlaying = append(m.sentNowPlaying, info)
	m.lastMessageID++
	return m.lastMessageID, nil
}

func (m *mockNotifier) DeleteMessage(_ snowflake.ID, messageID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedMessages = append(m.deletedMessages, messageID)
	return nil
}

func (m *mockNotifier) SendQueueAdded(_ snowflake.ID, info *ports.QueueAddedInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentQueueAdded = append(m.sentQueueAdded, info)
	return nil
}

func (m *mockNotifier) SendInfo(_ snowflake.ID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentInfo = append(m.sentInfo, message)
	return nil
}

func (m *mockNotifier) SendError(_ snowflake.ID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentErrors = append(m.sentErrors, message)
	return nil
}

// stubRequesters is a test double for ports.RequesterDirectory.
type stubRequesters struct {
	info *ports.Requester
	err  error
}

func (m *stubRequesters) LookupRequester(_, _ snowflake.ID) (*ports.Requester, error) {
	return m.info, m.err
}

// nopSink accepts every call and never reports idle.
type nopSink struct{}

func (nopSink) Play(stream io.ReadCloser, _ float64) error { return nil }
func (nopSink) Pause() {}
func (nopSink) Unpause() {}
func (nopSink) Stop() {}
func (nopSink) SetVolume(float64) {}
func (nopSink) OnIdle(func()) {}
func (nopSink) Disconnect() error { return nil }

const (
	testGuildID       = snowflake.ID(1)
	testTextChannelID = snowflake.ID(3)
)

func newTestPlayer() *session.Player {
	return session.NewPlayer(testGuildID, snowflake.ID(2), testTextChannelID, session.Config{}, session.Dependencies{
		Sink:      nopSink{},
		Providers: ports.ProviderRegistry{},
		Searches:  NewMemorySearchStore(),
		LoopCache: NewMemoryLoopCache(),
	})
}

func newSessionDispatcher() *events.Dispatcher[domain.EventName, session.SessionEvent] {
	return events.NewDispatcher[domain.EventName, session.SessionEvent]()
}

func testRequest(id string, requesterID snowflake.ID) *domain.TrackRequest {
	return domain.NewTrackRequest(
		domain.TrackDescriptor{
			ID:       id,
			Title:    "Track " + id,
			Artist:   "Artist",
			URL:      "https://www.youtube.com/watch?v=" + id,
			Duration: 3 * time.Minute,
		},
		domain.PlatformYouTube,
		requesterID,
		false,
		time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	)
}

func publish(
	d *events.Dispatcher[domain.EventName, session.SessionEvent],
	player *session.Player,
	ev domain.Event,
) {
	d.Publish(ev.Name, session.SessionEvent{Event: ev, Session: player})
}
