package discord

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/session"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
)

const (
	testGuildID        = snowflake.ID(1)
	testVoiceChannelID = snowflake.ID(2)
	testTextChannelID  = snowflake.ID(3)
	testUserID         = snowflake.ID(42)
	testBotID          = snowflake.ID(99)
)

// stubSink accepts streams and never finishes them on its own.
type stubSink struct {
	mu      sync.Mutex
	current io.ReadCloser
	idle    func()
}

func (s *stubSink) Play(stream io.ReadCloser, _ float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = stream
	return nil
}

func (s *stubSink) Pause() {}
func (s *stubSink) Unpause() {}
func (s *stubSink) SetVolume(float64) {}
func (s *stubSink) Disconnect() error { return nil }

func (s *stubSink) Stop() {
	s.mu.Lock()
	current := s.current
	s.current = nil
	idle := s.idle
	s.mu.Unlock()

	if current != nil {
		_ = current.Close()
		idle()
	}
}

func (s *stubSink) OnIdle(callback func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idle = callback
}

type stubSinkFactory struct{}

func (stubSinkFactory) Connect(context.Context, snowflake.ID, snowflake.ID) (ports.AudioSink, error) {
	return &stubSink{}, nil
}

// stubProvider resolves any input to a track titled after it.
type stubProvider struct {
	results []domain.TrackDescriptor
}

func (p *stubProvider) Resolve(_ context.Context, input string) (domain.TrackDescriptor, error) {
	return domain.TrackDescriptor{
		ID:       input,
		Title:    input,
		URL:      "https://example.com/" + input,
		Duration: 3 * time.Minute,
	}, nil
}

func (p *stubProvider) Search(context.Context, string, int) ([]domain.TrackDescriptor, error) {
	return append([]domain.TrackDescriptor(nil), p.results...), nil
}

func (p *stubProvider) StreamFor(context.Context, domain.TrackDescriptor) (*ports.AudioStream, error) {
	return &ports.AudioStream{ReadCloser: io.NopCloser(strings.NewReader("audio"))}, nil
}

type memorySearches struct {
	mu   sync.Mutex
	sets map[[2]snowflake.ID]domain.SearchResultSet
}

func (s *memorySearches) Get(
	_ context.Context,
	guildID, key snowflake.ID,
) (domain.SearchResultSet, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[[2]snowflake.ID{guildID, key}]
	return set, ok, nil
}

func (s *memorySearches) Set(
	_ context.Context,
	guildID, key snowflake.ID,
	results domain.SearchResultSet,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sets == nil {
		s.sets = make(map[[2]snowflake.ID]domain.SearchResultSet)
	}
	s.sets[[2]snowflake.ID{guildID, key}] = results
	return nil
}

func (s *memorySearches) Clear(_ context.Context, guildID snowflake.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.sets {
		if k[0] == guildID {
			delete(s.sets, k)
		}
	}
	return nil
}

// noLoopCache never holds an artifact.
type noLoopCache struct{}

func (noLoopCache) Capture(string) (ports.LoopCapture, error) { return nopCapture{}, nil }
func (noLoopCache) Open(string) (io.ReadCloser, error) { return nil, os.ErrNotExist }
func (noLoopCache) Exists(string) bool { return false }
func (noLoopCache) Remove(string) error { return nil }

type nopCapture struct{}

func (nopCapture) Write(b []byte) (int, error) { return len(b), nil }
func (nopCapture) Commit() error { return nil }
func (nopCapture) Abort() error { return nil }

type stubMembers struct {
	count int
}

func (m *stubMembers) CountMembers(snowflake.ID, snowflake.ID, bool) (int, error) {
	return m.count, nil
}

type stubVoiceState struct {
	channelID snowflake.ID
}

func (v *stubVoiceState) GetUserVoiceChannel(snowflake.ID, snowflake.ID) (snowflake.ID, error) {
	return v.channelID, nil
}

type stubHistory struct {
	entries []ports.HistoryEntry
}

func (h *stubHistory) Recent(context.Context, snowflake.ID, int) ([]ports.HistoryEntry, error) {
	return h.entries, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	infos []string
}

func (n *recordingNotifier) SendNowPlaying(snowflake.ID, *ports.NowPlayingInfo) (snowflake.ID, error) {
	return 0, nil
}

func (n *recordingNotifier) SendQueueAdded(snowflake.ID, *ports.QueueAddedInfo) error {
	return nil
}

func (n *recordingNotifier) SendInfo(_ snowflake.ID, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, message)
	return nil
}

func (n *recordingNotifier) DeleteMessage(snowflake.ID, snowflake.ID) error { return nil }
func (n *recordingNotifier) SendError(snowflake.ID, string) error { return nil }

type handlerHarness struct {
	manager    *session.Manager
	provider   *stubProvider
	members    *stubMembers
	voiceState *stubVoiceState
	handlers   *CommandHandlers
}

func newHandlerHarness(t *testing.T, history ports.PlayHistory) *handlerHarness {
	t.Helper()

	h := &handlerHarness{
		provider:   &stubProvider{},
		members:    &stubMembers{},
		voiceState: &stubVoiceState{channelID: testVoiceChannelID},
	}
	h.manager = session.NewManager(session.ManagerConfig{
		Volume:    domain.DefaultVolume,
		MaxVolume: domain.DefaultMaxVolume,
	}, session.ManagerDependencies{
		Sinks:     stubSinkFactory{},
		Providers: ports.ProviderRegistry{domain.PlatformYouTube: h.provider},
		Searches:  &memorySearches{},
		LoopCache: noLoopCache{},
		Members:   h.members,
		Clock:     time.Now,
	})
	h.handlers = NewCommandHandlers(h.manager, h.voiceState, history, 5)
	t.Cleanup(h.manager.Shutdown)
	return h
}

func (h *handlerHarness) connect(t *testing.T) *session.Player {
	t.Helper()

	player, err := h.manager.Create(context.Background(), testGuildID, testVoiceChannelID, testTextChannelID)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return player
}

// command builds a slash command interaction from the test user.
func command(name string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionApplicationCommand,
			GuildID:   testGuildID.String(),
			ChannelID: testTextChannelID.String(),
			Member:    &discordgo.Member{User: &discordgo.User{ID: testUserID.String()}},
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    name,
				Options: options,
			},
		},
	}
}

func stringOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func intOption(name string, value int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionInteger,
		Value: float64(value),
	}
}

func boolOption(name string, value bool) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionBoolean,
		Value: value,
	}
}

// lastEmbed returns the single embed of the last reply.
func lastEmbed(t *testing.T, embeds []*discordgo.MessageEmbed) *discordgo.MessageEmbed {
	t.Helper()

	if len(embeds) != 1 {
		t.Fatalf("expected 1 embed, got %d", len(embeds))
	}
	return embeds[0]
}
