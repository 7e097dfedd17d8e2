package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/events"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
)

// ManagerConfig holds the defaults applied to every session.
type ManagerConfig struct {
	Volume       int
	MaxVolume    int
	Loop         bool
	ExcludeBots  bool
	ReportErrors bool
}

// ManagerDependencies are shared by every session the Manager creates.
type ManagerDependencies struct {
	Sinks     ports.SinkFactory
	Providers ports.ProviderRegistry
	Searches  ports.SearchStore
	LoopCache ports.LoopCache
	Members   ports.MemberCounter
	Clock     func() time.Time
}

// SessionEvent is a session event re-published by the Manager together with its origin.
type SessionEvent struct {
	domain.Event
	Session *Player
}

// Manager owns at most one Player per guild.
type Manager struct {
	config ManagerConfig
	deps   ManagerDependencies

	mu      sync.RWMutex
	players map[snowflake.ID]*Player
	pending map[snowflake.ID]struct{}

	dispatcher *events.Dispatcher[domain.EventName, SessionEvent]
}

// NewManager creates a new Manager.
func NewManager(cfg ManagerConfig, deps ManagerDependencies) *Manager {
	return &Manager{
		config:     cfg,
		deps:       deps,
		players:    make(map[snowflake.ID]*Player),
		pending:    make(map[snowflake.ID]struct{}),
		dispatcher: events.NewDispatcher[domain.EventName, SessionEvent](),
	}
}

// Create connects to a voice channel and starts a session for the guild.
// Returns ErrSessionExists if the guild already has one.
func (m *Manager) Create(
	ctx context.Context,
	guildID, voiceChannelID, textChannelID snowflake.ID,
) (*Player, error) {
	m.mu.Lock()
	_, exists := m.players[guildID]
	_, creating := m.pending[guildID]
	if exists || creating {
		m.mu.Unlock()
		return nil, domain.ErrSessionExists
	}
	m.pending[guildID] = struct{}{}
	m.mu.Unlock()

	player, err := m.newPlayer(ctx, guildID, voiceChannelID, textChannelID)

	m.mu.Lock()
	delete(m.pending, guildID)
	if err == nil {
		m.players[guildID] = player
	}
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}

	slog.Info("created session",
		"guild", guildID,
		"voice_channel", voiceChannelID,
		"session", player.SessionID(),
	)
	return player, nil
}

func (m *Manager) newPlayer(
	ctx context.Context,
	guildID, voiceChannelID, textChannelID snowflake.ID,
) (*Player, error) {
	if err := m.deps.LoopCache.Remove(LoopKey(guildID, voiceChannelID)); err != nil {
		slog.Warn("failed to remove stale loop artifact", "guild", guildID, "error", err)
	}

	sink, err := m.deps.Sinks.Connect(ctx, guildID, voiceChannelID)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to voice channel: %w", err)
	}

	player := NewPlayer(guildID, voiceChannelID, textChannelID, Config{
		Volume:    m.config.Volume,
		MaxVolume: m.config.MaxVolume,
		Loop:      m.config.Loop,
	}, Dependencies{
		Sink:      sink,
		Providers: m.deps.Providers,
		Searches:  m.deps.Searches,
		LoopCache: m.deps.LoopCache,
		Clock:     m.deps.Clock,
	})
	m.forward(player)
	return player, nil
}

// forward re-publishes every event of player on the Manager's dispatcher.
func (m *Manager) forward(player *Player) {
	for _, name := range domain.AllEvents() {
		player.Subscribe(name, func(ev domain.Event) {
			switch ev.Name {
			case domain.EventError:
				if m.config.ReportErrors {
					slog.Error("session error",
						"guild", player.GuildID(),
						"session", player.SessionID(),
						"error", ev.Err,
					)
				}
			case domain.EventDestroyed:
				m.forget(player)
			}
			m.dispatcher.Publish(ev.Name, SessionEvent{Event: ev, Session: player})
		})
	}
}

// forget drops player from the registry if it is still the guild's session.
func (m *Manager) forget(player *Player) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.players[player.GuildID()] == player {
		delete(m.players, player.GuildID())
	}
}

// Leave destroys the guild's session. Returns false if there was none.
func (m *Manager) Leave(guildID snowflake.ID) bool {
	m.mu.Lock()
	player, ok := m.players[guildID]
	delete(m.players, guildID)
	m.mu.Unlock()

	if !ok {
		return false
	}
	player.Leave()
	return true
}

// Get returns the guild's session.
func (m *Manager) Get(guildID snowflake.ID) (*Player, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	player, ok := m.players[guildID]
	return player, ok
}

// Has reports whether the guild has a session.
func (m *Manager) Has(guildID snowflake.ID) bool {
	_, ok := m.Get(guildID)
	return ok
}

// Sessions returns a snapshot of every live session.
func (m *Manager) Sessions() []*Player {
	m.mu.RLock()
	defer m.mu.RUnlock()

	players := make([]*Player, 0, len(m.players))
	for _, player := range m.players {
		players = append(players, player)
	}
	return players
}

// MemberCount returns the number of members in the session's voice channel,
// excluding bots when configured. Any failure yields 0.
func (m *Manager) MemberCount(guildID snowflake.ID) int {
	player, ok := m.Get(guildID)
	if !ok {
		m.reportCountError(guildID, domain.ErrSessionNotFound)
		return 0
	}

	count, err := m.deps.Members.CountMembers(guildID, player.VoiceChannelID(), m.config.ExcludeBots)
	if err != nil {
		m.reportCountError(guildID, err)
		return 0
	}
	return count
}

func (m *Manager) reportCountError(guildID snowflake.ID, err error) {
	if !m.config.ReportErrors {
		return
	}
	slog.Error("failed to count voice channel members", "guild", guildID, "error", err)
}

// Shutdown destroys every session.
func (m *Manager) Shutdown() {
	for _, player := range m.Sessions() {
		m.Leave(player.GuildID())
	}
}

// Subscribe registers handler for the named event of every session.
func (m *Manager) Subscribe(
	name domain.EventName,
	handler events.Handler[SessionEvent],
) events.SubscriptionID {
	return m.dispatcher.Subscribe(name, handler)
}

// Unsubscribe removes a handler registered with Subscribe.
func (m *Manager) Unsubscribe(name domain.EventName, id events.SubscriptionID) bool {
	return m.dispatcher.Unsubscribe(name, id)
}
