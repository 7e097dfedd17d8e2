package music_player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/frostzzone/frost-music/internal/bot"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/session"
	"github.com/frostzzone/frost-music/internal/modules/music_player/infrastructure"
	"github.com/frostzzone/frost-music/internal/modules/music_player/infrastructure/voice"
	"github.com/frostzzone/frost-music/internal/modules/music_player/presentation/discord"
)

const initTimeout = 30 * time.Second

var errNoSession = errors.New("music_player requires a Discord session")

func init() {
	bot.Register(&MusicPlayerModule{})
}

// Compile-time interface checks.
var (
	_ bot.ConfigurableModule = (*MusicPlayerModule)(nil)
	_ bot.AutocompleteModule = (*MusicPlayerModule)(nil)
)

// MusicPlayerModule provides music playback commands.
type MusicPlayerModule struct {
	config          *Config
	sessions        *session.Manager
	commandHandlers *discord.CommandHandlers
	autocomplete    *discord.AutocompleteHandler
	eventHandlers   *discord.EventHandlers

	providers   *Providers
	eventBus    *infrastructure.ChannelEventBus
	redisStore  *infrastructure.RedisSearchStore
	history     *infrastructure.HistoryRecorder
	notifyEvent *infrastructure.NotificationEventHandler
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// Commands returns the slash commands for this module.
func (m *MusicPlayerModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"join":       m.commandHandlers.HandleJoin,
		"leave":      m.commandHandlers.HandleLeave,
		"play":       m.commandHandlers.HandlePlay,
		"search":     m.commandHandlers.HandleSearch,
		"pick":       m.commandHandlers.HandlePick,
		"pause":      m.commandHandlers.HandlePause,
		"resume":     m.commandHandlers.HandleResume,
		"skip":       m.commandHandlers.HandleSkip,
		"retry":      m.commandHandlers.HandleRetry,
		"loop":       m.commandHandlers.HandleLoop,
		"volume":     m.commandHandlers.HandleVolume,
		"queue":      m.commandHandlers.HandleQueue,
		"remove":     m.commandHandlers.HandleRemove,
		"clear":      m.commandHandlers.HandleClear,
		"nowplaying": m.commandHandlers.HandleNowPlaying,
		"history":    m.commandHandlers.HandleHistory,
	}
}

// AutocompleteHandlers returns the autocomplete handlers for this module.
func (m *MusicPlayerModule) AutocompleteHandlers() map[string]bot.AutocompleteHandler {
	return map[string]bot.AutocompleteHandler{
		"remove": m.autocomplete.HandleRemove,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *MusicPlayerModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			m.eventHandlers.HandleVoiceStateUpdate(s, event)
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicPlayerModule) LoadConfig() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *MusicPlayerModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil {
		return errNoSession
	}
	if m.config == nil {
		if err := m.LoadConfig(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	var botID snowflake.ID
	if deps.Session.State != nil && deps.Session.State.User != nil {
		id, err := snowflake.Parse(deps.Session.State.User.ID)
		if err != nil {
			return fmt.Errorf("failed to parse bot user ID: %w", err)
		}
		botID = id
	}

	providers, err := NewProviders(ctx, m.config, botID)
	if err != nil {
		return err
	}
	m.providers = providers

	searches, err := m.newSearchStore(ctx)
	if err != nil {
		return err
	}

	loopCache, err := m.newLoopCache()
	if err != nil {
		return err
	}

	voiceState := infrastructure.NewVoiceStateProvider(deps.Session)
	m.sessions = session.NewManager(session.ManagerConfig{
		Volume:       m.config.Volume,
		MaxVolume:    m.config.MaxVolume,
		Loop:         m.config.Loop,
		ExcludeBots:  m.config.ExcludeBots,
		ReportErrors: m.config.ReportErrors,
	}, session.ManagerDependencies{
		Sinks: voice.NewSinkFactory(deps.Session, voice.Config{
			Deaf:       m.config.Deaf,
			FFmpegPath: m.config.FFmpegPath,
		}),
		Providers: providers.Registry,
		Searches:  searches,
		LoopCache: loopCache,
		Members:   voiceState,
		Clock:     time.Now,
	})

	// Notifications and history do I/O, so they hang off the async bus
	m.eventBus = infrastructure.NewChannelEventBus(infrastructure.DefaultEventBufferSize)
	m.eventBus.Attach(m.sessions)

	notifier := infrastructure.NewNotifier(deps.Session)
	m.notifyEvent = infrastructure.NewNotificationEventHandler(
		notifier,
		infrastructure.NewDiscordRequesterDirectory(deps.Session),
	)
	m.notifyEvent.Start(m.eventBus)

	var history ports.PlayHistory
	if m.config.HistoryDB != "" {
		recorder, err := infrastructure.NewHistoryRecorder(ctx, m.config.HistoryDB)
		if err != nil {
			return err
		}
		recorder.Start(m.eventBus)
		m.history = recorder
		history = recorder
	}

	m.commandHandlers = discord.NewCommandHandlers(
		m.sessions,
		voiceState,
		history,
		m.config.SearchLimit,
	)
	m.autocomplete = discord.NewAutocompleteHandler(m.sessions)
	m.eventHandlers = discord.NewEventHandlers(botID, m.sessions, m.config.AutoLeave, notifier)

	slog.Info("music_player module initialized",
		"platforms", len(providers.Registry),
		"redis", m.redisStore != nil,
		"history", m.history != nil,
	)

	return nil
}

func (m *MusicPlayerModule) newSearchStore(ctx context.Context) (ports.SearchStore, error) {
	if m.config.Redis.Address == "" {
		return infrastructure.NewMemorySearchStore(), nil
	}

	store, err := infrastructure.NewRedisSearchStore(ctx, infrastructure.RedisConfig{
		Address:  m.config.Redis.Address,
		Password: m.config.Redis.Password,
		DB:       m.config.Redis.DB,
		TTL:      m.config.SearchTTL,
	})
	if err != nil {
		return nil, err
	}
	m.redisStore = store
	return store, nil
}

func (m *MusicPlayerModule) newLoopCache() (ports.LoopCache, error) {
	if m.config.LoopCacheDir == "" {
		return infrastructure.NewMemoryLoopCache(), nil
	}
	return infrastructure.NewFileLoopCache(m.config.LoopCacheDir)
}

// Shutdown cleans up module resources.
func (m *MusicPlayerModule) Shutdown() error {
	if m.sessions != nil {
		m.sessions.Shutdown()
	}

	// Deliver the final events before closing what their handlers use
	if m.eventBus != nil {
		m.eventBus.Close()
	}

	if m.providers != nil {
		m.providers.Close()
	}

	var errs []error
	if m.redisStore != nil {
		if err := m.redisStore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}
	if m.history != nil {
		if err := m.history.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close history: %w", err))
		}
	}

	return errors.Join(errs...)
}
