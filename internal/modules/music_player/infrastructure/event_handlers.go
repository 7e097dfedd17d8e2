package infrastructure

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/events"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/session"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
)

// SessionEventSubscriber is the subscription side of the session manager.
type SessionEventSubscriber interface {
	Subscribe(
		name domain.EventName,
		handler events.Handler[session.SessionEvent],
	) events.SubscriptionID
}

type nowPlayingMessage struct {
	channelID snowflake.ID
	messageID snowflake.ID
}

// NotificationEventHandler posts session events to each session's text channel.
// It keeps one "Now Playing" message per guild and deletes it when the track changes.
type NotificationEventHandler struct {
	notifier   ports.NotificationSender
	requesters ports.RequesterDirectory

	mu         sync.Mutex
	nowPlaying map[snowflake.ID]nowPlayingMessage
}

// NewNotificationEventHandler creates a new NotificationEventHandler.
func NewNotificationEventHandler(
	notifier ports.NotificationSender,
	requesters ports.RequesterDirectory,
) *NotificationEventHandler {
	return &NotificationEventHandler{
		notifier:   notifier,
		requesters: requesters,
		nowPlaying: make(map[snowflake.ID]nowPlayingMessage),
	}
}

// Start registers event handlers with the subscriber.
func (h *NotificationEventHandler) Start(subscriber SessionEventSubscriber) {
	subscriber.Subscribe(domain.EventSongStart, h.handleSongStart)
	subscriber.Subscribe(domain.EventQueueAdd, h.handleQueueAdd)
	subscriber.Subscribe(domain.EventQueueEnd, h.handleQueueEnd)
	subscriber.Subscribe(domain.EventError, h.handleError)
	subscriber.Subscribe(domain.EventDestroyed, h.handleDestroyed)

	slog.Debug("notification event handler started")
}

func (h *NotificationEventHandler) handleSongStart(event session.SessionEvent) {
	player := event.Session
	req := event.Track
	if req == nil {
		return
	}
	guildID := player.GuildID()

	h.deleteNowPlaying(guildID)

	requesterName := req.RequestedBy()
	var requesterAvatarURL string
	if h.requesters != nil && req.RequesterID() != 0 {
		requester, err := h.requesters.LookupRequester(guildID, req.RequesterID())
		if err != nil {
			slog.Warn("failed to fetch requester info for now playing",
				"guild", guildID,
				"requester", req.RequesterID(),
				"error", err,
			)
		} else {
			requesterName = requester.Name
			requesterAvatarURL = requester.AvatarURL
		}
	}

	track := req.Track()
	messageID, err := h.notifier.SendNowPlaying(player.TextChannelID(), &ports.NowPlayingInfo{
		Identifier:         track.ID,
		Title:              track.DisplayTitle(),
		Artist:             track.Artist,
		Duration:           track.FormattedDuration(),
		URI:                track.URL,
		ArtworkURL:         track.ArtworkURL,
		Platform:           req.Platform(),
		IsStream:           track.IsStream,
		Looped:             player.IsLooping(),
		RequesterName:      requesterName,
		RequesterAvatarURL: requesterAvatarURL,
		EnqueuedAt:         req.RequestedAt(),
	})
	if err != nil {
		slog.Error("failed to send now playing notification",
			"guild", guildID,
			"error", err,
		)
		return
	}

	h.mu.Lock()
	h.nowPlaying[guildID] = nowPlayingMessage{
		channelID: player.TextChannelID(),
		messageID: messageID,
	}
	h.mu.Unlock()
}

func (h *NotificationEventHandler) handleQueueAdd(event session.SessionEvent) {
	if event.Track == nil {
		return
	}
	player := event.Session
	track := event.Track.Track()

	if err := h.notifier.SendQueueAdded(player.TextChannelID(), &ports.QueueAddedInfo{
		Title:    track.DisplayTitle(),
		URI:      track.URL,
		Position: len(player.Queue()),
	}); err != nil {
		slog.Warn("failed to send queue added notification",
			"guild", player.GuildID(),
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handleQueueEnd(event session.SessionEvent) {
	player := event.Session
	h.deleteNowPlaying(player.GuildID())

	if err := h.notifier.SendInfo(player.TextChannelID(), "Queue finished."); err != nil {
		slog.Warn("failed to send queue end notification",
			"guild", player.GuildID(),
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handleError(event session.SessionEvent) {
	player := event.Session
	if event.Err == nil {
		return
	}

	if err := h.notifier.SendError(player.TextChannelID(), describeError(event.Err)); err != nil {
		slog.Warn("failed to send error notification",
			"guild", player.GuildID(),
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handleDestroyed(event session.SessionEvent) {
	h.deleteNowPlaying(event.Session.GuildID())
}

// deleteNowPlaying removes the guild's "Now Playing" message, if any.
func (h *NotificationEventHandler) deleteNowPlaying(guildID snowflake.ID) {
	h.mu.Lock()
	msg, ok := h.nowPlaying[guildID]
	delete(h.nowPlaying, guildID)
	h.mu.Unlock()

	if !ok {
		return
	}

	slog.Debug("deleting now playing message",
		"guild", guildID,
		"message_id", msg.messageID,
	)

	if err := h.notifier.DeleteMessage(msg.channelID, msg.messageID); err != nil {
		slog.Warn("failed to delete now playing message",
			"guild", guildID,
			"error", err,
		)
	}
}

// describeError turns a session error into a user-facing message.
func describeError(err error) string {
	var providerErr *domain.ProviderError
	switch {
	case errors.Is(err, domain.ErrUnknownPlatform):
		return "That platform is not available."
	case errors.As(err, &providerErr) && providerErr.Op == "stream":
		return "Failed to play the track, skipping it."
	case errors.As(err, &providerErr) && providerErr.Op == "search":
		return "Search failed. Please try again."
	case errors.As(err, &providerErr):
		return "Failed to load the track."
	default:
		return "Something went wrong during playback."
	}
}
