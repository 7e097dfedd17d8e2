package discord

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/session"
)

const autoLeaveMessage = "Left the voice channel because everyone else did."

// EventHandlers handles Discord gateway events for the music player.
type EventHandlers struct {
	botID     snowflake.ID
	sessions  *session.Manager
	autoLeave bool
	notifier  ports.NotificationSender
}

// NewEventHandlers creates a new EventHandlers.
func NewEventHandlers(
	botID snowflake.ID,
	sessions *session.Manager,
	autoLeave bool,
	notifier ports.NotificationSender,
) *EventHandlers {
	return &EventHandlers{
		botID:     botID,
		sessions:  sessions,
		autoLeave: autoLeave,
		notifier:  notifier,
	}
}

// HandleVoiceStateUpdate ends sessions whose voice connection is gone or whose
// channel has emptied.
func (h *EventHandlers) HandleVoiceStateUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	if event.VoiceState == nil {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	player, ok := h.sessions.Get(guildID)
	if !ok {
		return
	}

	if event.UserID == h.botID.String() {
		// Empty channel ID means the bot was disconnected
		if event.ChannelID == "" {
			slog.Info("bot disconnected from voice, ending session", "guild", guildID)
			h.sessions.Leave(guildID)
		}
		return
	}

	if !h.autoLeave || !leftChannel(event, player.VoiceChannelID()) {
		return
	}

	if h.sessions.MemberCount(guildID) > 0 {
		return
	}

	slog.Info("voice channel emptied, leaving", "guild", guildID)
	textChannelID := player.TextChannelID()
	if !h.sessions.Leave(guildID) {
		return
	}
	if h.notifier != nil && textChannelID != 0 {
		if err := h.notifier.SendInfo(textChannelID, autoLeaveMessage); err != nil {
			slog.Warn("failed to send auto-leave notice", "guild", guildID, "error", err)
		}
	}
}

// leftChannel reports whether the update moves a user out of channelID.
func leftChannel(event *discordgo.VoiceStateUpdate, channelID snowflake.ID) bool {
	if event.BeforeUpdate == nil {
		return false
	}
	channel := channelID.String()
	return event.BeforeUpdate.ChannelID == channel && event.ChannelID != channel
}
