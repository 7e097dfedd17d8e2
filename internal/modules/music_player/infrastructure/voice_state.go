package infrastructure

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
)

// VoiceStateProvider provides Discord voice state information from the gateway state cache.
type VoiceStateProvider struct {
	session *discordgo.Session
}

// NewVoiceStateProvider creates a new VoiceStateProvider.
func NewVoiceStateProvider(session *discordgo.Session) *VoiceStateProvider {
	return &VoiceStateProvider{
		session: session,
	}
}

// GetUserVoiceChannel returns the voice channel ID that the user is currently in.
// Returns 0 if the user is not in a voice channel.
func (v *VoiceStateProvider) GetUserVoiceChannel(
	guildID, userID snowflake.ID,
) (snowflake.ID, error) {
	guild, err := v.session.State.Guild(guildID.String())
	if err != nil {
		return 0, err
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID.String() && vs.ChannelID != "" {
			channelID, err := snowflake.Parse(vs.ChannelID)
			if err != nil {
				return 0, err
			}
			return channelID, nil
		}
	}

	return 0, nil
}

// CountMembers returns the number of users connected to the voice channel.
// Bots are left out when excludeBots is set.
func (v *VoiceStateProvider) CountMembers(
	guildID, channelID snowflake.ID,
	excludeBots bool,
) (int, error) {
	guild, err := v.session.State.Guild(guildID.String())
	if err != nil {
		return 0, fmt.Errorf("failed to look up guild: %w", err)
	}

	return countVoiceMembers(guild.VoiceStates, channelID.String(), excludeBots, func(userID string) bool {
		member, err := v.session.State.Member(guildID.String(), userID)
		return err == nil && member.User != nil && member.User.Bot
	}), nil
}

// countVoiceMembers counts voice states in channelID. isBot is consulted for
// states that do not carry member data.
func countVoiceMembers(
	states []*discordgo.VoiceState,
	channelID string,
	excludeBots bool,
	isBot func(userID string) bool,
) int {
	count := 0
	for _, vs := range states {
		if vs == nil || vs.ChannelID != channelID {
			continue
		}
		if excludeBots {
			if vs.Member != nil && vs.Member.User != nil {
				if vs.Member.User.Bot {
					continue
				}
			} else if isBot(vs.UserID) {
				continue
			}
		}
		count++
	}
	return count
}

// Ensure VoiceStateProvider implements the voice state ports.
var (
	_ ports.VoiceStateProvider = (*VoiceStateProvider)(nil)
	_ ports.MemberCounter      = (*VoiceStateProvider)(nil)
)
