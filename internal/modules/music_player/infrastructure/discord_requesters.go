package infrastructure

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
)

// Ensure DiscordRequesterDirectory implements ports.RequesterDirectory.
var (
	_ ports.RequesterDirectory = (*DiscordRequesterDirectory)(nil)
)

// DiscordRequesterDirectory implements ports.RequesterDirectory using a Discord session.
type DiscordRequesterDirectory struct {
	session *discordgo.Session
}

// NewDiscordRequesterDirectory creates a new DiscordRequesterDirectory.
func NewDiscordRequesterDirectory(session *discordgo.Session) *DiscordRequesterDirectory {
	return &DiscordRequesterDirectory{session: session}
}

// LookupRequester fetches the member behind a track request.
// The state cache is consulted before the REST API.
func (p *DiscordRequesterDirectory) LookupRequester(
	guildID, userID snowflake.ID,
) (*ports.Requester, error) {
	member, err := p.session.State.Member(guildID.String(), userID.String())
	if err != nil || member.User == nil {
		member, err = p.session.GuildMember(guildID.String(), userID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to fetch guild member: %w", err)
		}
	}

	return &ports.Requester{
		Name:      memberName(member),
		AvatarURL: member.User.AvatarURL(""),
		Bot:       member.User.Bot,
	}, nil
}

// memberName returns the effective display name for a guild member.
// Priority: guild nickname > global display name > username.
func memberName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}
