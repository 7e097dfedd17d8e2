package discord

import "github.com/bwmarrin/discordgo"

var platformChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "YouTube", Value: "youtube"},
	{Name: "YouTube Music", Value: "ytmusic"},
	{Name: "Lavalink", Value: "lavalink"},
	{Name: "Local Library", Value: "local"},
}

func platformOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "platform",
		Description: "Where to look (defaults to YouTube)",
		Required:    false,
		Choices:     platformChoices,
	}
}

// Commands returns all slash commands for the music player module.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "join",
			Description: "Join a voice channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Voice channel to join (defaults to your current channel)",
					Required:    false,
					ChannelTypes: []discordgo.ChannelType{
						discordgo.ChannelTypeGuildVoice,
						discordgo.ChannelTypeGuildStageVoice,
					},
				},
			},
		},
		{
			Name:        "leave",
			Description: "Leave the voice channel",
		},
		{
			Name:        "play",
			Description: "Play a song from a URL or search",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "URL or search term",
					Required:    true,
				},
				platformOption(),
			},
		},
		{
			Name:        "search",
			Description: "Search for songs to pick from",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "Search term",
					Required:    true,
				},
				platformOption(),
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "limit",
					Description: "Number of results",
					Required:    false,
					MinValue:    floatPtr(1),
					MaxValue:    25,
				},
			},
		},
		{
			Name:        "pick",
			Description: "Play a result of your last search",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "number",
					Description: "Result number as shown by /search",
					Required:    true,
					MinValue:    floatPtr(1),
				},
			},
		},
		{
			Name:        "pause",
			Description: "Pause playback",
		},
		{
			Name:        "resume",
			Description: "Resume playback",
		},
		{
			Name:        "skip",
			Description: "Skip the current song",
		},
		{
			Name:        "retry",
			Description: "Restart the current song",
		},
		{
			Name:        "loop",
			Description: "Loop the current song (toggles if no option provided)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "enabled",
					Description: "Whether to loop",
					Required:    false,
				},
			},
		},
		{
			Name:        "volume",
			Description: "Show or set the volume",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "level",
					Description: "Volume in percent",
					Required:    false,
					MinValue:    floatPtr(0),
				},
			},
		},
		{
			Name:        "queue",
			Description: "Show the queue",
		},
		{
			Name:        "remove",
			Description: "Remove a song from the queue",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionInteger,
					Name:         "position",
					Description:  "Position of the song to remove (as shown in /queue)",
					Required:     true,
					MinValue:     floatPtr(1),
					Autocomplete: true,
				},
			},
		},
		{
			Name:        "clear",
			Description: "Clear the queue",
		},
		{
			Name:        "nowplaying",
			Description: "Show the current song",
		},
		{
			Name:        "history",
			Description: "Show recently played songs",
		},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
