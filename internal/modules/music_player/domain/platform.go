package domain

import "strings"

// Platform identifies the track provider a request is routed to.
type Platform string

const (
	PlatformYouTube      Platform = "youtube"
	PlatformYouTubeMusic Platform = "ytmusic"
	PlatformLavalink     Platform = "lavalink"
	PlatformLocal        Platform = "local"
)

// DefaultPlatform is used when a command does not name one.
const DefaultPlatform = PlatformYouTube

// ParsePlatform converts user input to a Platform.
// Unknown names are returned as-is so the provider lookup can reject them.
func ParsePlatform(name string) Platform {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "yt", "youtube":
		return PlatformYouTube
	case "ytm", "ytmusic", "youtubemusic":
		return PlatformYouTubeMusic
	case "lavalink", "ll":
		return PlatformLavalink
	case "local", "file":
		return PlatformLocal
	default:
		return Platform(strings.ToLower(strings.TrimSpace(name)))
	}
}

// String returns the platform key.
func (p Platform) String() string {
	return string(p)
}

// DisplayName returns a human readable platform name.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformYouTube:
		return "YouTube"
	case PlatformYouTubeMusic:
		return "YouTube Music"
	case PlatformLavalink:
		return "Lavalink"
	case PlatformLocal:
		return "Local Library"
	default:
		return string(p)
	}
}

// Color returns the embed color associated with the platform.
func (p Platform) Color() int {
	switch p {
	case PlatformYouTube:
		return 0xFF0000
	case PlatformYouTubeMusic:
		return 0xFF0033
	case PlatformLavalink:
		return 0x5865F2
	default:
		return 0x95A5A6
	}
}

// IconURL returns the icon shown next to "Now Playing" embeds.
func (p Platform) IconURL() string {
	switch p {
	case PlatformYouTube:
		return "https://www.youtube.com/s/desktop/favicon_144x144.png"
	case PlatformYouTubeMusic:
		return "https://music.youtube.com/img/favicon_144.png"
	default:
		return ""
	}
}
