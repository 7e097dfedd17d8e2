package ports

import (
	"time"

	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
)

// NowPlayingInfo contains information for the "Now Playing" notification.
type NowPlayingInfo struct {
	Identifier         string // Provider identifier (e.g., YouTube video ID)
	Title              string
	Artist             string
	Duration           string
	URI                string
	ArtworkURL         string
	Platform           domain.Platform
	IsStream           bool
	Looped             bool
	RequesterName      string
	RequesterAvatarURL string
	EnqueuedAt         time.Time
}

// QueueAddedInfo contains information for the "Added to Queue" notification.
type QueueAddedInfo struct {
	Title    string
	URI      string
	Position int
}
