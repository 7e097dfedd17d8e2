package ports

import (
	"context"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// HistoryEntry is one played track.
type HistoryEntry struct {
	GuildID     snowflake.ID
	Title       string
	URL         string
	Platform    string
	RequestedBy string
	StartedAt   time.Time
}

// PlayHistory lists tracks played in a guild.
type PlayHistory interface {
	Recent(ctx context.Context, guildID snowflake.ID, limit int) ([]HistoryEntry, error)
}
