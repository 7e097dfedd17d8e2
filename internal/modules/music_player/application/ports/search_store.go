package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
)

// SearchStore holds the most recent search result set per (guild, key).
// The key is a requester ID, or the guild ID for searches without a requester.
type SearchStore interface {
	// Get returns the set stored under key, and false if there is none.
	Get(ctx context.Context, guildID, key snowflake.ID) (domain.SearchResultSet, bool, error)

	// Set replaces the set stored under key.
	Set(ctx context.Context, guildID, key snowflake.ID, results domain.SearchResultSet) error

	// Clear removes every set stored for guildID.
	Clear(ctx context.Context, guildID snowflake.ID) error
}
