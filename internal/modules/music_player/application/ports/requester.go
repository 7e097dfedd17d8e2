package ports

import "github.com/disgoorg/snowflake/v2"

// Requester is the guild member who asked for a track, as shown in notifications.
type Requester struct {
	Name      string
	AvatarURL string
	Bot       bool
}

// RequesterDirectory looks up the members behind track requests.
type RequesterDirectory interface {
	LookupRequester(guildID, userID snowflake.ID) (*Requester, error)
}
