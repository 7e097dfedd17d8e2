package domain

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// SearchRequest describes a search issued by a user.
type SearchRequest struct {
	Query       string
	Platform    Platform
	RequesterID snowflake.ID
	Limit       int
}

// SearchResultSet is the most recent result list cached for a requester.
type SearchResultSet struct {
	Query     string            `json:"query"`
	Platform  Platform          `json:"platform"`
	Entries   []TrackDescriptor `json:"entries"`
	CreatedAt time.Time         `json:"created_at"`
}

// Len returns the number of entries.
func (s SearchResultSet) Len() int {
	return len(s.Entries)
}

// At returns the entry at index, or false if index is out of range.
func (s SearchResultSet) At(index int) (TrackDescriptor, bool) {
	if index < 0 || index >= len(s.Entries) {
		return TrackDescriptor{}, false
	}
	return s.Entries[index], true
}
