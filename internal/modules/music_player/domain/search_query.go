package domain

import (
	"strings"
)

// LavalinkSearchPrefix selects the Lavalink source used for plain-text queries.
type LavalinkSearchPrefix string

const (
	// PrefixYouTube searches YouTube.
	PrefixYouTube LavalinkSearchPrefix = "ytsearch"
	// PrefixYouTubeMusic searches YouTube Music.
	PrefixYouTubeMusic LavalinkSearchPrefix = "ytmsearch"
	// PrefixSoundCloud searches SoundCloud.
	PrefixSoundCloud LavalinkSearchPrefix = "scsearch"
)

// IsKnown reports whether p is one of the supported prefixes.
func (p LavalinkSearchPrefix) IsKnown() bool {
	switch p {
	case PrefixYouTube, PrefixYouTubeMusic, PrefixSoundCloud:
		return true
	default:
		return false
	}
}

// SearchQuery is normalized user input for a provider.
type SearchQuery struct {
	Text  string // The search term or URL
	IsURL bool   // Whether the text is a direct URL
}

// ParseSearchQuery trims input and detects direct URLs.
func ParseSearchQuery(input string) SearchQuery {
	input = strings.TrimSpace(input)
	return SearchQuery{
		Text:  input,
		IsURL: isURL(input),
	}
}

// LavalinkIdentifier returns the identifier passed to Lavalink's track loader.
func (q SearchQuery) LavalinkIdentifier(prefix LavalinkSearchPrefix) string {
	if q.IsURL {
		return q.Text
	}
	return string(prefix) + ":" + q.Text
}

// IsValid returns true if the query is not empty.
func (q SearchQuery) IsValid() bool {
	return q.Text != ""
}

// isURL checks if the input looks like a URL.
func isURL(input string) bool {
	return strings.HasPrefix(input, "http://") ||
		strings.HasPrefix(input, "https://") ||
		strings.HasPrefix(input, "www.")
}
