package domain

import (
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// UnknownRequester is reported when a request carries no requester.
const UnknownRequester = "unknown"

// TrackDescriptor is the provider-specific description of a playable song.
type TrackDescriptor struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Artist     string        `json:"artist"`
	URL        string        `json:"url"`
	ArtworkURL string        `json:"artwork_url,omitempty"`
	Duration   time.Duration `json:"duration"`
	Platform   Platform      `json:"platform"`
	IsStream   bool          `json:"is_stream,omitempty"`
}

// DisplayTitle returns the title, falling back to the URL or ID.
func (t TrackDescriptor) DisplayTitle() string {
	switch {
	case t.Title != "":
		return t.Title
	case t.URL != "":
		return t.URL
	default:
		return t.ID
	}
}

// FormattedDuration returns the duration as mm:ss or hh:mm:ss.
func (t TrackDescriptor) FormattedDuration() string {
	return FormatDuration(t.Duration)
}

// FormatDuration formats d as mm:ss, or hh:mm:ss when it exceeds an hour.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// TrackRequest is an immutable record of a song queued for playback.
type TrackRequest struct {
	track       TrackDescriptor
	platform    Platform
	requesterID snowflake.ID
	wasQueued   bool
	requestedAt time.Time
}

// NewTrackRequest creates a TrackRequest. A zero requesterID means unknown.
func NewTrackRequest(
	track TrackDescriptor,
	platform Platform,
	requesterID snowflake.ID,
	wasQueued bool,
	requestedAt time.Time,
) *TrackRequest {
	return &TrackRequest{
		track:       track,
		platform:    platform,
		requesterID: requesterID,
		wasQueued:   wasQueued,
		requestedAt: requestedAt,
	}
}

// Track returns the descriptor of the requested song.
func (r *TrackRequest) Track() TrackDescriptor {
	return r.track
}

// Platform returns the provider the request is routed to.
func (r *TrackRequest) Platform() Platform {
	return r.platform
}

// RequesterID returns the requesting user, or 0 when unknown.
func (r *TrackRequest) RequesterID() snowflake.ID {
	return r.requesterID
}

// RequestedBy returns the requesting user ID as a string, or UnknownRequester.
func (r *TrackRequest) RequestedBy() string {
	if r.requesterID == 0 {
		return UnknownRequester
	}
	return r.requesterID.String()
}

// WasQueued reports whether the request waited in the queue instead of
// starting immediately.
func (r *TrackRequest) WasQueued() bool {
	return r.wasQueued
}

// RequestedAt returns when the request was created.
func (r *TrackRequest) RequestedAt() time.Time {
	return r.requestedAt
}
