package domain

// Status is the externally visible playback state of a session.
type Status int

const (
	// StatusEmpty means nothing is playing.
	StatusEmpty Status = iota
	// StatusPlaying means a track is playing.
	StatusPlaying
	// StatusPaused means a track is loaded but paused.
	StatusPaused
	// StatusDestroyed means the session has left and released its resources.
	StatusDestroyed
)

// String returns a human readable status.
func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}
