package domain

// EventName identifies a session event.
type EventName string

const (
	EventSongStart    EventName = "songStart"
	EventSongSkip     EventName = "songSkip"
	EventSongEnd      EventName = "songEnd"
	EventSongLooped   EventName = "songLooped"
	EventQueueAdd     EventName = "queueAdd"
	EventQueueRemove  EventName = "queueRemove"
	EventQueueClear   EventName = "queueClear"
	EventQueueEnd     EventName = "queueEnd"
	EventLoopToggled  EventName = "loopToggled"
	EventVolumeChange EventName = "volumeChange"
	EventSearchResult EventName = "searchResult"
	EventPaused       EventName = "paused"
	EventResumed      EventName = "resumed"
	EventLeave        EventName = "leave"
	EventDestroyed    EventName = "destroyed"
	EventError        EventName = "error"
)

// AllEvents lists every event a session can publish.
func AllEvents() []EventName {
	return []EventName{
		EventSongStart,
		EventSongSkip,
		EventSongEnd,
		EventSongLooped,
		EventQueueAdd,
		EventQueueRemove,
		EventQueueClear,
		EventQueueEnd,
		EventLoopToggled,
		EventVolumeChange,
		EventSearchResult,
		EventPaused,
		EventResumed,
		EventLeave,
		EventDestroyed,
		EventError,
	}
}

// Event is the payload published by a session. Only the fields relevant to
// Name are set.
type Event struct {
	Name EventName

	// Track is set for songStart, songSkip, songEnd, songLooped, queueAdd and queueRemove.
	Track *TrackRequest

	// Results and Search are set for searchResult.
	Results *SearchResultSet
	Search  *SearchRequest

	// Volume is set for volumeChange.
	Volume int

	// Looping is set for loopToggled.
	Looping bool

	// Err is set for error.
	Err error
}
