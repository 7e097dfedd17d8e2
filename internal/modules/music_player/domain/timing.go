package domain

import "time"

// PlaybackTiming tracks wall-clock position information for the playing track.
// EndMs always equals StartMs + DurationMs.
type PlaybackTiming struct {
	StartMs         int64
	StartUnixSec    int64
	EndMs           int64
	EndUnixSec      int64
	DurationMs      int64
	DurationUnixSec int64
	LastUpdateMs    int64

	frozen          bool
	frozenElapsedMs int64
}

// NewPlaybackTiming starts a timing window at now for a track of duration d.
func NewPlaybackTiming(now time.Time, d time.Duration) PlaybackTiming {
	t := PlaybackTiming{
		DurationMs: max(d.Milliseconds(), 0),
	}
	t.DurationUnixSec = t.DurationMs / 1000
	t.setStart(now.UnixMilli(), now.UnixMilli())
	return t
}

// Duration returns the recorded track duration.
func (t PlaybackTiming) Duration() time.Duration {
	return time.Duration(t.DurationMs) * time.Millisecond
}

// IsFrozen reports whether elapsed time is currently held by a pause.
func (t PlaybackTiming) IsFrozen() bool {
	return t.frozen
}

// Elapsed returns the playback position at now, clamped to [0, duration].
func (t PlaybackTiming) Elapsed(now time.Time) time.Duration {
	if t.frozen {
		return time.Duration(t.frozenElapsedMs) * time.Millisecond
	}
	return time.Duration(t.clampElapsed(now.UnixMilli()-t.StartMs)) * time.Millisecond
}

// Remaining returns the time left at now.
func (t PlaybackTiming) Remaining(now time.Time) time.Duration {
	return t.Duration() - t.Elapsed(now)
}

// Freeze holds the elapsed time at now. Used when playback pauses.
func (t *PlaybackTiming) Freeze(now time.Time) {
	if t.frozen {
		t.Rebaseline(now)
		return
	}
	t.frozenElapsedMs = t.clampElapsed(now.UnixMilli() - t.StartMs)
	t.frozen = true
	t.Rebaseline(now)
}

// Thaw releases a frozen timing so the position advances again from now.
func (t *PlaybackTiming) Thaw(now time.Time) {
	if !t.frozen {
		return
	}
	t.Rebaseline(now)
	t.frozen = false
	t.frozenElapsedMs = 0
}

// Rebaseline shifts the window so that the held elapsed time ends at now.
// It is a no-op while playback is running.
func (t *PlaybackTiming) Rebaseline(now time.Time) {
	if !t.frozen {
		return
	}
	nowMs := now.UnixMilli()
	t.setStart(nowMs-t.frozenElapsedMs, nowMs)
}

func (t *PlaybackTiming) setStart(startMs, nowMs int64) {
	t.StartMs = startMs
	t.StartUnixSec = startMs / 1000
	t.EndMs = startMs + t.DurationMs
	t.EndUnixSec = t.EndMs / 1000
	t.LastUpdateMs = nowMs
}

func (t PlaybackTiming) clampElapsed(ms int64) int64 {
	if ms < 0 {
		return 0
	}
	if t.DurationMs > 0 && ms > t.DurationMs {
		return t.DurationMs
	}
	return ms
}
