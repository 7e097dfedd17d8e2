package ports

import (
	"context"
	"io"

	"github.com/disgoorg/snowflake/v2"
)

// AudioSink plays audio into a connected voice channel.
//
// Play must not invoke the idle callback before it returns. Stop may invoke it
// synchronously. The idle callback fires once per completed or stopped stream,
// and never for a stream replaced by a later Play.
type AudioSink interface {
	// Play starts consuming stream at the given linear volume (1.0 = 100%).
	// The sink closes stream when it is done with it.
	Play(stream io.ReadCloser, volume float64) error

	// Pause suspends output without discarding the stream.
	Pause()

	// Unpause resumes output.
	Unpause()

	// Stop ends the current stream and reports idle.
	Stop()

	// SetVolume changes the linear volume of the current and future streams.
	SetVolume(volume float64)

	// OnIdle registers the callback invoked when a stream ends.
	OnIdle(callback func())

	// Disconnect releases the voice transport.
	Disconnect() error
}

// SinkFactory connects audio sinks to voice channels.
type SinkFactory interface {
	Connect(ctx context.Context, guildID, voiceChannelID snowflake.ID) (AudioSink, error)
}
