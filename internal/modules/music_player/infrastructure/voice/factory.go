package voice

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
)

// Config configures voice connections.
type Config struct {
	Deaf       bool
	FFmpegPath string
}

// SinkFactory joins voice channels through discordgo.
type SinkFactory struct {
	session *discordgo.Session
	config  Config
}

// NewSinkFactory creates a new SinkFactory.
func NewSinkFactory(session *discordgo.Session, config Config) *SinkFactory {
	if config.FFmpegPath == "" {
		config.FFmpegPath = "ffmpeg"
	}
	return &SinkFactory{session: session, config: config}
}

// Connect joins the voice channel and returns a sink playing into it.
func (f *SinkFactory) Connect(
	ctx context.Context,
	guildID, voiceChannelID snowflake.ID,
) (ports.AudioSink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vc, err := f.session.ChannelVoiceJoin(guildID.String(), voiceChannelID.String(), false, f.config.Deaf)
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}

	conn := transport{
		send:       vc.OpusSend,
		speaking:   vc.Speaking,
		disconnect: vc.Disconnect,
	}
	return newSink(conn, ffmpegDecoder(f.config.FFmpegPath), newOpusEncoder), nil
}

var _ ports.SinkFactory = (*SinkFactory)(nil)
