package voice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
	"layeh.com/gopus"
)

// ErrDisconnected is returned by Play after Disconnect.
var ErrDisconnected = errors.New("voice connection is closed")

// frameEncoder encodes one PCM frame into an Opus packet.
type frameEncoder interface {
	Encode(pcm []int16, frameSize, maxDataBytes int) ([]byte, error)
}

func newOpusEncoder() (frameEncoder, error) {
	encoder, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return nil, err
	}
	return encoder, nil
}

// transport is the part of a Discord voice connection the sink drives.
type transport struct {
	send       chan<- []byte
	speaking   func(bool) error
	disconnect func() error
}

// playback is one stream being played. Cancelling ctx ends it.
type playback struct {
	ctx      context.Context
	cancel   context.CancelFunc
	replaced bool
}

// Sink plays audio streams into a Discord voice connection.
type Sink struct {
	conn       transport
	decode     decodeFunc
	newEncoder func() (frameEncoder, error)

	mu           sync.Mutex
	current      *playback
	volume       float64
	paused       bool
	resume       chan struct{}
	onIdle       func()
	disconnected bool
}

func newSink(conn transport, decode decodeFunc, newEncoder func() (frameEncoder, error)) *Sink {
	return &Sink{
		conn:       conn,
		decode:     decode,
		newEncoder: newEncoder,
		volume:     1,
	}
}

// Play starts stream, replacing any stream already playing.
func (s *Sink) Play(stream io.ReadCloser, volume float64) error {
	s.mu.Lock()
	if s.disconnected {
		s.mu.Unlock()
		_ = stream.Close()
		return ErrDisconnected
	}

	if prev := s.current; prev != nil {
		prev.replaced = true
		prev.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	pb := &playback{ctx: ctx, cancel: cancel}
	s.current = pb
	s.volume = volume
	s.unpauseLocked()
	s.mu.Unlock()

	go s.run(pb, stream)
	return nil
}

// Pause holds output before the next frame.
func (s *Sink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.paused {
		s.paused = true
		s.resume = make(chan struct{})
	}
}

// Unpause resumes output.
func (s *Sink) Unpause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unpauseLocked()
}

func (s *Sink) unpauseLocked() {
	if s.paused {
		s.paused = false
		close(s.resume)
	}
}

// Stop ends the current stream. The idle callback fires once its goroutine exits.
func (s *Sink) Stop() {
	s.mu.Lock()
	pb := s.current
	s.current = nil
	s.mu.Unlock()

	if pb != nil {
		pb.cancel()
	}
}

// SetVolume applies from the next frame on.
func (s *Sink) SetVolume(volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = volume
}

// OnIdle registers the idle callback.
func (s *Sink) OnIdle(callback func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onIdle = callback
}

// Disconnect stops playback and leaves the voice channel.
func (s *Sink) Disconnect() error {
	s.mu.Lock()
	if s.disconnected {
		s.mu.Unlock()
		return nil
	}
	s.disconnected = true
	pb := s.current
	s.current = nil
	s.unpauseLocked()
	s.mu.Unlock()

	if pb != nil {
		pb.cancel()
	}
	return s.conn.disconnect()
}

func (s *Sink) run(pb *playback, src io.ReadCloser) {
	defer s.finish(pb)

	pcm, err := s.decode(pb.ctx, src)
	if err != nil {
		_ = src.Close()
		slog.Error("failed to start audio decoder", "error", err)
		return
	}
	defer pcm.Close()

	encoder, err := s.newEncoder()
	if err != nil {
		slog.Error("failed to create opus encoder", "error", err)
		return
	}

	if err := s.conn.speaking(true); err != nil {
		slog.Debug("failed to set speaking state", "error", err)
	}
	defer func() { _ = s.conn.speaking(false) }()

	buf := make([]byte, frameBytes)
	samples := make([]int16, frameSize*channels)

	for {
		if !s.waitUnpaused(pb) {
			return
		}

		if _, err := io.ReadFull(pcm, buf); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && pb.ctx.Err() == nil {
				slog.Warn("audio read failed", "error", err)
			}
			return
		}

		scalePCM(samples, buf, s.currentVolume())

		packet, err := encoder.Encode(samples, frameSize, maxOpusBytes)
		if err != nil {
			slog.Warn("opus encode failed", "error", err)
			return
		}

		select {
		case s.conn.send <- packet:
		case <-pb.ctx.Done():
			return
		}
	}
}

// waitUnpaused blocks while paused. Returns false once pb has been cancelled.
func (s *Sink) waitUnpaused(pb *playback) bool {
	for {
		s.mu.Lock()
		paused, resume := s.paused, s.resume
		s.mu.Unlock()

		if !paused {
			return pb.ctx.Err() == nil
		}
		select {
		case <-resume:
		case <-pb.ctx.Done():
			return false
		}
	}
}

func (s *Sink) currentVolume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// finish reports idle unless pb was replaced by a later Play.
func (s *Sink) finish(pb *playback) {
	pb.cancel()

	s.mu.Lock()
	if s.current == pb {
		s.current = nil
	}
	replaced := pb.replaced
	idle := s.onIdle
	s.mu.Unlock()

	if !replaced && idle != nil {
		idle()
	}
}

var _ ports.AudioSink = (*Sink)(nil)
