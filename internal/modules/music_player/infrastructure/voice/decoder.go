package voice

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
)

// decodeFunc turns an encoded audio stream into raw 48kHz stereo s16le PCM.
// The returned reader must unblock once ctx is cancelled.
type decodeFunc func(ctx context.Context, src io.ReadCloser) (io.ReadCloser, error)

// ffmpegDecoder decodes with an ffmpeg child process.
func ffmpegDecoder(ffmpegPath string) decodeFunc {
	return func(ctx context.Context, src io.ReadCloser) (io.ReadCloser, error) {
		cmd := exec.CommandContext(ctx, ffmpegPath,
			"-hide_banner",
			"-loglevel", "error",
			"-i", "pipe:0",
			"-f", "s16le",
			"-ar", strconv.Itoa(sampleRate),
			"-ac", strconv.Itoa(channels),
			"pipe:1",
		)
		cmd.Stdin = src

		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("failed to open ffmpeg stdout: %w", err)
		}
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
		}

		return &processReader{ReadCloser: stdout, cmd: cmd, src: src}, nil
	}
}

// processReader reads ffmpeg's stdout. Close kills the process and releases its input.
type processReader struct {
	io.ReadCloser
	cmd  *exec.Cmd
	src  io.Closer
	once sync.Once
}

func (r *processReader) Close() error {
	r.once.Do(func() {
		if r.cmd.Process != nil {
			_ = r.cmd.Process.Kill()
		}
		// Unblocks the stdin copier so Wait can return.
		_ = r.src.Close()
		_ = r.ReadCloser.Close()
		_ = r.cmd.Wait()
	})
	return nil
}
