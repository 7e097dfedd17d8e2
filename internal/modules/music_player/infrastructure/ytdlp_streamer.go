package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/lrstanley/go-ytdlp"
)

// YtdlpStreamer pipes the best audio format of a URL through yt-dlp.
type YtdlpStreamer struct {
	format string
}

// NewYtdlpStreamer creates a new YtdlpStreamer.
func NewYtdlpStreamer() *YtdlpStreamer {
	return &YtdlpStreamer{format: "bestaudio[ext=webm]/bestaudio[ext=m4a]/bestaudio/best"}
}

// Stream starts yt-dlp for url and returns its stdout.
// Closing the reader stops the process.
func (s *YtdlpStreamer) Stream(ctx context.Context, url string) (io.ReadCloser, error) {
	// yt-dlp has no separate YouTube Music extractor for plain watch pages.
	url = strings.Replace(url, "music.youtube.com", "www.youtube.com", 1)

	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		Format(s.format).
		Output("-").
		NoPart().
		NoPlaylist().
		BuildCommand(ctx, url)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open yt-dlp stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	return newCommandReader(stdout, cmd), nil
}

// commandReader reads a process's stdout and reaps the process on Close.
type commandReader struct {
	io.ReadCloser
	cmd  *exec.Cmd
	once sync.Once
	err  error
}

func newCommandReader(stdout io.ReadCloser, cmd *exec.Cmd) *commandReader {
	return &commandReader{ReadCloser: stdout, cmd: cmd}
}

func (r *commandReader) Close() error {
	r.once.Do(func() {
		_ = r.ReadCloser.Close()
		if r.cmd.Process != nil {
			_ = r.cmd.Process.Kill()
		}
		err := r.cmd.Wait()
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			r.err = err
		}
	})
	return r.err
}
