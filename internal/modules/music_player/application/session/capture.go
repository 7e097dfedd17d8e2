package session

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
)

// onceCloser makes Close idempotent; the sink and destroy may both close a stream.
type onceCloser struct {
	io.ReadCloser
	once sync.Once
	err  error
}

func newOnceCloser(rc io.ReadCloser) *onceCloser {
	return &onceCloser{ReadCloser: rc}
}

func (c *onceCloser) Close() error {
	c.once.Do(func() {
		c.err = c.ReadCloser.Close()
	})
	return c.err
}

// captureReader copies everything read from src into a loop capture.
// The capture is committed when src reaches EOF and aborted on an early Close.
type captureReader struct {
	src     io.ReadCloser
	capture ports.LoopCapture

	mu       sync.Mutex
	finished bool
	failed   bool

	closeOnce sync.Once
	closeErr  error
}

func newCaptureReader(src io.ReadCloser, capture ports.LoopCapture) *captureReader {
	return &captureReader{src: src, capture: capture}
}

func (c *captureReader) Read(b []byte) (int, error) {
	n, err := c.src.Read(b)
	if n > 0 {
		c.mu.Lock()
		if !c.finished && !c.failed {
			if _, werr := c.capture.Write(b[:n]); werr != nil {
				slog.Warn("failed to write loop capture", "error", werr)
				c.failed = true
			}
		}
		c.mu.Unlock()
	}
	if errors.Is(err, io.EOF) {
		c.finish(true)
	}
	return n, err
}

func (c *captureReader) Close() error {
	c.closeOnce.Do(func() {
		c.finish(false)
		c.closeErr = c.src.Close()
	})
	return c.closeErr
}

func (c *captureReader) finish(complete bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finished {
		return
	}
	c.finished = true

	if complete && !c.failed {
		if err := c.capture.Commit(); err != nil {
			slog.Warn("failed to commit loop capture", "error", err)
		}
		return
	}
	if err := c.capture.Abort(); err != nil {
		slog.Warn("failed to abort loop capture", "error", err)
	}
}
