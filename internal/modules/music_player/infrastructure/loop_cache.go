package infrastructure

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
)

const (
	loopArtifactExt = ".audio"
	loopPartialExt  = ".part"
)

// FileLoopCache stores loop artifacts as files in a temp directory.
// A capture is written to "<key>.audio.part" and renamed into place on commit.
type FileLoopCache struct {
	dir string
}

// NewFileLoopCache creates dir if needed and removes artifacts left over by a previous run.
func NewFileLoopCache(dir string) (*FileLoopCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create loop cache dir: %w", err)
	}

	c := &FileLoopCache{dir: dir}
	if err := c.purge(); err != nil {
		return nil, err
	}
	return c, nil
}

// Dir returns the directory artifacts are stored in.
func (c *FileLoopCache) Dir() string {
	return c.dir
}

// Capture starts writing a new artifact for key.
func (c *FileLoopCache) Capture(key string) (ports.LoopCapture, error) {
	final, err := c.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(final + loopPartialExt)
	if err != nil {
		return nil, fmt.Errorf("failed to create loop capture: %w", err)
	}
	return &fileCapture{file: f, final: final}, nil
}

// Open returns a reader over the committed artifact for key.
func (c *FileLoopCache) Open(key string) (io.ReadCloser, error) {
	p, err := c.path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// Exists reports whether a committed artifact exists for key.
func (c *FileLoopCache) Exists(key string) bool {
	p, err := c.path(key)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes the artifact for key and any unfinished capture.
func (c *FileLoopCache) Remove(key string) error {
	p, err := c.path(key)
	if err != nil {
		return err
	}

	var errs []error
	for _, name := range []string{p, p + loopPartialExt} {
		if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// path maps key to a file inside dir, rejecting keys that would escape it.
func (c *FileLoopCache) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid loop cache key %q", key)
	}
	return filepath.Join(c.dir, key+loopArtifactExt), nil
}

func (c *FileLoopCache) purge() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("failed to read loop cache dir: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(name, loopArtifactExt) && !strings.HasSuffix(name, loopPartialExt) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil {
			slog.Warn("failed to remove stale loop artifact", "file", name, "error", err)
		}
	}
	return nil
}

type fileCapture struct {
	file  *os.File
	final string
	once  sync.Once
	err   error
}

func (c *fileCapture) Write(b []byte) (int, error) {
	return c.file.Write(b)
}

func (c *fileCapture) Commit() error {
	c.once.Do(func() {
		if err := c.file.Close(); err != nil {
			_ = os.Remove(c.file.Name())
			c.err = fmt.Errorf("failed to close loop capture: %w", err)
			return
		}
		if err := os.Rename(c.file.Name(), c.final); err != nil {
			_ = os.Remove(c.file.Name())
			c.err = fmt.Errorf("failed to commit loop capture: %w", err)
		}
	})
	return c.err
}

func (c *fileCapture) Abort() error {
	c.once.Do(func() {
		_ = c.file.Close()
		if err := os.Remove(c.file.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			c.err = err
		}
	})
	return c.err
}

// MemoryLoopCache keeps loop artifacts in memory.
// Used when no temp directory is configured.
type MemoryLoopCache struct {
	mu        sync.RWMutex
	artifacts map[string][]byte
}

// NewMemoryLoopCache creates a new MemoryLoopCache.
func NewMemoryLoopCache() *MemoryLoopCache {
	return &MemoryLoopCache{artifacts: make(map[string][]byte)}
}

// Capture starts recording a new artifact for key.
func (c *MemoryLoopCache) Capture(key string) (ports.LoopCapture, error) {
	return &memoryCapture{cache: c, key: key}, nil
}

// Open returns a reader over the committed artifact for key.
func (c *MemoryLoopCache) Open(key string) (io.ReadCloser, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, ok := c.artifacts[key]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Exists reports whether a committed artifact exists for key.
func (c *MemoryLoopCache) Exists(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.artifacts[key]
	return ok
}

// Remove deletes the artifact for key.
func (c *MemoryLoopCache) Remove(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.artifacts, key)
	return nil
}

type memoryCapture struct {
	cache *MemoryLoopCache
	key   string
	buf   bytes.Buffer
}

func (c *memoryCapture) Write(b []byte) (int, error) {
	return c.buf.Write(b)
}

func (c *memoryCapture) Commit() error {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()

	c.cache.artifacts[c.key] = c.buf.Bytes()
	return nil
}

func (c *memoryCapture) Abort() error {
	c.buf.Reset()
	return nil
}

// Ensure both caches implement ports.LoopCache.
var (
	_ ports.LoopCache = (*FileLoopCache)(nil)
	_ ports.LoopCache = (*MemoryLoopCache)(nil)
)
