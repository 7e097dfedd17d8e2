package ports

import "io"

// LoopCapture receives a copy of a stream as it is played.
type LoopCapture interface {
	io.Writer

	// Commit publishes the captured bytes as the replay artifact.
	Commit() error

	// Abort discards the captured bytes.
	Abort() error
}

// LoopCache stores one replay artifact per key so a looped track can be
// played again without asking its provider for a new stream.
type LoopCache interface {
	// Capture starts recording a new artifact for key.
	// Nothing is visible to Open or Exists until Commit.
	Capture(key string) (LoopCapture, error)

	// Open returns a reader over the committed artifact for key.
	Open(key string) (io.ReadCloser, error)

	// Exists reports whether a committed artifact exists for key.
	Exists(key string) bool

	// Remove deletes the artifact for key. Removing a missing artifact is not an error.
	Remove(key string) error
}
