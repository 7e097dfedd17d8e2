package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrResolution is returned when input cannot be turned into a playable track.
	ErrResolution = errors.New("input could not be resolved to a playable track")

	// ErrUnknownPlatform is returned when no provider is registered for a platform.
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrNoSearchResults is returned when a requester has no cached search.
	ErrNoSearchResults = errors.New("no search results to pick from")

	// ErrInvalidIndex is returned when a search or queue index is out of range.
	ErrInvalidIndex = errors.New("index out of range")

	// ErrDestroyed is returned by operations on a session that has left.
	ErrDestroyed = errors.New("session has been destroyed")

	// ErrSessionExists is returned when a guild already has a session.
	ErrSessionExists = errors.New("a session already exists for this guild")

	// ErrSessionNotFound is returned when a guild has no session.
	ErrSessionNotFound = errors.New("no session for this guild")
)

// ProviderError wraps a failure reported by a track provider.
type ProviderError struct {
	Platform Platform
	Op       string // "search", "resolve" or "stream"
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Platform, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ResourceError wraps a failure releasing a session resource.
type ResourceError struct {
	Op  string
	Err error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}
