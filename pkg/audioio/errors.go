package audioio

import "errors"

var (
	// ErrUnsupportedBackend is returned when a backend cannot serve the
	// requested direction.
	ErrUnsupportedBackend = errors.New("unsupported audio backend")

	// ErrUnsupportedFormat is returned for WAV files that are not PCM16.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrClosed is returned when using a source or sink after Close.
	ErrClosed = errors.New("audio device closed")
)
