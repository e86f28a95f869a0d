package figures

import "errors"

var (
	// ErrFigureNotFound is returned for an unknown figure id.
	ErrFigureNotFound = errors.New("figure not found")

	// ErrFigureExists is returned when creating a figure with a taken id.
	ErrFigureExists = errors.New("figure already exists")

	// ErrPersistentFigure is returned when removing the default figure.
	ErrPersistentFigure = errors.New("figure cannot be removed")

	// ErrTooManyFigures is returned when the registry is full.
	ErrTooManyFigures = errors.New("too many figures")

	// ErrClosed is returned after the registry has been closed.
	ErrClosed = errors.New("registry closed")
)
