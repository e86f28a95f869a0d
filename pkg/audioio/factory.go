package audioio

import (
	"fmt"
	"log/slog"
)

// NewSource creates a source for cfg. Auto selects the microphone.
func NewSource(cfg Config, logger *slog.Logger) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	backend := cfg.Backend
	if backend == BackendAuto || backend == "" {
		backend = BackendPortAudio
	}

	logger.Info("creating audio source",
		"backend", backend,
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"buffer_ms", cfg.BufferDuration.Milliseconds(),
	)

	switch backend {
	case BackendMock:
		return NewMockSource(cfg, logger), nil
	case BackendPortAudio:
		return NewPortAudioSource(cfg, logger), nil
	case BackendFile:
		return OpenFileSource(cfg.Device, cfg.BufferDuration, logger)
	default:
		return nil, fmt.Errorf("%w: %s cannot capture", ErrUnsupportedBackend, backend)
	}
}

// NewSink creates a sink for cfg. Auto selects the speaker.
func NewSink(cfg Config, logger *slog.Logger) (Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	backend := cfg.Backend
	if backend == BackendAuto || backend == "" {
		backend = BackendOto
	}

	logger.Info("creating audio sink",
		"backend", backend,
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
	)

	switch backend {
	case BackendMock:
		return NewMockSink(cfg, logger), nil
	case BackendOto:
		return NewOtoSink(cfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s cannot play", ErrUnsupportedBackend, backend)
	}
}
