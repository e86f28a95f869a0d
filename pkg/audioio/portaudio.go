package audioio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
)

var (
	paMu   sync.Mutex
	paRefs int
)

// acquirePortAudio initialises the PortAudio library for the first user.
func acquirePortAudio() error {
	paMu.Lock()
	defer paMu.Unlock()
	if paRefs == 0 {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("portaudio init: %w", err)
		}
	}
	paRefs++
	return nil
}

func releasePortAudio() {
	paMu.Lock()
	defer paMu.Unlock()
	if paRefs == 0 {
		return
	}
	paRefs--
	if paRefs == 0 {
		portaudio.Terminate()
	}
}

// PortAudioSource captures the microphone through PortAudio.
type PortAudioSource struct {
	cfg Config
	*pump

	streamMu sync.Mutex
	paStream *portaudio.Stream
}

// NewPortAudioSource creates a microphone source. Nothing is opened until
// Start.
func NewPortAudioSource(cfg Config, logger *slog.Logger) *PortAudioSource {
	return &PortAudioSource{cfg: cfg, pump: newPump("portaudio", logger)}
}

// Start opens the input stream and begins capture.
func (s *PortAudioSource) Start(ctx context.Context) error {
	stop, ok, err := s.begin()
	if err != nil || !ok {
		return err
	}

	if err := acquirePortAudio(); err != nil {
		s.end()
		return err
	}

	stream, err := s.open()
	if err != nil {
		releasePortAudio()
		s.end()
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		releasePortAudio()
		s.end()
		return fmt.Errorf("portaudio start: %w", err)
	}

	s.streamMu.Lock()
	s.paStream = stream
	s.streamMu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-stop:
		}
	}()

	s.logger.Info("microphone capture started",
		"device", s.deviceName(),
		"sample_rate", s.cfg.SampleRate,
		"channels", s.cfg.Channels,
	)
	return nil
}

func (s *PortAudioSource) open() (*portaudio.Stream, error) {
	frames := s.cfg.BufferSize()
	callback := func(in []int16) {
		samples := make([]int16, len(in))
		copy(samples, in)
		s.emit(AudioChunk{Samples: samples, SampleRate: s.cfg.SampleRate, Channels: s.cfg.Channels})
	}

	if s.cfg.Device == "" {
		stream, err := portaudio.OpenDefaultStream(s.cfg.Channels, 0, float64(s.cfg.SampleRate), frames, callback)
		if err != nil {
			return nil, fmt.Errorf("portaudio open default input: %w", err)
		}
		return stream, nil
	}

	dev, err := findInputDevice(s.cfg.Device)
	if err != nil {
		return nil, err
	}
	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = s.cfg.Channels
	params.SampleRate = float64(s.cfg.SampleRate)
	params.FramesPerBuffer = frames

	stream, err := portaudio.OpenStream(params, callback)
	if err != nil {
		return nil, fmt.Errorf("portaudio open %q: %w", s.cfg.Device, err)
	}
	return stream, nil
}

func (s *PortAudioSource) deviceName() string {
	if s.cfg.Device == "" {
		return "default"
	}
	return s.cfg.Device
}

// findInputDevice matches name case-insensitively as a substring.
func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("portaudio devices: %w", err)
	}
	want := strings.ToLower(name)
	for _, d := range devices {
		if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), want) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no input device matching %q", name)
}

// InputDevices lists capture-capable device names.
func InputDevices() ([]string, error) {
	if err := acquirePortAudio(); err != nil {
		return nil, err
	}
	defer releasePortAudio()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("portaudio devices: %w", err)
	}
	var names []string
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			names = append(names, d.Name)
		}
	}
	return names, nil
}

// Stop halts capture and closes the stream.
func (s *PortAudioSource) Stop() error {
	if !s.end() {
		return nil
	}

	s.streamMu.Lock()
	stream := s.paStream
	s.paStream = nil
	s.streamMu.Unlock()
	if stream == nil {
		return nil
	}

	var firstErr error
	if err := stream.Stop(); err != nil {
		firstErr = fmt.Errorf("portaudio stop: %w", err)
	}
	if err := stream.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("portaudio close: %w", err)
	}
	releasePortAudio()

	s.logger.Info("microphone capture stopped", "chunks", s.chunks.Load(), "overruns", s.overruns.Load())
	return firstErr
}

// Read returns the next captured chunk.
func (s *PortAudioSource) Read(ctx context.Context) (AudioChunk, error) {
	return readStream(ctx, s.pump.stream())
}

// Stream returns the chunk channel of the current run.
func (s *PortAudioSource) Stream() <-chan AudioChunk { return s.pump.stream() }

// Config returns the audio configuration.
func (s *PortAudioSource) Config() Config { return s.cfg }

// Name returns "portaudio".
func (s *PortAudioSource) Name() string { return "portaudio" }

// Close stops capture for good.
func (s *PortAudioSource) Close() error {
	s.pump.mu.Lock()
	s.pump.closed = true
	s.pump.mu.Unlock()
	return s.Stop()
}

// Stats returns source statistics.
func (s *PortAudioSource) Stats() SourceStats { return s.stats() }

var _ SourceWithStats = (*PortAudioSource)(nil)
