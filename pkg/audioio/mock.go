package audioio

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// MockSource generates silence or a sine tone in real time.
type MockSource struct {
	cfg Config
	*pump

	phase     float64
	frequency float64 // Hz, 0 = silence
	amplitude float64 // 0..1
}

// MockSourceOption configures a MockSource.
type MockSourceOption func(*MockSource)

// WithSineWave makes the mock emit a tone.
func WithSineWave(frequency, amplitude float64) MockSourceOption {
	return func(m *MockSource) {
		m.frequency = frequency
		m.amplitude = amplitude
	}
}

// NewMockSource creates a mock source. It is silent unless configured.
func NewMockSource(cfg Config, logger *slog.Logger, opts ...MockSourceOption) *MockSource {
	m := &MockSource{cfg: cfg, pump: newPump("mock", logger), amplitude: 0.5}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins generating audio until ctx ends or Stop is called.
func (m *MockSource) Start(ctx context.Context) error {
	stop, ok, err := m.begin()
	if err != nil || !ok {
		return err
	}

	go func() {
		ticker := time.NewTicker(m.cfg.BufferDuration)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				m.Stop()
				return
			case <-stop:
				return
			case <-ticker.C:
				m.emit(m.generate())
			}
		}
	}()

	m.logger.Info("mock audio source started", "sample_rate", m.cfg.SampleRate, "frequency", m.frequency)
	return nil
}

func (m *MockSource) generate() AudioChunk {
	frames := m.cfg.BufferSize()
	samples := make([]int16, frames*m.cfg.Channels)

	if m.frequency > 0 {
		step := 2 * math.Pi * m.frequency / float64(m.cfg.SampleRate)
		for i := 0; i < frames; i++ {
			v := int16(m.amplitude * 32767 * math.Sin(m.phase))
			for ch := 0; ch < m.cfg.Channels; ch++ {
				samples[i*m.cfg.Channels+ch] = v
			}
			m.phase = math.Mod(m.phase+step, 2*math.Pi)
		}
	}

	return AudioChunk{Samples: samples, SampleRate: m.cfg.SampleRate, Channels: m.cfg.Channels}
}

// Stop halts generation.
func (m *MockSource) Stop() error {
	if m.end() {
		m.logger.Info("mock audio source stopped")
	}
	return nil
}

// Read returns the next generated chunk.
func (m *MockSource) Read(ctx context.Context) (AudioChunk, error) {
	return readStream(ctx, m.stream())
}

// Stream returns the chunk channel of the current run.
func (m *MockSource) Stream() <-chan AudioChunk { return m.stream() }

// Config returns the audio configuration.
func (m *MockSource) Config() Config { return m.cfg }

// Name returns "mock".
func (m *MockSource) Name() string { return "mock" }

// Close stops the source for good.
func (m *MockSource) Close() error {
	m.shut()
	return nil
}

// Stats returns source statistics.
func (m *MockSource) Stats() SourceStats { return m.stats() }

var _ SourceWithStats = (*MockSource)(nil)

// MockSink records written audio instead of playing it.
type MockSink struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	buffer  []AudioChunk
	played  []AudioChunk

	chunksWritten  atomic.Int64
	samplesWritten atomic.Int64
}

// NewMockSink creates a mock sink.
func NewMockSink(cfg Config, logger *slog.Logger) *MockSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &MockSink{cfg: cfg, logger: logger}
}

// Start begins accepting audio.
func (m *MockSink) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.running = true
	return nil
}

// Stop halts audio acceptance.
func (m *MockSink) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	return nil
}

// Write buffers a chunk.
func (m *MockSink) Write(ctx context.Context, chunk AudioChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || !m.running {
		return ErrClosed
	}
	m.buffer = append(m.buffer, chunk)
	m.chunksWritten.Add(1)
	m.samplesWritten.Add(int64(len(chunk.Samples)))
	return nil
}

// Flush moves buffered chunks to the played list.
func (m *MockSink) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.played = append(m.played, m.buffer...)
	m.buffer = m.buffer[:0]
	return nil
}

// Clear discards buffered audio.
func (m *MockSink) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buffer = m.buffer[:0]
	return nil
}

// Played returns every chunk flushed so far.
func (m *MockSink) Played() []AudioChunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AudioChunk(nil), m.played...)
}

// Config returns the audio configuration.
func (m *MockSink) Config() Config { return m.cfg }

// Name returns "mock".
func (m *MockSink) Name() string { return "mock" }

// Close stops the sink for good.
func (m *MockSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.running = false
	return nil
}

// Stats returns sink statistics.
func (m *MockSink) Stats() SinkStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	var buffered int64
	for _, c := range m.buffer {
		buffered += int64(len(c.Samples))
	}
	return SinkStats{
		ChunksWritten:   m.chunksWritten.Load(),
		SamplesWritten:  m.samplesWritten.Load(),
		Running:         m.running,
		Backend:         "mock",
		BufferedSamples: buffered,
	}
}

var _ SinkWithStats = (*MockSink)(nil)
