package audioio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process; every OtoSink shares it and
// converts its audio to the context format.
var (
	otoMu       sync.Mutex
	otoCtx      *oto.Context
	otoRate     int
	otoChannels int
)

func sharedOtoContext(rate, channels int) (*oto.Context, int, int, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		return otoCtx, otoRate, otoChannels, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, 0, 0, fmt.Errorf("oto context: %w", err)
	}
	<-ready

	otoCtx, otoRate, otoChannels = ctx, rate, channels
	return otoCtx, otoRate, otoChannels, nil
}

// OtoSink plays audio through the system output via oto.
type OtoSink struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	player   *oto.Player
	queue    *pcmQueue
	rate     int
	channels int
	closed   bool

	chunksWritten  atomic.Int64
	samplesWritten atomic.Int64
}

// NewOtoSink creates a speaker sink. The device is opened on Start.
func NewOtoSink(cfg Config, logger *slog.Logger) *OtoSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &OtoSink{cfg: cfg, logger: logger}
}

// Start opens the shared output context and starts a player.
func (s *OtoSink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.player != nil {
		s.player.Play()
		return nil
	}

	octx, rate, channels, err := sharedOtoContext(s.cfg.SampleRate, s.cfg.Channels)
	if err != nil {
		return err
	}
	if rate != s.cfg.SampleRate || channels != s.cfg.Channels {
		s.logger.Warn("speaker already open with another format, converting",
			"rate", rate, "channels", channels)
	}

	s.rate, s.channels = rate, channels
	s.queue = newPCMQueue(channels * 2)
	s.player = octx.NewPlayer(s.queue)
	s.player.Play()

	s.logger.Info("speaker playback started", "sample_rate", rate, "channels", channels)
	return nil
}

// Stop pauses playback; queued audio is kept.
func (s *OtoSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		s.player.Pause()
	}
	return nil
}

// Write converts and queues a chunk. It blocks while more than a second of
// audio is already waiting.
func (s *OtoSink) Write(ctx context.Context, chunk AudioChunk) error {
	s.mu.Lock()
	if s.closed || s.player == nil {
		s.mu.Unlock()
		return ErrClosed
	}
	q, rate, channels := s.queue, s.rate, s.channels
	s.mu.Unlock()

	converted := Convert(chunk, rate, channels)
	limit := rate * channels * 2

	for q.Len() > limit {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}

	q.push(SamplesToBytes(converted.Samples))
	s.chunksWritten.Add(1)
	s.samplesWritten.Add(int64(len(converted.Samples)))
	return nil
}

// Flush waits for the queue and the player buffer to drain.
func (s *OtoSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	q, player := s.queue, s.player
	bytesPerSec := s.rate * s.channels * 2
	s.mu.Unlock()
	if q == nil {
		return nil
	}

	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for q.Len() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	// What is left sits in the device buffer.
	if bytesPerSec > 0 {
		wait := time.Duration(player.BufferedSize()) * time.Second / time.Duration(bytesPerSec)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil
}

// Clear drops everything not yet handed to the device.
func (s *OtoSink) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue != nil {
		s.queue.clear()
	}
	return nil
}

// Config returns the audio configuration.
func (s *OtoSink) Config() Config { return s.cfg }

// Name returns "oto".
func (s *OtoSink) Name() string { return "oto" }

// Close stops the player for good. The shared context stays open.
func (s *OtoSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.queue != nil {
		s.queue.close()
	}
	if s.player != nil {
		return s.player.Close()
	}
	return nil
}

// Stats returns sink statistics.
func (s *OtoSink) Stats() SinkStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	var buffered int64
	running := false
	if s.queue != nil {
		buffered = int64(s.queue.Len() / 2)
	}
	if s.player != nil {
		running = s.player.IsPlaying()
	}
	return SinkStats{
		ChunksWritten:   s.chunksWritten.Load(),
		SamplesWritten:  s.samplesWritten.Load(),
		Underruns:       s.queueUnderruns(),
		Running:         running,
		Backend:         "oto",
		BufferedSamples: buffered,
	}
}

func (s *OtoSink) queueUnderruns() int64 {
	if s.queue == nil {
		return 0
	}
	return s.queue.underruns.Load()
}

var _ SinkWithStats = (*OtoSink)(nil)

// pcmQueue is the io.Reader the oto player pulls from. When nothing is
// queued it hands out a short run of silence instead of blocking the
// player's mixer.
type pcmQueue struct {
	frameBytes int

	mu     sync.Mutex
	buf    []byte
	closed bool
	idle   bool // last read found nothing queued

	underruns atomic.Int64
}

const silenceBytes = 256

func newPCMQueue(frameBytes int) *pcmQueue {
	return &pcmQueue{frameBytes: frameBytes}
}

func (q *pcmQueue) push(b []byte) {
	q.mu.Lock()
	q.buf = append(q.buf, b...)
	q.idle = false
	q.mu.Unlock()
}

func (q *pcmQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

func (q *pcmQueue) clear() {
	q.mu.Lock()
	q.buf = q.buf[:0]
	q.mu.Unlock()
}

func (q *pcmQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// Read implements io.Reader.
func (q *pcmQueue) Read(p []byte) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.buf) > 0 {
		n := copy(p, q.buf)
		n -= n % q.frameBytes
		if n == 0 {
			n = copy(p, q.buf)
		}
		q.buf = q.buf[n:]
		return n, nil
	}
	if q.closed {
		return 0, io.EOF
	}

	if !q.idle {
		q.underruns.Add(1)
		q.idle = true
	}
	n := min(len(p), silenceBytes)
	n -= n % q.frameBytes
	clear(p[:n])
	return n, nil
}
