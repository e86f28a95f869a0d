package audioio

import (
	"context"
	"io"
)

// Sink plays audio to a speaker or other output.
type Sink interface {
	// Start prepares the output. Chunks may be written afterwards.
	Start(ctx context.Context) error

	// Stop halts playback. Safe to call more than once.
	Stop() error

	// Write queues a chunk; it may block while the output is saturated.
	Write(ctx context.Context, chunk AudioChunk) error

	// Flush waits until everything queued has been played.
	Flush(ctx context.Context) error

	// Clear drops queued audio immediately.
	Clear() error

	Config() Config
	Name() string

	io.Closer
}

// SinkStats counts what a sink has played.
type SinkStats struct {
	ChunksWritten   int64  `json:"chunks_written"`
	SamplesWritten  int64  `json:"samples_written"`
	Underruns       int64  `json:"underruns"`
	Running         bool   `json:"running"`
	Backend         string `json:"backend"`
	BufferedSamples int64  `json:"buffered_samples"`
}

// SinkWithStats extends Sink with statistics.
type SinkWithStats interface {
	Sink
	Stats() SinkStats
}

// TapFunc observes audio on its way to a sink.
type TapFunc func(chunk AudioChunk)

// TapSink forwards every chunk to a TapFunc before handing it to the
// wrapped sink. Playback drives the figure this way: what gets played is
// what the analyser sees.
type TapSink struct {
	Sink
	tap TapFunc
}

// NewTapSink wraps inner. A nil tap makes the wrapper transparent.
func NewTapSink(inner Sink, tap TapFunc) *TapSink {
	return &TapSink{Sink: inner, tap: tap}
}

// Write taps then writes.
func (t *TapSink) Write(ctx context.Context, chunk AudioChunk) error {
	if t.tap != nil {
		t.tap(chunk)
	}
	return t.Sink.Write(ctx, chunk)
}

// Name reports the wrapped backend.
func (t *TapSink) Name() string { return "tap:" + t.Sink.Name() }
