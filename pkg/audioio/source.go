package audioio

import (
	"context"
	"io"
	"time"
)

// AudioChunk is a block of interleaved PCM16 audio.
type AudioChunk struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Bytes returns the chunk as PCM16 little-endian bytes.
func (c *AudioChunk) Bytes() []byte { return SamplesToBytes(c.Samples) }

// Mono returns the samples downmixed to one channel.
func (c *AudioChunk) Mono() []int16 { return Downmix(c.Samples, c.Channels) }

// Duration returns how long the chunk plays for.
func (c *AudioChunk) Duration() time.Duration {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	frames := len(c.Samples) / c.Channels
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}

// Source produces audio from a microphone, a file or a generator.
type Source interface {
	// Start begins producing chunks. Starting a running source is a no-op.
	Start(ctx context.Context) error

	// Stop halts production. Safe to call more than once.
	Stop() error

	// Read blocks for the next chunk and returns io.EOF once the source
	// has stopped or run out.
	Read(ctx context.Context) (AudioChunk, error)

	// Stream exposes the chunks as a channel closed on stop.
	Stream() <-chan AudioChunk

	Config() Config
	Name() string

	io.Closer
}

// SourceStats counts what a source has produced.
type SourceStats struct {
	ChunksRead  int64  `json:"chunks_read"`
	SamplesRead int64  `json:"samples_read"`
	Overruns    int64  `json:"overruns"`
	Running     bool   `json:"running"`
	Backend     string `json:"backend"`
}

// SourceWithStats extends Source with statistics.
type SourceWithStats interface {
	Source
	Stats() SourceStats
}

// readStream implements Source.Read over a chunk channel.
func readStream(ctx context.Context, ch <-chan AudioChunk) (AudioChunk, error) {
	select {
	case <-ctx.Done():
		return AudioChunk{}, ctx.Err()
	case chunk, ok := <-ch:
		if !ok {
			return AudioChunk{}, io.EOF
		}
		return chunk, nil
	}
}
