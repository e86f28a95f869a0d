package audioio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV describes decoded PCM16 audio.
type WAV struct {
	SampleRate int
	Channels   int
	Samples    []int16 // interleaved
}

// Duration returns the playing time.
func (w *WAV) Duration() time.Duration {
	c := AudioChunk{Samples: w.Samples, SampleRate: w.SampleRate, Channels: w.Channels}
	return c.Duration()
}

// DecodeWAV reads a RIFF/WAVE stream holding 16-bit integer PCM.
// Chunks other than "fmt " and "data" are skipped. Samples are read as the
// stream yields them, so a header claiming more data than the file holds
// costs nothing beyond the bytes present.
func DecodeWAV(r io.ReadSeeker) (*WAV, error) {
	d := wav.NewDecoder(r)
	d.ReadInfo()
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if d.NumChans == 0 || d.SampleRate == 0 {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE stream", ErrUnsupportedFormat)
	}
	// 0xFFFE is WAVE_FORMAT_EXTENSIBLE; PCM16 is all we decode either way.
	if (d.WavAudioFormat != 1 && d.WavAudioFormat != 0xFFFE) || d.BitDepth != 16 {
		return nil, fmt.Errorf("%w: format %d with %d bits", ErrUnsupportedFormat, d.WavAudioFormat, d.BitDepth)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if buf == nil {
		return nil, fmt.Errorf("%w: no data chunk", ErrUnsupportedFormat)
	}

	data := buf.Data
	// Truncated files are played as far as they go; trailing chunks are not audio.
	if n := d.PCMSize / 2; d.PCMSize > 0 && n < len(data) {
		data = data[:n]
	}
	samples := make([]int16, len(data))
	for i, v := range data {
		samples[i] = int16(v)
	}
	return &WAV{SampleRate: int(d.SampleRate), Channels: int(d.NumChans), Samples: samples}, nil
}

// EncodeWAV writes samples as a PCM16 file. The header sizes are patched on
// close, hence the seeker.
func EncodeWAV(ws io.WriteSeeker, w *WAV) error {
	enc := wav.NewEncoder(ws, w.SampleRate, 16, w.Channels, 1)
	data := make([]int, len(w.Samples))
	for i, v := range w.Samples {
		data[i] = int(v)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: w.Channels, SampleRate: w.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish wav: %w", err)
	}
	return nil
}

// FileSource replays decoded audio at real-time pace, then ends.
type FileSource struct {
	cfg Config
	*pump
	wav *WAV
	pos int // next frame
}

// OpenFileSource decodes the WAV at path.
func OpenFileSource(path string, chunk time.Duration, logger *slog.Logger) (*FileSource, error) {
	if path == "" {
		return nil, fmt.Errorf("file source needs a path")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	w, err := DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return NewWAVSource(w, chunk, logger), nil
}

// NewWAVSource replays already decoded audio.
func NewWAVSource(w *WAV, chunk time.Duration, logger *slog.Logger) *FileSource {
	if chunk <= 0 {
		chunk = 20 * time.Millisecond
	}
	return &FileSource{
		cfg: Config{
			Backend:        BackendFile,
			SampleRate:     w.SampleRate,
			Channels:       w.Channels,
			BufferDuration: chunk,
		},
		pump: newPump("file", logger),
		wav:  w,
	}
}

// Start begins emitting chunks at the file's own sample rate. The stream
// closes when the file ends.
func (s *FileSource) Start(ctx context.Context) error {
	stop, ok, err := s.begin()
	if err != nil || !ok {
		return err
	}

	go func() {
		ticker := time.NewTicker(s.cfg.BufferDuration)
		defer ticker.Stop()

		// Deliver the first chunk right away; the rest on the beat.
		s.next()
		for {
			select {
			case <-ctx.Done():
				s.Stop()
				return
			case <-stop:
				return
			case <-ticker.C:
				if !s.next() {
					s.logger.Info("file source finished", "duration", s.wav.Duration())
					s.Stop()
					return
				}
			}
		}
	}()
	return nil
}

// next emits the following chunk. It reports false at end of file.
func (s *FileSource) next() bool {
	frames := s.cfg.BufferSize()
	total := len(s.wav.Samples) / s.wav.Channels
	if s.pos >= total {
		return false
	}
	end := min(s.pos+frames, total)
	s.emit(AudioChunk{
		Samples:    s.wav.Samples[s.pos*s.wav.Channels : end*s.wav.Channels],
		SampleRate: s.wav.SampleRate,
		Channels:   s.wav.Channels,
	})
	s.pos = end
	return true
}

// Stop halts replay. A stopped file source resumes where it left off.
func (s *FileSource) Stop() error {
	s.end()
	return nil
}

// Read returns the next chunk or io.EOF at the end of the file.
func (s *FileSource) Read(ctx context.Context) (AudioChunk, error) {
	return readStream(ctx, s.pump.stream())
}

// Stream returns the chunk channel of the current run.
func (s *FileSource) Stream() <-chan AudioChunk { return s.pump.stream() }

// Config reports the file's format.
func (s *FileSource) Config() Config { return s.cfg }

// Name returns "file".
func (s *FileSource) Name() string { return "file" }

// Close stops the source for good.
func (s *FileSource) Close() error {
	s.shut()
	return nil
}

// Stats returns source statistics.
func (s *FileSource) Stats() SourceStats { return s.stats() }

var _ SourceWithStats = (*FileSource)(nil)
