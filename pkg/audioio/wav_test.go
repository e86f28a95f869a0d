package audioio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestWAVRoundTrip(t *testing.T) {
	in := &WAV{SampleRate: 8000, Channels: 2, Samples: []int16{1, -1, 300, -300, 32767, -32768}}

	path := filepath.Join(t.TempDir(), "round.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := EncodeWAV(f, in); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if fi, err := f.Stat(); err != nil || fi.Size() != int64(44+len(in.Samples)*2) {
		t.Errorf("encoded size = %v (%v), want %d", fi.Size(), err, 44+len(in.Samples)*2)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("seek: %v", err)
	}

	out, err := DecodeWAV(f)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if out.SampleRate != 8000 || out.Channels != 2 {
		t.Errorf("format = %d/%d, want 8000/2", out.SampleRate, out.Channels)
	}
	if len(out.Samples) != len(in.Samples) {
		t.Fatalf("len = %d, want %d", len(out.Samples), len(in.Samples))
	}
	for i := range in.Samples {
		if out.Samples[i] != in.Samples[i] {
			t.Errorf("sample %d = %d, want %d", i, out.Samples[i], in.Samples[i])
		}
	}
}

// A header claiming 4 GiB of data must not be trusted for allocation.
func TestDecodeWAVOversizedHeader(t *testing.T) {
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(0xFFFFFFFF))
	b.WriteString("WAVE")
	b.Write(fmtChunk(1, 1, 16000, 16))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(0xFFFFFFFF))
	for i := 0; i < 8; i++ {
		binary.Write(&b, binary.LittleEndian, int16(i))
	}
	if b.Len() != 60 {
		t.Fatalf("fixture is %d bytes, want 60", b.Len())
	}

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	w, err := DecodeWAV(bytes.NewReader(b.Bytes()))
	runtime.ReadMemStats(&after)

	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if len(w.Samples) != 8 || w.Samples[7] != 7 {
		t.Errorf("samples = %v, want 0..7", w.Samples)
	}
	if grew := after.TotalAlloc - before.TotalAlloc; grew > 64<<20 {
		t.Errorf("decoding allocated %d bytes", grew)
	}
}

// wavWith builds a RIFF stream from raw chunks.
func wavWith(chunks ...[]byte) []byte {
	var body bytes.Buffer
	body.WriteString("WAVE")
	for _, c := range chunks {
		body.Write(c)
	}
	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func riffChunk(id string, payload []byte) []byte {
	var b bytes.Buffer
	b.WriteString(id)
	binary.Write(&b, binary.LittleEndian, uint32(len(payload)))
	b.Write(payload)
	if len(payload)%2 == 1 {
		b.WriteByte(0)
	}
	return b.Bytes()
}

func fmtChunk(format, channels uint16, rate uint32, bits uint16) []byte {
	var b bytes.Buffer
	binary.Write(&b, binary.LittleEndian, format)
	binary.Write(&b, binary.LittleEndian, channels)
	binary.Write(&b, binary.LittleEndian, rate)
	binary.Write(&b, binary.LittleEndian, rate*uint32(channels)*uint32(bits/8))
	binary.Write(&b, binary.LittleEndian, channels*bits/8)
	binary.Write(&b, binary.LittleEndian, bits)
	return riffChunk("fmt ", b.Bytes())
}

func TestDecodeWAV(t *testing.T) {
	pcm := []byte{0x01, 0x00, 0xFF, 0xFF}

	tests := []struct {
		name    string
		data    []byte
		want    int // samples
		wantErr error
	}{
		{
			name: "skips unknown chunks",
			data: wavWith(fmtChunk(1, 1, 16000, 16), riffChunk("JUNK", []byte("pad!")), riffChunk("data", pcm)),
			want: 2,
		},
		{
			name: "truncated data",
			data: wavWith(fmtChunk(1, 1, 16000, 16), riffChunk("data", pcm))[:44+2],
			want: 1,
		},
		{
			name:    "not wave",
			data:    []byte("RIFF\x04\x00\x00\x00AVI "),
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "8-bit",
			data:    wavWith(fmtChunk(1, 1, 8000, 8), riffChunk("data", pcm)),
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "float",
			data:    wavWith(fmtChunk(3, 1, 8000, 16), riffChunk("data", pcm)),
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "no data",
			data:    wavWith(fmtChunk(1, 1, 8000, 16)),
			wantErr: ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := DecodeWAV(bytes.NewReader(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeWAV: %v", err)
			}
			if len(w.Samples) != tt.want {
				t.Errorf("len(Samples) = %d, want %d", len(w.Samples), tt.want)
			}
		})
	}
}

func TestFileSourcePlaysToEnd(t *testing.T) {
	// 50 ms of mono 8 kHz audio in 10 ms chunks.
	w := &WAV{SampleRate: 8000, Channels: 1, Samples: make([]int16, 400)}
	for i := range w.Samples {
		w.Samples[i] = int16(i)
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := EncodeWAV(f, w); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	f.Close()

	src, err := OpenFileSource(path, 10*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("OpenFileSource: %v", err)
	}
	defer src.Close()

	if cfg := src.Config(); cfg.SampleRate != 8000 || cfg.Channels != 1 {
		t.Errorf("Config = %+v, want the file's format", cfg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var got []int16
	for {
		chunk, err := src.Read(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		got = append(got, chunk.Samples...)
	}

	if len(got) != len(w.Samples) {
		t.Fatalf("read %d samples, want %d", len(got), len(w.Samples))
	}
	for i := range got {
		if got[i] != w.Samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, got[i], w.Samples[i])
		}
	}
	if st := src.Stats(); st.ChunksRead != 5 || st.Running {
		t.Errorf("stats = %+v, want 5 chunks and stopped", st)
	}
}

func TestOpenFileSourceErrors(t *testing.T) {
	if _, err := OpenFileSource("", time.Millisecond, nil); err == nil {
		t.Error("empty path should fail")
	}
	if _, err := OpenFileSource(filepath.Join(t.TempDir(), "missing.wav"), time.Millisecond, nil); err == nil {
		t.Error("missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "junk.wav")
	if err := os.WriteFile(path, []byte("not audio at all"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := OpenFileSource(path, time.Millisecond, nil); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("junk file err = %v, want ErrUnsupportedFormat", err)
	}
}
