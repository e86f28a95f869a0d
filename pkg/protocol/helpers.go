package protocol

import (
	"encoding/base64"
	"fmt"
	"math"
	"time"

	"github.com/teslashibe/go-sphere/pkg/expression"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewSamplesMessage creates a samples message
func NewSamplesMessage(values []float64) (*Message, error) {
	return NewMessage(TypeSamples, SamplesData{Values: values})
}

// NewAudioMessage creates an audio message from PCM16 samples
func NewAudioMessage(pcm []byte, sampleRate, channels int) (*Message, error) {
	return NewMessage(TypeAudio, AudioData{
		Format:     "pcm16",
		SampleRate: sampleRate,
		Channels:   channels,
		Data:       base64.StdEncoding.EncodeToString(pcm),
	})
}

// NewPointerMessage creates a pointer message
func NewPointerMessage(p expression.Point) (*Message, error) {
	return NewMessage(TypePointer, PointerData{X: p.X, Y: p.Y})
}

// NewResizeMessage creates a resize message
func NewResizeMessage(size float64) (*Message, error) {
	return NewMessage(TypeResize, ResizeData{Size: size})
}

// NewResetMessage creates a reset message
func NewResetMessage() (*Message, error) {
	return NewMessage(TypeReset, nil)
}

// NewFrameMessage creates a frame message
func NewFrameMessage(figure string, f expression.Frame) (*Message, error) {
	return NewMessage(TypeFrame, FrameData{Figure: figure, Frame: f})
}

// NewLayoutMessage creates a layout message
func NewLayoutMessage(figure string, l expression.Layout) (*Message, error) {
	return NewMessage(TypeLayout, LayoutData{Figure: figure, Layout: l})
}

// NewErrorMessage creates an error message
func NewErrorMessage(request MessageType, err error) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Message: err.Error(), Request: request})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetSamplesData extracts and validates samples
func (m *Message) GetSamplesData() (*SamplesData, error) {
	var data SamplesData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	if len(data.Values) > MaxSamples {
		return nil, fmt.Errorf("%w: %d samples exceeds %d", ErrInvalidData, len(data.Values), MaxSamples)
	}
	return &data, nil
}

// GetAudioData extracts and validates audio data
func (m *Message) GetAudioData() (*AudioData, error) {
	var data AudioData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	if data.Format != "" && data.Format != "pcm16" {
		return nil, fmt.Errorf("%w: audio format %q", ErrInvalidData, data.Format)
	}
	if data.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample_rate %d", ErrInvalidData, data.SampleRate)
	}
	if data.Channels <= 0 {
		data.Channels = 1
	}
	return &data, nil
}

// DecodeAudioData decodes the base64 PCM
func (a *AudioData) DecodeAudioData() ([]byte, error) {
	return base64.StdEncoding.DecodeString(a.Data)
}

// GetPointerData extracts a pointer position
func (m *Message) GetPointerData() (*PointerData, error) {
	var data PointerData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	if math.IsNaN(data.X) || math.IsNaN(data.Y) || math.IsInf(data.X, 0) || math.IsInf(data.Y, 0) {
		return nil, fmt.Errorf("%w: pointer must be finite", ErrInvalidData)
	}
	return &data, nil
}

// GetResizeData extracts and validates a resize request
func (m *Message) GetResizeData() (*ResizeData, error) {
	var data ResizeData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	if !(data.Size > 0) || math.IsInf(data.Size, 0) {
		return nil, fmt.Errorf("%w: size must be positive, got %v", ErrInvalidData, data.Size)
	}
	return &data, nil
}

// GetFrameData extracts frame data from a message
func (m *Message) GetFrameData() (*FrameData, error) {
	var data FrameData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetLayoutData extracts layout data from a message
func (m *Message) GetLayoutData() (*LayoutData, error) {
	var data LayoutData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetErrorData extracts error data from a message
func (m *Message) GetErrorData() (*ErrorData, error) {
	var data ErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
