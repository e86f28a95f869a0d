// Package protocol defines the WebSocket messages exchanged between a figure
// server and its controllers and viewers.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/go-sphere/pkg/expression"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Client → server
	TypeSamples MessageType = "samples" // Frequency magnitudes from a client-side analyser
	TypeAudio   MessageType = "audio"   // Raw PCM for the server-side analyser
	TypePointer MessageType = "pointer" // Pointer position in figure pixels
	TypeResize  MessageType = "resize"  // New figure size
	TypeReset   MessageType = "reset"   // Close the mouth, centre the pupils

	// Server → client
	TypeFrame  MessageType = "frame"  // Expression snapshot
	TypeLayout MessageType = "layout" // Figure geometry
	TypeError  MessageType = "error"  // Rejected request

	// Bidirectional
	TypePing MessageType = "ping"
	TypePong MessageType = "pong"
)

// MaxSamples bounds a samples message. An AnalyserNode returns at most
// 16384 bins.
const MaxSamples = 16384

var (
	// ErrUnknownType is returned for messages this protocol does not define.
	ErrUnknownType = errors.New("unknown message type")

	// ErrInvalidData is returned when a payload fails validation.
	ErrInvalidData = errors.New("invalid message data")
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data any) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v any) error {
	if m.Data == nil {
		return nil
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidData, m.Type, err)
	}
	return nil
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidData)
	}
	return &msg, nil
}

// =============================================================================
// Client → Server Message Types
// =============================================================================

// SamplesData carries one reading of frequency magnitudes. Only the maximum
// matters to the face, so any bin count works.
type SamplesData struct {
	Values []float64 `json:"values"`
}

// AudioData carries PCM for the server-side analyser.
type AudioData struct {
	Format     string `json:"format"`      // "pcm16"
	SampleRate int    `json:"sample_rate"` // e.g. 24000
	Channels   int    `json:"channels"`    // 1 for mono
	Data       string `json:"data"`        // base64 encoded little-endian PCM16
}

// PointerData is a pointer position in figure pixel coordinates.
type PointerData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Point converts to expression coordinates.
func (p PointerData) Point() expression.Point { return expression.Pt(p.X, p.Y) }

// ResizeData requests a new figure size in pixels.
type ResizeData struct {
	Size float64 `json:"size"`
}

// =============================================================================
// Server → Client Message Types
// =============================================================================

// FrameData is an expression snapshot tagged with its figure.
type FrameData struct {
	Figure string `json:"figure,omitempty"`
	expression.Frame
}

// LayoutData is a figure's geometry.
type LayoutData struct {
	Figure string `json:"figure,omitempty"`
	expression.Layout
}

// ErrorData reports a rejected request.
type ErrorData struct {
	Message string      `json:"message"`
	Request MessageType `json:"request,omitempty"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
