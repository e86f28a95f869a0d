package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-sphere/pkg/expression"
	"github.com/teslashibe/go-sphere/pkg/protocol"
)

const (
	dialTimeout  = 10 * time.Second
	writeTimeout = 5 * time.Second
	updateBuffer = 64
)

var (
	// ErrReadOnly is returned when a view session is asked to send input.
	ErrReadOnly = errors.New("session is read-only")
	// ErrSessionClosed is returned after Close.
	ErrSessionClosed = errors.New("session is closed")
)

// Update is one message received from a figure socket. Exactly one of
// Layout, Frame or Error is set.
type Update struct {
	Figure string
	Layout *expression.Layout
	Frame  *expression.Frame
	Error  *protocol.ErrorData
}

// Session is a websocket connection to one figure.
type Session struct {
	figure   string
	readOnly bool
	conn     *websocket.Conn

	updates chan Update
	done    chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool

	errMu sync.Mutex
	err   error
}

// View opens a read-only frame feed for figure id.
func (c *Client) View(ctx context.Context, id string) (*Session, error) {
	return c.dial(ctx, id, "view")
}

// Control opens a socket that can drive figure id as well as watch it.
func (c *Client) Control(ctx context.Context, id string) (*Session, error) {
	return c.dial(ctx, id, "control")
}

func (c *Client) dial(ctx context.Context, id, mode string) (*Session, error) {
	endpoint := c.wsEndpoint("/ws/figures/" + url.PathEscape(id) + "/" + mode)

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", endpoint, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	s := &Session{
		figure:   id,
		readOnly: mode == "view",
		conn:     conn,
		updates:  make(chan Update, updateBuffer),
		done:     make(chan struct{}),
	}
	go s.readLoop()
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()

	c.logger.Debug("figure session opened", "figure", id, "mode", mode)
	return s, nil
}

// Figure returns the figure id this session is bound to.
func (s *Session) Figure() string { return s.figure }

// Updates yields layouts, frames and server errors. It is closed when the
// connection ends.
func (s *Session) Updates() <-chan Update { return s.updates }

// Done is closed when the read loop exits.
func (s *Session) Done() <-chan struct{} { return s.done }

// Samples sends a frequency sample set.
func (s *Session) Samples(values []float64) error {
	return s.send(func() (*protocol.Message, error) { return protocol.NewSamplesMessage(values) })
}

// Audio sends little-endian PCM16 for the server to analyse.
func (s *Session) Audio(pcm []byte, sampleRate, channels int) error {
	return s.send(func() (*protocol.Message, error) {
		return protocol.NewAudioMessage(pcm, sampleRate, channels)
	})
}

// Look sends a pointer position.
func (s *Session) Look(p expression.Point) error {
	return s.send(func() (*protocol.Message, error) { return protocol.NewPointerMessage(p) })
}

// Resize asks the server to relayout the figure.
func (s *Session) Resize(size float64) error {
	return s.send(func() (*protocol.Message, error) { return protocol.NewResizeMessage(size) })
}

// Reset clears the figure's accumulator.
func (s *Session) Reset() error {
	return s.send(protocol.NewResetMessage)
}

// Ping sends a ping; the pong is consumed silently.
func (s *Session) Ping(id string) error {
	return s.send(func() (*protocol.Message, error) { return protocol.NewPingMessage(id) })
}

func (s *Session) send(build func() (*protocol.Message, error)) error {
	if s.readOnly {
		return ErrReadOnly
	}
	if s.closed.Load() {
		return ErrSessionClosed
	}
	msg, err := build()
	if err != nil {
		return err
	}
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Close closes the connection and waits for the read loop.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(2*time.Second))
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
	<-s.done
	return nil
}

// Err returns why the session ended, or nil for a clean close. It blocks
// until the read loop exits.
func (s *Session) Err() error {
	<-s.done
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *Session) setErr(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *Session) readLoop() {
	defer close(s.done)
	defer close(s.updates)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.setErr(err)
			}
			return
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			continue
		}

		var u Update
		switch msg.Type {
		case protocol.TypeLayout:
			d, err := msg.GetLayoutData()
			if err != nil {
				continue
			}
			u = Update{Figure: d.Figure, Layout: &d.Layout}
		case protocol.TypeFrame:
			d, err := msg.GetFrameData()
			if err != nil {
				continue
			}
			u = Update{Figure: d.Figure, Frame: &d.Frame}
		case protocol.TypeError:
			d, err := msg.GetErrorData()
			if err != nil {
				continue
			}
			u = Update{Figure: s.figure, Error: d}
		default:
			continue
		}
		s.emit(u)
	}
}

// emit never blocks the read loop. Layouts are rare and must not be lost, so
// a full buffer drops the oldest update to make room.
func (s *Session) emit(u Update) {
	select {
	case s.updates <- u:
		return
	default:
	}
	if u.Layout == nil {
		return
	}
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- u:
	default:
	}
}
