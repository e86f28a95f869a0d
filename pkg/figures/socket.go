package figures

import (
	"errors"
	"time"

	contribws "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-sphere/pkg/audioio"
	"github.com/teslashibe/go-sphere/pkg/hub"
	"github.com/teslashibe/go-sphere/pkg/protocol"
)

// RegisterRoutes registers WebSocket routes on a Fiber app
func (r *Registry) RegisterRoutes(app fiber.Router) {
	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if contribws.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// Controllers drive a figure and see its frames.
	app.Get("/ws/figures/:id/control", contribws.New(r.handleControl))

	// Viewers only see frames.
	app.Get("/ws/figures/:id/view", websocket.New(r.handleView))
}

// handleControl serves a socket that may send samples, audio, pointer,
// resize, reset and ping messages.
func (r *Registry) handleControl(c *contribws.Conn) {
	fig, err := r.Get(c.Params("id"))
	if err != nil {
		r.reject(c, err)
		return
	}

	r.logger.Debug("controller connected", "figure", fig.ID)
	client := hub.NewClient(fig.hub, c, fig.greeting()...)
	client.Run(func(cl *hub.Client, data []byte) {
		r.messagesReceived.Add(1)
		r.handleMessage(fig, cl, data)
	})
	r.logger.Debug("controller disconnected", "figure", fig.ID)
}

// handleView serves a read-only frame feed.
func (r *Registry) handleView(c *websocket.Conn) {
	fig, err := r.Get(c.Params("id"))
	if err != nil {
		r.reject(c, err)
		return
	}

	r.logger.Debug("viewer connected", "figure", fig.ID)
	hub.NewClient(fig.hub, c, fig.greeting()...).Run(nil)
	r.logger.Debug("viewer disconnected", "figure", fig.ID)
}

// reject tells the peer why and closes the socket.
func (r *Registry) reject(c hub.Conn, err error) {
	if msg, merr := protocol.NewErrorMessage("", err); merr == nil {
		if data, merr := msg.Bytes(); merr == nil {
			c.SetWriteDeadline(time.Now().Add(time.Second))
			c.WriteMessage(websocket.TextMessage, data)
		}
	}
	c.Close()
}

// handleMessage processes an incoming message from a controller
func (r *Registry) handleMessage(fig *Figure, cl *hub.Client, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		r.replyError(cl, "", err)
		return
	}

	a := fig.animator
	switch msg.Type {
	case protocol.TypeSamples:
		var d *protocol.SamplesData
		if d, err = msg.GetSamplesData(); err == nil {
			err = a.Samples(d.Values)
		}

	case protocol.TypeAudio:
		var d *protocol.AudioData
		if d, err = msg.GetAudioData(); err == nil {
			var pcm []byte
			if pcm, err = d.DecodeAudioData(); err == nil {
				a.Feed(audioio.AudioChunk{
					Samples:    audioio.BytesToSamples(pcm),
					SampleRate: d.SampleRate,
					Channels:   d.Channels,
				})
			}
		}

	case protocol.TypePointer:
		var d *protocol.PointerData
		if d, err = msg.GetPointerData(); err == nil {
			err = a.Look(d.Point())
		}

	case protocol.TypeResize:
		var d *protocol.ResizeData
		if d, err = msg.GetResizeData(); err == nil {
			err = a.Resize(d.Size)
		}

	case protocol.TypeReset:
		err = a.Reset()

	case protocol.TypePing:
		id := ""
		if d, perr := msg.GetPingData(); perr == nil {
			id = d.ID
		}
		r.reply(cl, func() (*protocol.Message, error) {
			return protocol.NewPongMessage(id, msg.Timestamp, time.Now().UnixMilli())
		})
		return

	default:
		err = protocol.ErrUnknownType
	}

	if err != nil {
		r.replyError(cl, msg.Type, err)
	}
}

func (r *Registry) replyError(cl *hub.Client, request protocol.MessageType, err error) {
	r.errors.Add(1)
	if !errors.Is(err, protocol.ErrInvalidData) && !errors.Is(err, protocol.ErrUnknownType) {
		r.logger.Debug("control message failed", "type", request, "error", err)
	}
	r.reply(cl, func() (*protocol.Message, error) {
		return protocol.NewErrorMessage(request, err)
	})
}

func (r *Registry) reply(cl *hub.Client, build func() (*protocol.Message, error)) {
	msg, err := build()
	if err != nil {
		return
	}
	m, err := hub.Encode(msg)
	if err != nil {
		return
	}
	if cl.Send(m) {
		r.messagesSent.Add(1)
	}
}
