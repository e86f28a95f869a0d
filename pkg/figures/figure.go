package figures

import (
	"context"
	"sync"
	"time"

	"github.com/teslashibe/go-sphere/pkg/animator"
	"github.com/teslashibe/go-sphere/pkg/expression"
	"github.com/teslashibe/go-sphere/pkg/hub"
	"github.com/teslashibe/go-sphere/pkg/protocol"
)

// Figure is one animated face with its animation loop and the hub that
// streams its frames.
type Figure struct {
	ID         string
	Created    time.Time
	Persistent bool

	animator *animator.Animator
	hub      *hub.Hub

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Info summarises a figure for listings.
type Info struct {
	ID         string         `json:"id"`
	Created    time.Time      `json:"created"`
	Size       float64        `json:"size"`
	Persistent bool           `json:"persistent"`
	Clients    int            `json:"clients"`
	Stats      animator.Stats `json:"stats"`
}

// Detail is the full state of one figure.
type Detail struct {
	Info
	Layout expression.Layout `json:"layout"`
	Frame  expression.Frame  `json:"frame"`
}

// start runs the animator and hub under ctx and streams frames to the hub.
func (f *Figure) start(ctx context.Context) {
	ctx, f.cancel = context.WithCancel(ctx)

	lastSize := f.animator.Layout().Size
	f.animator.OnFrame(func(frame expression.Frame) {
		// Runs on the animator goroutine, so lastSize needs no lock.
		if frame.Size != lastSize {
			lastSize = frame.Size
			if msg, err := protocol.NewLayoutMessage(f.ID, expression.NewLayout(frame.Size)); err == nil {
				f.hub.BroadcastMessage(msg)
			}
		}
		if msg, err := protocol.NewFrameMessage(f.ID, frame); err == nil {
			f.hub.BroadcastMessage(msg)
		}
	})

	f.wg.Add(2)
	go func() {
		defer f.wg.Done()
		f.hub.Run(ctx)
	}()
	go func() {
		defer f.wg.Done()
		f.animator.Run(ctx)
	}()
}

// stop cancels the loops and waits for them.
func (f *Figure) stop() {
	f.cancel()
	f.wg.Wait()
}

// Animator returns the loop driving the figure.
func (f *Figure) Animator() *animator.Animator { return f.animator }

// Hub returns the frame fan-out of the figure.
func (f *Figure) Hub() *hub.Hub { return f.hub }

// Info returns a summary.
func (f *Figure) Info() Info {
	return Info{
		ID:         f.ID,
		Created:    f.Created,
		Size:       f.animator.Layout().Size,
		Persistent: f.Persistent,
		Clients:    f.hub.ClientCount(),
		Stats:      f.animator.Stats(),
	}
}

// Detail returns the summary with geometry and the latest frame.
func (f *Figure) Detail() Detail {
	return Detail{
		Info:   f.Info(),
		Layout: f.animator.Layout(),
		Frame:  f.animator.Frame(),
	}
}

// greeting is what a new socket receives before any broadcast.
func (f *Figure) greeting() []hub.Message {
	var out []hub.Message
	if msg, err := protocol.NewLayoutMessage(f.ID, f.animator.Layout()); err == nil {
		if m, err := hub.Encode(msg); err == nil {
			out = append(out, m)
		}
	}
	if msg, err := protocol.NewFrameMessage(f.ID, f.animator.Frame()); err == nil {
		if m, err := hub.Encode(msg); err == nil {
			out = append(out, m)
		}
	}
	return out
}
