package audioio

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// pump carries the lifecycle shared by every Source backend: a channel of
// chunks that is replaced on each start and closed on stop, plus counters.
type pump struct {
	name   string
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	ch      chan AudioChunk
	stopCh  chan struct{}

	chunks   atomic.Int64
	samples  atomic.Int64
	overruns atomic.Int64
}

func newPump(name string, logger *slog.Logger) *pump {
	if logger == nil {
		logger = slog.Default()
	}
	p := &pump{name: name, logger: logger, ch: make(chan AudioChunk), stopCh: make(chan struct{})}
	close(p.ch)
	return p
}

// begin flips the pump to running and returns the stop channel for the
// producer. ok is false when already running; err is set after Close.
func (p *pump) begin() (stop <-chan struct{}, ok bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, false, ErrClosed
	}
	if p.running {
		return nil, false, nil
	}
	p.running = true
	p.ch = make(chan AudioChunk, 16)
	p.stopCh = make(chan struct{})
	return p.stopCh, true, nil
}

// emit queues a chunk without blocking the producer; a full queue counts
// as an overrun.
func (p *pump) emit(chunk AudioChunk) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	select {
	case p.ch <- chunk:
		p.chunks.Add(1)
		p.samples.Add(int64(len(chunk.Samples)))
	default:
		p.overruns.Add(1)
		p.logger.Debug("audio source overrun, dropping chunk", "backend", p.name)
	}
}

func (p *pump) stream() <-chan AudioChunk {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch
}

// end stops the pump. It reports whether this call did the stopping.
func (p *pump) end() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return false
	}
	p.running = false
	close(p.stopCh)
	close(p.ch)
	return true
}

// shut marks the pump closed and stops it.
func (p *pump) shut() bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.closed = true
	p.mu.Unlock()
	p.end()
	return true
}

func (p *pump) stats() SourceStats {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()
	return SourceStats{
		ChunksRead:  p.chunks.Load(),
		SamplesRead: p.samples.Load(),
		Overruns:    p.overruns.Load(),
		Running:     running,
		Backend:     p.name,
	}
}
