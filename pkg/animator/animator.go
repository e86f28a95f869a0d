// Package animator drives an expression.Face from audio and pointer events.
//
// An Animator is the face's single owner: one goroutine (Run) ticks the
// face at a fixed rate and applies pointer, resize, reset and sample
// events in arrival order. Audio is fed straight into the spectrum
// analyser, which is safe for concurrent writers.
package animator

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/teslashibe/go-sphere/pkg/audioio"
	"github.com/teslashibe/go-sphere/pkg/expression"
	"github.com/teslashibe/go-sphere/pkg/metrics"
	"github.com/teslashibe/go-sphere/pkg/spectrum"
)

var (
	// ErrStopped is returned for events sent after Run has returned.
	ErrStopped = errors.New("animator stopped")

	// ErrRunning is returned when Run is called twice.
	ErrRunning = errors.New("animator already running")
)

// idle is what the face sees when nothing is driving it.
var idle = []float64{0}

// FrameFunc receives emitted frames. It runs on the animation goroutine and
// must not block.
type FrameFunc func(expression.Frame)

type eventKind int

const (
	evSamples eventKind = iota
	evLook
	evResize
	evReset
)

func (k eventKind) String() string {
	switch k {
	case evSamples:
		return "samples"
	case evLook:
		return "pointer"
	case evResize:
		return "resize"
	case evReset:
		return "reset"
	}
	return "unknown"
}

type event struct {
	kind    eventKind
	samples []float64
	point   expression.Point
	size    float64
	at      time.Time
}

// Stats counts what the loop has done.
type Stats struct {
	Ticks   uint64 `json:"ticks"`
	Emitted uint64 `json:"emitted"`
	Skipped uint64 `json:"skipped"`
	Events  uint64 `json:"events"`
	Running bool   `json:"running"`
}

// Option configures an Animator.
type Option func(*Animator)

// WithID names the animator in logs and metrics.
func WithID(id string) Option {
	return func(a *Animator) { a.id = id }
}

// Animator ticks one face.
type Animator struct {
	id       string
	face     *expression.Face
	analyser *spectrum.Analyzer
	cfg      Config
	logger   *slog.Logger

	events  chan event
	done    chan struct{}
	started atomic.Bool

	// Owned by the Run goroutine.
	external   []float64
	externalAt time.Time
	hasLast    bool
	last       expression.Frame

	// Snapshots for other goroutines.
	mu      sync.RWMutex
	frame   expression.Frame
	layout  expression.Layout
	subs    map[int]FrameFunc
	nextSub int

	lastFeed atomic.Int64

	ticks   atomic.Uint64
	emitted atomic.Uint64
	skipped atomic.Uint64
	handled atomic.Uint64

	mTicks    prometheus.Counter
	mSkipped  prometheus.Counter
	mMouth    prometheus.Gauge
	mSmoothed prometheus.Gauge
}

// New creates an animator for face. analyser may be nil when magnitudes
// only ever arrive through Samples. Unusable config fields fall back to
// their DefaultConfig values.
func New(face *expression.Face, analyser *spectrum.Analyzer, cfg Config, logger *slog.Logger, opts ...Option) *Animator {
	if logger == nil {
		logger = slog.Default()
	}
	invalid := cfg.Validate()
	cfg = cfg.withDefaults()
	a := &Animator{
		id:       "default",
		face:     face,
		analyser: analyser,
		cfg:      cfg,
		events:   make(chan event, cfg.EventBuffer),
		done:     make(chan struct{}),
		subs:     make(map[int]FrameFunc),
		frame:    face.Frame(),
		layout:   face.Layout(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logger.With("figure", a.id)
	if invalid != nil {
		a.logger.Warn("animator config adjusted", "error", invalid, "tick_rate", cfg.TickRate, "event_buffer", cfg.EventBuffer)
	}
	a.mTicks = metrics.Ticks.WithLabelValues(a.id)
	a.mSkipped = metrics.FramesSkipped.WithLabelValues(a.id)
	a.mMouth = metrics.MouthHeight.WithLabelValues(a.id)
	a.mSmoothed = metrics.SmoothedAmplitude.WithLabelValues(a.id)
	return a
}

// ID returns the animator's name.
func (a *Animator) ID() string { return a.id }

// OnFrame registers fn for every emitted frame and returns a function that
// removes it.
func (a *Animator) OnFrame(fn FrameFunc) (cancel func()) {
	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.subs, id)
		a.mu.Unlock()
	}
}

// Frame returns the latest frame.
func (a *Animator) Frame() expression.Frame {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.frame
}

// Layout returns the current geometry.
func (a *Animator) Layout() expression.Layout {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.layout
}

// Config returns the loop configuration.
func (a *Animator) Config() Config { return a.cfg }

// Feed pushes PCM into the analyser. Multi-channel audio is downmixed.
func (a *Animator) Feed(chunk audioio.AudioChunk) {
	if a.analyser == nil || len(chunk.Samples) == 0 {
		return
	}
	a.analyser.Write(chunk.Mono(), chunk.SampleRate)
	a.lastFeed.Store(time.Now().UnixNano())
}

// FeedSource feeds every chunk of src until its stream closes or ctx ends.
func (a *Animator) FeedSource(ctx context.Context, src audioio.Source) error {
	stream := src.Stream()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-stream:
			if !ok {
				return nil
			}
			a.Feed(chunk)
		}
	}
}

// Samples supplies magnitudes from an external analyser. They drive the
// face until newer ones arrive or SampleHold passes.
func (a *Animator) Samples(values []float64) error {
	// An empty reading still holds the face silent; keep it non-nil.
	return a.send(event{kind: evSamples, samples: append(make([]float64, 0, len(values)), values...)})
}

// Look aims the pupils at p.
func (a *Animator) Look(p expression.Point) error {
	return a.send(event{kind: evLook, point: p})
}

// Resize changes the figure size.
func (a *Animator) Resize(size float64) error {
	return a.send(event{kind: evResize, size: size})
}

// Reset closes the mouth and centres the pupils.
func (a *Animator) Reset() error {
	return a.send(event{kind: evReset})
}

// send queues ev, waiting for room so that no event is lost or reordered.
func (a *Animator) send(ev event) error {
	ev.at = time.Now()
	select {
	case <-a.done:
		return ErrStopped
	default:
	}
	select {
	case a.events <- ev:
		return nil
	case <-a.done:
		return ErrStopped
	}
}

// Run ticks the face until ctx is cancelled. An animator runs once.
func (a *Animator) Run(ctx context.Context) error {
	if !a.started.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer close(a.done)

	ticker := time.NewTicker(a.cfg.Interval())
	defer ticker.Stop()

	a.logger.Info("animator started", "tick_rate", a.cfg.TickRate)
	a.publish(a.face.Frame())

	for {
		select {
		case <-ctx.Done():
			st := a.Stats()
			a.logger.Info("animator stopped", "ticks", st.Ticks, "emitted", st.Emitted, "skipped", st.Skipped)
			return nil
		case ev := <-a.events:
			a.apply(ev)
		case now := <-ticker.C:
			a.tick(now)
		}
	}
}

// Done is closed once Run has returned.
func (a *Animator) Done() <-chan struct{} { return a.done }

func (a *Animator) apply(ev event) {
	a.handled.Add(1)
	metrics.Events.WithLabelValues(ev.kind.String()).Inc()

	switch ev.kind {
	case evSamples:
		a.external = ev.samples
		a.externalAt = ev.at
		// Samples show up on the next tick.
		return
	case evLook:
		a.publish(a.face.Look(ev.point))
	case evResize:
		frame := a.face.Resize(ev.size)
		a.mu.Lock()
		a.layout = a.face.Layout()
		a.mu.Unlock()
		a.logger.Debug("figure resized", "size", frame.Size)
		a.publish(frame)
	case evReset:
		a.external = nil
		a.face.Reset()
		if a.analyser != nil {
			a.analyser.Reset()
		}
		a.publish(a.face.Frame())
	}
}

func (a *Animator) tick(now time.Time) {
	a.ticks.Add(1)
	a.mTicks.Inc()

	frame := a.face.Tick(a.samplesAt(now))
	a.mMouth.Set(frame.MouthHeight)
	a.mSmoothed.Set(frame.SmoothedAmplitude)
	a.publish(frame)

	if n := a.ticks.Load(); n%1000 == 0 {
		a.logger.Debug("animator heartbeat", "ticks", n, "skipped", a.skipped.Load(), "mouth", frame.MouthHeight)
	}
}

// samplesAt picks what drives the face this tick: fresh external samples,
// then the analyser, then silence.
func (a *Animator) samplesAt(now time.Time) []float64 {
	if a.external != nil {
		if now.Sub(a.externalAt) <= a.cfg.SampleHold {
			return a.external
		}
		a.external = nil
	}
	if a.analyser == nil {
		return idle
	}

	// Audio that stopped arriving leaves the last window in the analyser;
	// drop it so the mouth closes.
	if last := a.lastFeed.Load(); last != 0 && now.Sub(time.Unix(0, last)) > a.cfg.SampleHold {
		if a.lastFeed.CompareAndSwap(last, 0) {
			a.analyser.Reset()
		}
	}
	return a.analyser.Frequencies()
}

// publish emits frame unless it is within the dead zone of the last one.
func (a *Animator) publish(frame expression.Frame) {
	a.mu.Lock()
	a.frame = frame
	a.mu.Unlock()

	if a.hasLast && same(a.last, frame, a.cfg.Epsilon) {
		a.skipped.Add(1)
		a.mSkipped.Inc()
		return
	}
	a.hasLast = true
	a.last = frame
	a.emitted.Add(1)

	a.mu.RLock()
	subs := make([]FrameFunc, 0, len(a.subs))
	for _, fn := range a.subs {
		subs = append(subs, fn)
	}
	a.mu.RUnlock()

	for _, fn := range subs {
		fn(frame)
	}
}

func same(a, b expression.Frame, eps float64) bool {
	near := func(x, y float64) bool { return math.Abs(x-y) <= eps }
	return near(a.Size, b.Size) &&
		near(a.MouthHeight, b.MouthHeight) &&
		near(a.SmoothedAmplitude, b.SmoothedAmplitude) &&
		near(a.LeftPupil.X, b.LeftPupil.X) && near(a.LeftPupil.Y, b.LeftPupil.Y) &&
		near(a.RightPupil.X, b.RightPupil.X) && near(a.RightPupil.Y, b.RightPupil.Y)
}

// Stats returns loop statistics.
func (a *Animator) Stats() Stats {
	running := a.started.Load()
	select {
	case <-a.done:
		running = false
	default:
	}
	return Stats{
		Ticks:   a.ticks.Load(),
		Emitted: a.emitted.Load(),
		Skipped: a.skipped.Load(),
		Events:  a.handled.Load(),
		Running: running,
	}
}
