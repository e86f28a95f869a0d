// Package figures keeps the set of live figures and exposes them over
// REST and websockets.
package figures

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-sphere/pkg/animator"
	"github.com/teslashibe/go-sphere/pkg/expression"
	"github.com/teslashibe/go-sphere/pkg/hub"
	"github.com/teslashibe/go-sphere/pkg/metrics"
	"github.com/teslashibe/go-sphere/pkg/spectrum"
)

// DefaultID names the figure that always exists.
const DefaultID = "default"

// Options configure every figure the registry creates.
type Options struct {
	Size       float64           `yaml:"size" json:"size"`
	Expression expression.Config `yaml:"expression" json:"expression"`
	Animator   animator.Config   `yaml:"animator" json:"animator"`
	Spectrum   spectrum.Config   `yaml:"spectrum" json:"spectrum"`

	// MaxFigures caps the registry. Zero means no limit.
	MaxFigures int `yaml:"max_figures" json:"max_figures"`
}

// DefaultOptions returns stock figure settings.
func DefaultOptions() Options {
	return Options{
		Size:       expression.DefaultSize,
		Expression: expression.DefaultConfig(),
		Animator:   animator.DefaultConfig(),
		Spectrum:   spectrum.VoiceConfig(),
		MaxFigures: 64,
	}
}

// Registry owns the live figures.
type Registry struct {
	opts   Options
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	figures map[string]*Figure
	closed  bool

	// Stats
	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	errors           atomic.Uint64
}

// NewRegistry creates a registry holding the default figure.
func NewRegistry(opts Options, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := opts.Expression.Validate(); err != nil {
		return nil, fmt.Errorf("expression: %w", err)
	}
	if err := opts.Animator.Validate(); err != nil {
		return nil, fmt.Errorf("animator: %w", err)
	}
	if err := opts.Spectrum.Validate(); err != nil {
		return nil, fmt.Errorf("spectrum: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		opts:    opts,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		figures: make(map[string]*Figure),
	}
	if _, err := r.create(DefaultID, opts.Size, true); err != nil {
		cancel()
		return nil, err
	}
	return r, nil
}

// Options returns the settings figures are created with.
func (r *Registry) Options() Options { return r.opts }

// Create starts a new figure with a random id. A non-positive size uses
// the configured default.
func (r *Registry) Create(size float64) (*Figure, error) {
	return r.create(uuid.NewString(), size, false)
}

// CreateWithID starts a new figure under id.
func (r *Registry) CreateWithID(id string, size float64) (*Figure, error) {
	if id == "" {
		return nil, fmt.Errorf("figure id must not be empty")
	}
	return r.create(id, size, false)
}

func (r *Registry) create(id string, size float64, persistent bool) (*Figure, error) {
	if size <= 0 {
		size = r.opts.Size
	}
	analyser, err := spectrum.New(r.opts.Spectrum)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	if _, ok := r.figures[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrFigureExists, id)
	}
	if r.opts.MaxFigures > 0 && len(r.figures) >= r.opts.MaxFigures {
		return nil, ErrTooManyFigures
	}

	logger := r.logger.With("figure", id)
	face := expression.NewFace(size, r.opts.Expression)
	fig := &Figure{
		ID:         id,
		Created:    time.Now(),
		Persistent: persistent,
		animator:   animator.New(face, analyser, r.opts.Animator, logger, animator.WithID(id)),
		hub:        hub.New(id, logger),
	}
	fig.start(r.ctx)
	r.figures[id] = fig
	metrics.ActiveFigures.Set(float64(len(r.figures)))

	logger.Info("figure created", "size", face.Layout().Size, "total", len(r.figures))
	return fig, nil
}

// Get returns the figure with id.
func (r *Registry) Get(id string) (*Figure, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fig, ok := r.figures[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFigureNotFound, id)
	}
	return fig, nil
}

// Default returns the figure that always exists.
func (r *Registry) Default() *Figure {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.figures[DefaultID]
}

// List returns every figure, oldest first.
func (r *Registry) List() []Info {
	r.mu.RLock()
	figs := make([]*Figure, 0, len(r.figures))
	for _, f := range r.figures {
		figs = append(figs, f)
	}
	r.mu.RUnlock()

	sort.Slice(figs, func(i, j int) bool {
		if figs[i].Created.Equal(figs[j].Created) {
			return figs[i].ID < figs[j].ID
		}
		return figs[i].Created.Before(figs[j].Created)
	})
	infos := make([]Info, len(figs))
	for i, f := range figs {
		infos[i] = f.Info()
	}
	return infos
}

// Count returns the number of figures.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.figures)
}

// Remove stops a figure and disconnects its sockets.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	fig, ok := r.figures[id]
	switch {
	case !ok:
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrFigureNotFound, id)
	case fig.Persistent:
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrPersistentFigure, id)
	}
	delete(r.figures, id)
	metrics.ActiveFigures.Set(float64(len(r.figures)))
	r.mu.Unlock()

	fig.stop()
	metrics.ForgetFigure(id)
	r.logger.Info("figure removed", "figure", id)
	return nil
}

// Close stops every figure.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	figs := make([]*Figure, 0, len(r.figures))
	for _, f := range r.figures {
		figs = append(figs, f)
	}
	r.figures = make(map[string]*Figure)
	r.mu.Unlock()

	r.cancel()
	for _, f := range figs {
		f.stop()
		metrics.ForgetFigure(f.ID)
	}
	metrics.ActiveFigures.Set(0)
	return nil
}

// Stats contains registry statistics
type Stats struct {
	Figures          int    `json:"figures"`
	Clients          int    `json:"clients"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	Errors           uint64 `json:"errors"`
}

// GetStats returns registry statistics
func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	clients := 0
	for _, f := range r.figures {
		clients += f.hub.ClientCount()
	}
	n := len(r.figures)
	r.mu.RUnlock()

	return Stats{
		Figures:          n,
		Clients:          clients,
		MessagesReceived: r.messagesReceived.Load(),
		MessagesSent:     r.messagesSent.Load(),
		Errors:           r.errors.Load(),
	}
}
