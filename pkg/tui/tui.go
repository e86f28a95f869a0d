package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teslashibe/go-sphere/pkg/expression"
)

// Options configures the renderer.
type Options struct {
	// Title is shown on the status line.
	Title string

	// Size is the figure size until the first frame says otherwise.
	Size float64

	// Frames drives redraws. Closing it ends the program.
	Frames <-chan expression.Frame

	// OnLook receives pointer positions in figure pixels. Nil disables
	// mouse tracking.
	OnLook func(expression.Point)

	// OnReset is called for the reset key. Nil hides the binding.
	OnReset func()

	// Plain draws ASCII instead of coloured blocks.
	Plain bool
}

// Run starts the renderer and blocks until the user quits, the frame channel
// closes or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	popts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.OnLook != nil {
		popts = append(popts, tea.WithMouseAllMotion())
	}
	program := tea.NewProgram(NewModel(opts), popts...)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			program.Quit()
		case <-done:
		}
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
