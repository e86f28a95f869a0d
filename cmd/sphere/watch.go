package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-sphere/pkg/client"
	"github.com/teslashibe/go-sphere/pkg/expression"
	"github.com/teslashibe/go-sphere/pkg/figures"
	"github.com/teslashibe/go-sphere/pkg/tui"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		figure   string
		readOnly bool
		plain    bool
	)

	cmd := &cobra.Command{
		Use:   "watch URL",
		Short: "Render a remote figure in the terminal",
		Long: `watch connects to a sphere server and draws one of its figures. Unless
--read-only is given, mouse movement steers the figure's pupils and r resets it.`,
		Example:     "  sphere watch http://localhost:8080 --figure default",
		Args:        cobra.ExactArgs(1),
		Annotations: terminalCommand(),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.New(args[0], client.WithLogger(a.logger))
			if err != nil {
				return err
			}
			return a.watch(cmd.Context(), c, figure, readOnly, plain)
		},
	}
	cmd.Flags().StringVarP(&figure, "figure", "f", figures.DefaultID, "figure id")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "open a view socket that cannot steer the figure")
	cmd.Flags().BoolVar(&plain, "plain", false, "draw ASCII instead of coloured blocks")
	return cmd
}

func (a *app) watch(ctx context.Context, c *client.Client, figure string, readOnly, plain bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	open := c.Control
	if readOnly {
		open = c.View
	}
	s, err := open(ctx, figure)
	if err != nil {
		return err
	}
	defer s.Close()

	frames := make(chan expression.Frame, frameBuffer)
	opts := tui.Options{
		Title:  fmt.Sprintf("%s @ %s", figure, c.BaseURL()),
		Size:   expression.DefaultSize,
		Frames: frames,
		Plain:  plain,
	}
	if !readOnly {
		opts.OnLook = func(p expression.Point) {
			if err := s.Look(p); err != nil {
				a.logger.Debug("look failed", "error", err)
			}
		}
		opts.OnReset = func() { s.Reset() }
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(frames)
		return relay(ctx, s, frames, a.logger.Warn)
	})
	g.Go(func() error {
		defer cancel()
		return tui.Run(ctx, opts)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// relay forwards frames from s to out until the session ends, reporting
// server errors through warn. A session that fails returns its error.
func relay(ctx context.Context, s *client.Session, out chan<- expression.Frame, warn func(string, ...any)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-s.Updates():
			if !ok {
				return s.Err()
			}
			switch {
			case u.Frame != nil:
				select {
				case out <- *u.Frame:
				default:
				}
			case u.Error != nil:
				warn("server rejected request", "figure", s.Figure(), "request", u.Error.Request, "error", u.Error.Message)
			}
		}
	}
}
