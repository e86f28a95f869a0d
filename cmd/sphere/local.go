package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-sphere/pkg/animator"
	"github.com/teslashibe/go-sphere/pkg/audioio"
	"github.com/teslashibe/go-sphere/pkg/expression"
	"github.com/teslashibe/go-sphere/pkg/spectrum"
	"github.com/teslashibe/go-sphere/pkg/tui"
)

// frameBuffer sits between the animator and the renderer. The renderer
// only needs the newest frames, so a full buffer drops.
const frameBuffer = 8

func newMicCmd(a *app) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:         "mic",
		Short:       "Animate a figure in the terminal from the microphone",
		Args:        cobra.NoArgs,
		Annotations: terminalCommand(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			src, err := audioio.NewSource(a.cfg.Audio, a.logger)
			if err != nil {
				return err
			}
			defer src.Close()

			return a.animate(cmd.Context(), "mic", plain, func(ctx context.Context, anim *animator.Animator) error {
				if err := src.Start(ctx); err != nil {
					return err
				}
				return anim.FeedSource(ctx, src)
			})
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "draw ASCII instead of coloured blocks")
	return cmd
}

func newPlayCmd(a *app) *cobra.Command {
	var (
		plain bool
		stay  bool
	)

	cmd := &cobra.Command{
		Use:         "play FILE.wav",
		Short:       "Play a WAV file and animate a figure from what is played",
		Args:        cobra.ExactArgs(1),
		Annotations: terminalCommand(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			src, err := audioio.OpenFileSource(args[0], a.cfg.Audio.BufferDuration, a.logger)
			if err != nil {
				return err
			}
			defer src.Close()

			sinkCfg := a.cfg.Audio
			sinkCfg.SampleRate = src.Config().SampleRate
			sinkCfg.Channels = src.Config().Channels
			sinkCfg.Device = ""
			if sinkCfg.Backend == audioio.BackendFile || sinkCfg.Backend == audioio.BackendPortAudio {
				sinkCfg.Backend = audioio.BackendAuto
			}
			sink, err := audioio.NewSink(sinkCfg, a.logger)
			if err != nil {
				return err
			}
			defer sink.Close()

			title := filepath.Base(args[0])
			return a.animate(cmd.Context(), title, plain, func(ctx context.Context, anim *animator.Animator) error {
				err := play(ctx, src, audioio.NewTapSink(sink, anim.Feed))
				if err != nil || stay {
					return err
				}
				// Finished: end the program.
				return errPlaybackDone
			})
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "draw ASCII instead of coloured blocks")
	cmd.Flags().BoolVar(&stay, "stay", false, "keep the figure on screen after playback ends")
	return cmd
}

var errPlaybackDone = errors.New("playback finished")

// play copies src into sink until the file ends, then waits for the sink
// to drain.
func play(ctx context.Context, src audioio.Source, sink audioio.Sink) error {
	if err := sink.Start(ctx); err != nil {
		return fmt.Errorf("start sink: %w", err)
	}
	if err := src.Start(ctx); err != nil {
		return fmt.Errorf("start source: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-src.Stream():
			if !ok {
				return sink.Flush(ctx)
			}
			if err := sink.Write(ctx, chunk); err != nil {
				return fmt.Errorf("write %s: %w", sink.Name(), err)
			}
		}
	}
}

// feedFunc drives a local animator until ctx ends.
type feedFunc func(ctx context.Context, anim *animator.Animator) error

// animate runs a local figure, its feed and the terminal renderer until the
// user quits, the feed finishes with errPlaybackDone, or ctx ends.
func (a *app) animate(ctx context.Context, title string, plain bool, feed feedFunc) error {
	analyser, err := spectrum.New(a.cfg.Spectrum)
	if err != nil {
		return err
	}
	face := expression.NewFace(a.cfg.Figure.Size, a.cfg.Figure.Expression)
	anim := animator.New(face, analyser, a.cfg.Animator, a.logger, animator.WithID(title))

	frames, push := frameFeed(frameBuffer)
	cancelFrames := anim.OnFrame(push)
	defer cancelFrames()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return anim.Run(ctx) })
	g.Go(func() error { return feed(ctx, anim) })
	g.Go(func() error {
		defer cancel()
		return tui.Run(ctx, tui.Options{
			Title:   title,
			Size:    a.cfg.Figure.Size,
			Frames:  frames,
			OnLook:  func(p expression.Point) { anim.Look(p) },
			OnReset: func() { anim.Reset() },
			Plain:   plain,
		})
	})

	err = g.Wait()
	if errors.Is(err, errPlaybackDone) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// frameFeed returns a channel and a non-blocking writer for it.
func frameFeed(n int) (<-chan expression.Frame, func(expression.Frame)) {
	ch := make(chan expression.Frame, n)
	return ch, func(f expression.Frame) {
		select {
		case ch <- f:
		default:
		}
	}
}
