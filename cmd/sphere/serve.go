package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-sphere/pkg/audioio"
	"github.com/teslashibe/go-sphere/pkg/figures"
	"github.com/teslashibe/go-sphere/pkg/web"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		port   int
		static string
		mic    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve figures over HTTP and websockets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			if cmd.Flags().Changed("static") {
				a.cfg.Server.StaticDir = static
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.serve(cmd.Context(), mic)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")
	cmd.Flags().StringVar(&static, "static", "", "directory of static files to serve")
	cmd.Flags().BoolVar(&mic, "mic", false, "animate the default figure from the microphone")
	return cmd
}

func (a *app) serve(ctx context.Context, mic bool) error {
	reg, err := figures.NewRegistry(figures.Options{
		Size:       a.cfg.Figure.Size,
		Expression: a.cfg.Figure.Expression,
		Animator:   a.cfg.Animator,
		Spectrum:   a.cfg.Spectrum,
		MaxFigures: a.cfg.Server.MaxFigures,
	}, a.logger)
	if err != nil {
		return err
	}
	defer reg.Close()

	srv := web.NewServer(web.Options{
		Addr:      a.cfg.Addr(),
		StaticDir: a.cfg.Server.StaticDir,
		Version:   version,
	}, reg, a.logger)

	var src audioio.Source
	if mic {
		src, err = audioio.NewSource(a.cfg.Audio, a.logger)
		if err != nil {
			return err
		}
		defer src.Close()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })

	if src != nil {
		g.Go(func() error {
			if err := src.Start(ctx); err != nil {
				return err
			}
			err := reg.Default().Animator().FeedSource(ctx, src)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	return g.Wait()
}
