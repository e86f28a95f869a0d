// Command sphere serves, renders and drives amplitude-animated figures.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-sphere/internal/config"
	"github.com/teslashibe/go-sphere/internal/log"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app carries what every subcommand needs after flags are parsed.
type app struct {
	configPath string
	logLevel   string
	logFormat  string
	logFile    string

	cfg    config.Config
	logger *slog.Logger
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "sphere",
		Short: "Animated figures whose mouths follow audio",
		Long: `sphere maps audio amplitude onto a figure's mouth and a pointer onto its
pupils. It can serve figures over HTTP and websockets, animate one in the
terminal from the microphone or a WAV file, or watch a remote figure.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: text or json")
	flags.StringVar(&a.logFile, "log-file", "", "write logs to this file instead of stderr")

	root.AddCommand(
		newServeCmd(a),
		newMicCmd(a),
		newPlayCmd(a),
		newWatchCmd(a),
		newFiguresCmd(a),
		newVersionCmd(),
	)
	return root
}

// load reads configuration and installs the logger. Flags beat the
// environment, which beats the file.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	a.cfg = cfg

	var w io.Writer = os.Stderr
	switch {
	case a.logFile != "":
		f, err := os.OpenFile(a.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		w = f
	case cmd.Annotations[annotationTerminal] == "true":
		// The renderer owns the screen.
		w = io.Discard
	}
	a.logger = log.InitWriter(w, cfg.Log.Level, cfg.Log.Format)
	return nil
}

// annotationTerminal marks commands that draw on the terminal.
const annotationTerminal = "terminal"

func terminalCommand() map[string]string {
	return map[string]string{annotationTerminal: "true"}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "sphere", version)
		},
	}
}
