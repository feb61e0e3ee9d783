package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nixpig/pman/internal/config"
	"github.com/nixpig/pman/internal/console"
	"github.com/nixpig/pman/internal/log"
	"github.com/nixpig/pman/internal/supervisor"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// TODO: Inject version at build time.
const version = "0.0.1"

func rootCmd(interrupts <-chan os.Signal) *cobra.Command {
	var configPath string

	defaults := config.Default()

	c := &cobra.Command{
		Use:   "pman",
		Short: "Interactive supervisor for foreground and background processes",
		Long: `pman reads commands from standard input, one per line:

  bg <cmd> [args...]   run a program in the background
  bglist               list background processes
  bgkill <pid>         kill a background process
  bgstop <pid>         stop a background process
  bgstart <pid>        continue a stopped background process
  pstat <pid>          show statistics of a process
  quit, exit           kill all background processes and exit

Anything else is run as a program in the foreground.`,
		Example:       "  pman --poll-interval 500ms --color never",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}

			return runSupervisor(cmd.Context(), cfg, interrupts)
		},
	}

	c.CompletionOptions.HiddenDefaultCmd = true

	c.Flags().StringVar(
		&configPath,
		"config",
		"",
		"Path to config file (default $HOME/.config/pman/config.toml)",
	)

	c.Flags().Duration(
		"poll-interval",
		defaults.PollInterval,
		"How often to check for exited background processes while idle",
	)

	c.Flags().String("prompt", defaults.Prompt, "Prompt to display")

	c.Flags().Int(
		"name-limit",
		defaults.NameLimit,
		"Maximum length of a background process' display name",
	)

	c.Flags().String("color", defaults.Color, "Colorize output: auto, always or never")

	c.Flags().Bool(
		"flush-input",
		defaults.FlushInput,
		"Discard type-ahead when the prompt is drawn on a terminal",
	)

	c.Flags().Bool("debug", defaults.Debug, "Enable debug logs")

	c.Flags().String("log-file", defaults.LogFile, "Write logs to file instead of stderr")

	return c
}

func runSupervisor(
	ctx context.Context,
	cfg config.Config,
	interrupts <-chan os.Signal,
) error {
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	tty := term.IsTerminal(int(os.Stdout.Fd()))

	in, err := console.NewInput(os.Stdin)
	if err != nil {
		return err
	}
	defer in.Close()

	s, err := supervisor.New(
		cfg,
		in,
		console.New(os.Stdout, tty, cfg.UseColor(tty)),
		logger,
		interrupts,
	)
	if err != nil {
		return err
	}

	return s.Run(ctx)
}

// newLogger creates the logger described by cfg. Without a log file only
// warnings reach stderr, so routine events don't interleave with the
// interactive session.
func newLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	var (
		w       io.Writer = os.Stderr
		closeFn           = func() error { return nil }
		level             = slog.LevelWarn
	)

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}

		w = f
		closeFn = f.Close
		level = slog.LevelInfo
	}

	if cfg.Debug {
		level = slog.LevelDebug
	}

	return log.New(w, level), closeFn, nil
}
