package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/kballard/go-shellquote"
	"github.com/nixpig/pman/internal/console"
	"github.com/nixpig/pman/internal/jobmanager"
	"github.com/nixpig/pman/internal/log"
	"github.com/nixpig/pman/internal/procstat"
)

type command struct {
	usage   string
	summary string
	run     func(ctx context.Context, args []string) error
}

func (s *Supervisor) commandTable() map[string]command {
	return map[string]command{
		"bg": {
			usage:   "bg <cmd> [args...]",
			summary: "Run a program in the background",
			run:     s.runBackground,
		},
		"bglist": {
			usage:   "bglist",
			summary: "List background processes",
			run:     s.listJobs,
		},
		"bgkill": {
			usage:   "bgkill <pid>",
			summary: "Kill a background process",
			run:     s.signalCmd(jobmanager.SignalTerminate),
		},
		"bgstop": {
			usage:   "bgstop <pid>",
			summary: "Stop a background process",
			run:     s.signalCmd(jobmanager.SignalSuspend),
		},
		"bgstart": {
			usage:   "bgstart <pid>",
			summary: "Continue a stopped background process",
			run:     s.signalCmd(jobmanager.SignalResume),
		},
		"pstat": {
			usage:   "pstat <pid>",
			summary: "Show statistics of a process",
			run:     s.printStats,
		},
		"help": {
			usage:   "help",
			summary: "Show this help",
			run:     s.printHelp,
		},
		"quit": {
			usage:   "quit",
			summary: "Kill all background processes and exit",
			run:     quit,
		},
		"exit": {
			usage:   "exit",
			summary: "Same as quit",
			run:     quit,
		},
	}
}

// execute runs one line of operator input. It returns true if the operator
// asked to quit.
func (s *Supervisor) execute(ctx context.Context, line string) bool {
	tokens, err := tokenize(line)
	if err != nil {
		s.report(ctx, err)
		return false
	}

	name, args := tokens[0], tokens[1:]

	ctx = log.ContextAttrs(ctx, slog.String("cmd", name))

	cmd, exists := s.commands[name]
	if !exists {
		cmd = command{run: s.runForeground}
		args = tokens
	}

	if err := cmd.run(ctx, args); err != nil {
		if errors.Is(err, errQuit) {
			return true
		}

		s.report(ctx, err)
	}

	return false
}

// tokenize splits a line into words. Quotes and backslash escapes are
// honoured; nothing is expanded.
func tokenize(line string) ([]string, error) {
	if strings.TrimSpace(line) == "" {
		return nil, newUsageError("Expected a command, type 'help' for a list of commands")
	}

	tokens, err := shellquote.Split(line)
	if err != nil {
		return nil, newUsageError("Invalid input: %v", err)
	}

	if len(tokens) == 0 {
		return nil, newUsageError("Expected a command, type 'help' for a list of commands")
	}

	return tokens, nil
}

// parsePID parses the single process id argument of a command.
func parsePID(args []string) (int, error) {
	switch {
	case len(args) == 0:
		return jobmanager.InvalidPID, newUsageError("Expected argument")
	case len(args) > 1:
		return jobmanager.InvalidPID, newUsageError("Too many arguments")
	}

	pid, err := strconv.Atoi(args[0])
	if err != nil || pid <= 0 {
		return jobmanager.InvalidPID, newUsageError(
			"Invalid argument %q, expected process id",
			args[0],
		)
	}

	return pid, nil
}

// report translates command errors to messages for the operator.
func (s *Supervisor) report(ctx context.Context, err error) {
	var (
		usageErr      *UsageError
		notManagedErr *NotManagedError
		launchErr     *jobmanager.LaunchError
	)

	switch {
	case errors.As(err, &usageErr):
		s.logger.DebugContext(ctx, "usage error", "err", err)
		s.con.Message(console.LevelError, "Error: %s", usageErr.Msg)

	case errors.As(err, &notManagedErr):
		s.logger.WarnContext(ctx, "job not managed", "pid", notManagedErr.PID)
		s.con.Message(
			console.LevelError,
			"Error: Process %d doesn't exist or was not started by PMan",
			notManagedErr.PID,
		)

	case errors.As(err, &launchErr):
		s.logger.WarnContext(ctx, "launch", "err", err)

		cause := launchErr.Err

		var execErr *exec.Error
		if errors.As(cause, &execErr) {
			cause = execErr.Err
		}

		s.con.Message(
			console.LevelError,
			"Error: invalid command %q: %v",
			launchErr.Program,
			cause,
		)

	case errors.Is(err, procstat.ErrNoProcess):
		s.logger.WarnContext(ctx, "read stats", "err", err)
		s.con.Message(console.LevelError, "Error: %v", err)

	default:
		s.logger.ErrorContext(ctx, "command failed", "err", err)
		s.con.Message(console.LevelError, "Error: %v", err)
	}
}

func (s *Supervisor) runBackground(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return newUsageError("Expected a program to run, e.g. 'bg sleep 100'")
	}

	started, err := s.manager.Launch(ctx, args, jobmanager.ModeBackground)
	if err != nil {
		return err
	}

	s.con.Message(
		console.LevelInfo,
		"Background process %d: %s",
		started.PID,
		started.Name,
	)

	return nil
}

func (s *Supervisor) runForeground(ctx context.Context, args []string) error {
	exit, err := s.manager.Launch(ctx, args, jobmanager.ModeForeground)
	if err != nil {
		return err
	}

	switch {
	case exit.Killed():
		s.con.Message(
			console.LevelWarning,
			"Process %d (%s) was killed by %s",
			exit.PID,
			exit.Name,
			exit.Signal,
		)
	case exit.Failed():
		s.con.Message(
			console.LevelWarning,
			"Process %d (%s) has exited with status %d",
			exit.PID,
			exit.Name,
			exit.Code,
		)
	}

	return nil
}

func (s *Supervisor) listJobs(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return newUsageError("Unexpected argument(s)")
	}

	jobs := s.manager.Jobs()

	switch len(jobs) {
	case 0:
		s.con.Printf("No background processes")
		return nil
	case 1:
		s.con.Printf("Background process (1):")
	default:
		s.con.Printf("Background processes (%d):", len(jobs))
	}

	w := tabwriter.NewWriter(s.con.Writer(), 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "PID\tSTATE\tCOMMAND\t\n")

	for _, job := range jobs {
		fmt.Fprintf(w, "%d\t%s\t%s\t\n", job.PID(), job.State(), job.Name())
	}

	return w.Flush()
}

func (s *Supervisor) signalCmd(kind jobmanager.SignalKind) func(context.Context, []string) error {
	return func(ctx context.Context, args []string) error {
		pid, err := parsePID(args)
		if err != nil {
			return err
		}

		if err := s.manager.Signal(pid, kind); err != nil {
			if errors.Is(err, jobmanager.ErrJobNotFound) {
				return &NotManagedError{PID: pid}
			}

			return err
		}

		switch kind {
		case jobmanager.SignalTerminate:
			s.con.Message(console.LevelError, "Killed process %d", pid)
		case jobmanager.SignalSuspend:
			s.con.Message(console.LevelWarning, "Stopped process %d", pid)
		case jobmanager.SignalResume:
			s.con.Message(console.LevelSuccess, "Started process %d", pid)
		}

		return nil
	}
}

func (s *Supervisor) printStats(ctx context.Context, args []string) error {
	pid, err := parsePID(args)
	if err != nil {
		return err
	}

	stat, err := s.stats.Read(pid)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(s.con.Writer(), 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "PID\tCOMM\tSTATE\tUTIME\tSTIME\tRSS\tVCSW\tIVCSW\tCMDLINE\t\n")
	fmt.Fprintf(
		w,
		"%d\t%s\t%s\t%d\t%d\t%d (%s)\t%d\t%d\t%s\t\n",
		stat.PID,
		stat.Comm,
		stat.State,
		stat.UTime,
		stat.STime,
		stat.RSS,
		humanize.IBytes(uint64(stat.RSSBytes)),
		stat.VoluntaryCtxtSwitches,
		stat.NonVoluntaryCtxtSwitches,
		strings.Join(stat.CmdLine, " "),
	)

	return w.Flush()
}

func (s *Supervisor) printHelp(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return newUsageError("Unexpected argument(s)")
	}

	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}

	slices.Sort(names)

	w := tabwriter.NewWriter(s.con.Writer(), 0, 0, 2, ' ', 0)

	for _, name := range names {
		cmd := s.commands[name]
		fmt.Fprintf(w, "  %s\t%s\t\n", cmd.usage, cmd.summary)
	}

	fmt.Fprintf(w, "  <cmd> [args...]\tRun a program in the foreground\t\n")

	return w.Flush()
}

func quit(context.Context, []string) error {
	return errQuit
}
