// Package cli provides the root command scaffold retime's entry point
// builds on: a CLI wrapper around cobra, a per-invocation Input carrying a
// structured logger, and a WithContext adapter that turns a
// context-and-Input-aware run function into a cobra RunE.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Input is passed to every command's run function.
type Input struct {
	Logger *slog.Logger
}

// CLI wraps a root cobra command.
type CLI struct {
	root *cobra.Command
}

// NewCLI builds a root command with the given name and short description.
func NewCLI(name, short string) *CLI {
	return &CLI{
		root: &cobra.Command{
			Use:   name,
			Short: short,
		},
	}
}

// NewCLIFromRoot wraps an already-configured cobra command as the root,
// for an entry point that has a single command rather than subcommands.
func NewCLIFromRoot(root *cobra.Command) *CLI {
	return &CLI{root: root}
}

// AddCommands attaches subcommands to the root command. retime attaches a
// single run command directly rather than subcommands, but the shape is
// kept general so a future subcommand (e.g. a "keyframe" inspection
// command) has somewhere to go.
func (c *CLI) AddCommands(cmds ...*cobra.Command) {
	c.root.AddCommand(cmds...)
}

// Root exposes the underlying cobra command so retime's entry point can
// attach flags directly to it instead of a subcommand.
func (c *CLI) Root() *cobra.Command {
	return c.root
}

// Run executes the root command against os.Args.
func (c *CLI) Run() error {
	return c.root.Execute()
}

// WithContext adapts a (context.Context, Input) -> error run function into
// a cobra RunE, wiring the command's context through and a default
// slog logger scaled by the cumulative -v count already parsed into the
// command's "verbose" count flag, if present.
func WithContext(run func(context.Context, Input) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: verbosityLevel(cmd),
		}))
		return run(cmd.Context(), Input{Logger: logger})
	}
}

// verbosityLevel maps a cumulative "verbose" count flag (if the command
// defines one) to a slog level: 0 -> warn, 1 -> info, 2+ -> debug.
func verbosityLevel(cmd *cobra.Command) slog.Level {
	count, err := cmd.Flags().GetCount("verbose")
	if err != nil {
		return slog.LevelWarn
	}
	switch {
	case count >= 2:
		return slog.LevelDebug
	case count == 1:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}
