package cli_test

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/exaflow/retime/pkg/cli"
)

func TestWithContextPassesLogger(t *testing.T) {
	var gotLogger bool
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().CountP("verbose", "v", "verbosity")

	cmd.RunE = cli.WithContext(func(ctx context.Context, input cli.Input) error {
		gotLogger = input.Logger != nil
		return nil
	})

	require.NoError(t, cmd.RunE(cmd, nil))
	require.True(t, gotLogger)
}

func TestAddCommandsAttachesToRoot(t *testing.T) {
	c := cli.NewCLI("retime", "reconstruct hardware timestamps")
	sub := &cobra.Command{Use: "sub", RunE: func(*cobra.Command, []string) error { return nil }}
	c.AddCommands(sub)

	found := false
	for _, cmd := range c.Root().Commands() {
		if cmd.Use == "sub" {
			found = true
		}
	}
	require.True(t, found)
}
