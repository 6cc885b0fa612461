package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ErrNotImplemented is returned by commands that exist only as placeholders
var ErrNotImplemented = errors.New("not implemented")

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run as an MCP server (not implemented)",
		Args:  cobra.NoArgs,

		// The placeholder must not depend on a readable config.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "MCP server mode not implemented in this version")
			return fmt.Errorf("mcp: %w", ErrNotImplemented)
		},
	}
}
