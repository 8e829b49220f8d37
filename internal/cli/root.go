// Package cli implements assessctl, an offline front end to the scoring
// engine.
package cli

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/assessment-engine/internal/logging"
)

// NewRootCmd builds the assessctl command tree.
func NewRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "assessctl",
		Short:        "Run adaptive assessment analyses offline",
		SilenceUsage: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newSchemaCmd())
	return root
}

func loggerFor(cmd *cobra.Command) zerolog.Logger {
	return logging.NewTo(cmd.ErrOrStderr(), "assessctl", "cli", mustString(cmd, "log-level"))
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
