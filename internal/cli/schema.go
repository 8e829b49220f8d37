package cli

import (
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/assessment-engine/internal/analysis"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema for analysis requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write(analysis.RequestSchema())
			return err
		},
	}
}
