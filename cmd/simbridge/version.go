package main

import (
	"fmt"

	"github.com/spf13/cobra"
	simbridge "github.com/wippyai/simbridge"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the library version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "simbridge %s (reported as %g)\n", simbridge.Version, float64(simbridge.VersionNumber))
			return nil
		},
	}
}
