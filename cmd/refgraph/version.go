package main

import (
	"fmt"

	"github.com/aretw0/refgraph"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of refgraph",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "refgraph version %s\n", refgraph.Version)
		},
	}
}
