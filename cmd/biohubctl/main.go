package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "biohubctl",
		Short:         "Offline tools for BioHub submissions",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newTransformCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
