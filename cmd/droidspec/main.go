package main

//	@title			droidspec API
//	@version		0.1.0
//	@description	Android device catalog browser: filtering, statistics, comparison and export.
//	@BasePath		/api/v1

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/HerbHall/droidspec/internal/version"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "droidspec",
		Short:         "Browse, filter and export Android device catalogs",
		Long:          "droidspec serves an Android device catalog over HTTP and provides\noffline tools to validate, summarize and convert catalog files.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Short(),
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file")

	root.AddCommand(
		newServeCmd(),
		newValidateCmd(),
		newStatsCmd(),
		newExportCmd(),
		newBackupCmd(),
		newRestoreCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "droidspec: %v\n", err)
		os.Exit(1)
	}
}
