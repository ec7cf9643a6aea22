// Package cmd implements the command-line interface for the linking engine.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "linkengine",
		Short: "Internal linking and authority engine",
		Long: `linkengine builds and maintains internal links, external source links
and authority scores for a multilingual content corpus.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yml",
		"path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(relinkCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(versionCmd)
}
