package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jonesrussell/linkengine/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the linking engine service",
	Long: `Starts the HTTP API, the scheduled link verifier and the authority
recompute schedule, and serves relink requests until interrupted.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := app.New(app.Options{ConfigPath: cfgFile, Version: version})
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Run(cmd.Context())
	},
}
