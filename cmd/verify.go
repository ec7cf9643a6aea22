package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/linkengine/internal/app"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run one external link verification pass",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := app.New(app.Options{ConfigPath: cfgFile, Version: version})
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.RunVerification(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("checked %d links, %d invalid, %d items alerted\n",
			summary.Checked, summary.Invalid, len(summary.Alerted))
		return nil
	},
}
