package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/linkengine/internal/app"
)

var relinkCmd = &cobra.Command{
	Use:   "relink <item-id> [item-id...]",
	Short: "Rebuild the link plan for one or more content items",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(app.Options{ConfigPath: cfgFile, Version: version})
		if err != nil {
			return err
		}
		defer a.Close()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		for _, itemID := range args {
			result, relinkErr := a.Relink(cmd.Context(), itemID)
			if relinkErr != nil {
				return fmt.Errorf("relink %s: %w", itemID, relinkErr)
			}
			if encodeErr := enc.Encode(result); encodeErr != nil {
				return encodeErr
			}
		}
		return nil
	},
}
