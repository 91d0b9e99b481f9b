package cli

import (
	"fmt"
	"time"

	"github.com/lazypower/reprise/internal/engine"
	"github.com/spf13/cobra"
)

var maintainCmd = &cobra.Command{
	Use:   "maintain",
	Short: "Run one priority maintenance pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(eng *engine.Engine) error {
			rep, err := eng.RunPriorityMaintenance(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned %d, updated %d, skipped %d\n", rep.Scanned, rep.Updated, rep.Skipped)
			for _, e := range rep.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", e)
			}
			return nil
		})
	},
}
