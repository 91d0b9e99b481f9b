package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/lazypower/reprise/internal/engine"
	"github.com/lazypower/reprise/internal/leech"
	"github.com/spf13/cobra"
)

// --- leeches command ---

var (
	leechesApply     bool
	leechesThreshold int
)

var leechesCmd = &cobra.Command{
	Use:   "leeches",
	Short: "Find items that keep failing",
	Long:  "List leeches with a suggested treatment. With --apply, apply each suggestion.",
	RunE:  runLeeches,
}

func runLeeches(cmd *cobra.Command, args []string) error {
	lc := cfg.Leech
	if leechesThreshold > 0 {
		lc.LeechThreshold = leechesThreshold
	}

	return withEngine(func(eng *engine.Engine) error {
		ctx := cmd.Context()
		suggestions, err := eng.SuggestTreatments(ctx, lc)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(suggestions) == 0 {
			fmt.Fprintln(out, "No leeches found.")
			return nil
		}

		now := time.Now()
		for i, s := range suggestions {
			l := s.Leech
			triggered := make([]string, len(l.Triggered))
			for j, h := range l.Triggered {
				triggered[j] = string(h)
			}
			fmt.Fprintf(out, "%d. %s\n   %s\n", i+1, l.ItemID, l.Question)
			fmt.Fprintf(out, "   %d reviews, %d failures, streak %d [%s]\n",
				l.TotalReviews, l.TotalFailures, l.MaxConsecutiveFails, strings.Join(triggered, ", "))
			fmt.Fprintf(out, "   -> %s: %s\n", s.Treatment.Strategy, s.Treatment.Action)

			if leechesApply {
				if _, err := eng.ApplyTreatment(ctx, l.ItemID, s.Treatment.Strategy, now); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "   treatment failed: %v\n", err)
					continue
				}
				fmt.Fprintln(out, "   applied")
			}
		}
		return nil
	})
}

// --- treat command ---

var treatCmd = &cobra.Command{
	Use:   "treat <item-id> <strategy>",
	Short: "Apply a leech treatment (relearn|simplify|hint|mnemonic)",
	Args:  cobra.ExactArgs(2),
	RunE:  runTreat,
}

func runTreat(cmd *cobra.Command, args []string) error {
	strategy, err := leech.ParseStrategy(args[1])
	if err != nil {
		return err
	}
	return withEngine(func(eng *engine.Engine) error {
		if _, err := eng.ApplyTreatment(cmd.Context(), args[0], strategy, time.Now()); err != nil {
			return fmt.Errorf("treat %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s applied to %s\n", strategy, args[0])
		return nil
	})
}

func init() {
	leechesCmd.Flags().BoolVar(&leechesApply, "apply", false, "Apply the suggested treatment to each leech")
	leechesCmd.Flags().IntVar(&leechesThreshold, "threshold", 0, "Override leech.leech_threshold")
}
