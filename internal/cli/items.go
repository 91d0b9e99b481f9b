package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lazypower/reprise/internal/engine"
	"github.com/lazypower/reprise/internal/fsrs"
	"github.com/lazypower/reprise/internal/queue"
	"github.com/lazypower/reprise/internal/store"
	"github.com/spf13/cobra"
)

// --- add command ---

var (
	addQuestion string
	addAnswer   string
	addCategory string
	addTags     []string
	addPriority int
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a learning item",
	RunE:  runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(addQuestion) == "" {
		return fmt.Errorf("--question is required")
	}
	return withEngine(func(eng *engine.Engine) error {
		it := &store.Item{
			Question: addQuestion,
			Answer:   addAnswer,
			Category: addCategory,
			Tags:     addTags,
			Priority: addPriority,
		}
		if err := eng.DB.CreateItem(cmd.Context(), it); err != nil {
			return fmt.Errorf("add item: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s (priority %d)\n", it.ID, it.Priority)
		return nil
	})
}

// --- due command ---

var (
	dueLimit    int
	dueCategory string
	dueTags     []string
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List items due for review",
	RunE:  runDue,
}

func runDue(cmd *cobra.Command, args []string) error {
	return withEngine(func(eng *engine.Engine) error {
		now := time.Now()
		f := queue.Filter{Category: dueCategory, Tags: dueTags}
		refs, err := eng.SelectDue(cmd.Context(), f, dueLimit, now)
		if err != nil {
			return fmt.Errorf("select due: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(refs) == 0 {
			fmt.Fprintln(out, "Nothing due.")
			return nil
		}
		for i, r := range refs {
			when := "new"
			if r.NextReview != nil {
				when = "due " + humanize.RelTime(*r.NextReview, now, "ago", "from now")
			}
			fmt.Fprintf(out, "%d. [p%d] %s (%s)\n   %s\n", i+1, r.Priority, r.Title, when, r.ID)
		}
		return nil
	})
}

// --- review command ---

var reviewResponseMs int

var reviewCmd = &cobra.Command{
	Use:   "review <item-id> <rating>",
	Short: "Record a review (rating: again|hard|good|easy or 1-4)",
	Args:  cobra.ExactArgs(2),
	RunE:  runReview,
}

func runReview(cmd *cobra.Command, args []string) error {
	rating, err := fsrs.ParseRating(args[1])
	if err != nil {
		return err
	}
	var rt *int
	if reviewResponseMs > 0 {
		rt = &reviewResponseMs
	}

	return withEngine(func(eng *engine.Engine) error {
		now := time.Now()
		res, err := eng.ApplyRating(cmd.Context(), args[0], rating, now, rt)
		if err != nil {
			return fmt.Errorf("review %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: next review %s (%s)\n  stability %.2f, difficulty %.2f, reps %d\n",
			res.Rating, humanize.RelTime(res.NextReview, now, "ago", "from now"),
			res.NextReview.Format("2006-01-02"), res.Stability, res.Difficulty, res.Reps)
		return nil
	})
}

// --- stats command ---

var statsCmd = &cobra.Command{
	Use:   "stats [item-id]",
	Short: "Show item metrics, or queue statistics without an id",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	return withEngine(func(eng *engine.Engine) error {
		if len(args) == 1 {
			return printItemStats(cmd, eng, args[0])
		}
		return printQueueStats(cmd, eng)
	})
}

func printItemStats(cmd *cobra.Command, eng *engine.Engine, id string) error {
	ctx := cmd.Context()
	m, err := eng.ItemMetrics(ctx, id, time.Now())
	if err != nil {
		return fmt.Errorf("metrics %s: %w", id, err)
	}
	d, err := eng.ItemDifficulty(ctx, id)
	if err != nil {
		return fmt.Errorf("difficulty %s: %w", id, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "## %s\n\n", id)
	fmt.Fprintf(out, "  reviews:          %d\n", m.TotalReviews)
	fmt.Fprintf(out, "  success rate:     %.0f%%\n", m.SuccessRate*100)
	fmt.Fprintf(out, "  avg interval:     %.1f days\n", m.AverageInterval)
	fmt.Fprintf(out, "  predicted recall: %.0f%%\n", m.PredictedRecall*100)
	fmt.Fprintf(out, "  optimal interval: %d days\n", m.OptimalInterval)
	fmt.Fprintf(out, "  difficulty:       %.2f (%s)\n", d, m.DifficultyTrend)
	if m.IsLeech {
		fmt.Fprintln(out, "  leech:            yes")
	}
	return nil
}

func printQueueStats(cmd *cobra.Command, eng *engine.Engine) error {
	ctx := cmd.Context()
	st, err := eng.QueueStats(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("queue stats: %w", err)
	}
	total, err := eng.DB.CountReviews(ctx)
	if err != nil {
		return fmt.Errorf("count reviews: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "## Queue")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  items:         %s\n", humanize.Comma(int64(st.Total)))
	fmt.Fprintf(out, "  new:           %d\n", st.New)
	fmt.Fprintf(out, "  due today:     %d\n", st.DueToday)
	fmt.Fprintf(out, "  due this week: %d\n", st.DueThisWeek)
	fmt.Fprintf(out, "  overdue:       %d\n", st.Overdue)
	fmt.Fprintf(out, "  avg priority:  %d (%d high)\n", st.AvgPriority, st.HighPriority)
	fmt.Fprintf(out, "  reviews:       %s\n", humanize.Comma(int64(total)))
	return nil
}

func init() {
	addCmd.Flags().StringVarP(&addQuestion, "question", "q", "", "Question text (required)")
	addCmd.Flags().StringVarP(&addAnswer, "answer", "a", "", "Answer text")
	addCmd.Flags().StringVarP(&addCategory, "category", "c", "", "Category")
	addCmd.Flags().StringSliceVarP(&addTags, "tag", "t", nil, "Tag (repeatable or comma separated)")
	addCmd.Flags().IntVarP(&addPriority, "priority", "p", store.DefaultPriority, "Priority 1-100")

	dueCmd.Flags().IntVarP(&dueLimit, "limit", "n", 20, "Maximum number of items")
	dueCmd.Flags().StringVarP(&dueCategory, "category", "c", "", "Filter by category")
	dueCmd.Flags().StringSliceVarP(&dueTags, "tag", "t", nil, "Filter by tag (all must match)")

	reviewCmd.Flags().IntVar(&reviewResponseMs, "response-ms", 0, "Response time in milliseconds")
}
