package cli

import (
	"fmt"

	"github.com/lazypower/reprise/internal/importer"
	"github.com/spf13/cobra"
)

var (
	importOpts     = importer.DefaultConfig()
	importNoDedupe bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import items from a .csv or .xlsx file",
	Long: "Import question/answer items from a spreadsheet or CSV file. By default columns " +
		"A-E hold question, answer, category, tags and priority below a header row. " +
		"Questions nearly identical to an existing one in the same category are skipped.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	opts := importOpts
	opts.Path = args[0]
	opts.SkipDuplicates = !importNoDedupe

	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := importer.Run(cmd.Context(), db, opts)
	if err != nil {
		return fmt.Errorf("import %s: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "processed %d, created %d, skipped %d\n", res.Processed, res.Created, res.Skipped)
	for _, e := range res.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", e)
	}
	return nil
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&importOpts.Sheet, "sheet", "", "Worksheet name (default: first sheet)")
	f.IntVar(&importOpts.StartRow, "start-row", importOpts.StartRow, "First data row, 1-based")
	f.StringVar(&importOpts.Category, "category", "", "Category for rows without one")
	f.StringVar(&importOpts.QuestionColumn, "question-col", importOpts.QuestionColumn, "Question column")
	f.StringVar(&importOpts.AnswerColumn, "answer-col", importOpts.AnswerColumn, "Answer column")
	f.StringVar(&importOpts.CategoryColumn, "category-col", importOpts.CategoryColumn, "Category column (empty to skip)")
	f.StringVar(&importOpts.TagsColumn, "tags-col", importOpts.TagsColumn, "Tags column (empty to skip)")
	f.StringVar(&importOpts.PriorityColumn, "priority-col", importOpts.PriorityColumn, "Priority column (empty to skip)")
	f.BoolVar(&importNoDedupe, "no-dedupe", false, "Import near-duplicate questions too")
}
