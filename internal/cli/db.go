package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ebbinghaus/internal/blockdb"
	"github.com/aidanlsb/ebbinghaus/internal/ui"
)

var dbImportPrune bool

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the sqlite block store",
	Long: `The block store holds pages as rows of blocks with generated ids. Point
any command at it with --db <path>.`,
}

var dbImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy the graph's pages into the block store",
	Long: `Imports every page of the markdown graph into the block store at --db
(default: <graph>/.ebb/blocks.db). Existing pages are replaced. The current
page is carried over.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start := time.Now()

		g, err := openGraph()
		if err != nil {
			return handleAutoError(err)
		}

		target := dbPathFlag
		if target == "" {
			target = filepath.Join(g.Root(), ".ebb", "blocks.db")
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return handleError(ErrFileWriteError, err, "")
			}
		}
		db, err := blockdb.Open(target, getLogger())
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer db.Close()

		infos, err := g.ListPages()
		if err != nil {
			return handleAutoError(err)
		}

		var progress *ui.Progress
		if !isJSONOutput() {
			progress = ui.NewProgress("Importing pages", len(infos))
		}

		names := make([]string, 0, len(infos))
		blocks := 0
		for _, info := range infos {
			forest, err := g.PageBlockTree(ctx, info.Name)
			if err != nil {
				return handleAutoError(err)
			}
			n, err := db.ImportPage(ctx, info.Name, forest)
			if err != nil {
				return handleError(ErrDatabaseError, err, "")
			}
			names = append(names, info.Name)
			blocks += n
			if progress != nil {
				progress.Increment()
			}
		}
		if progress != nil {
			progress.Done()
		}

		var pruned int64
		if dbImportPrune {
			pruned, err = db.PrunePages(ctx, names)
			if err != nil {
				return handleError(ErrDatabaseError, err, "")
			}
		}

		cur, err := g.CurrentPageName(ctx)
		if err != nil {
			return handleAutoError(err)
		}
		if cur != "" {
			if err := db.SetCurrentPage(ctx, cur); err != nil {
				return handleError(ErrDatabaseError, err, "")
			}
		}

		if isJSONOutput() {
			outputSuccess(map[string]any{
				"db":           target,
				"pages":        len(names),
				"blocks":       blocks,
				"pruned":       pruned,
				"current_page": cur,
			}, &Meta{Count: len(names), DurationMs: time.Since(start).Milliseconds()})
			return nil
		}

		fmt.Println(ui.Check(fmt.Sprintf("Imported %s %s into %s",
			ui.Count(len(names), "page", "pages"), ui.Count(blocks, "block", "blocks"), target)))
		if pruned > 0 {
			fmt.Println(ui.Hint(fmt.Sprintf("  pruned %d stale pages", pruned)))
		}
		return nil
	},
}

func init() {
	dbImportCmd.Flags().BoolVar(&dbImportPrune, "prune", false, "Delete stored pages that no longer exist in the graph")
	dbCmd.AddCommand(dbImportCmd)
	rootCmd.AddCommand(dbCmd)
}
