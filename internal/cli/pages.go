package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ebbinghaus/internal/ui"
)

var pagesTemplatesOnly bool

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "List pages",
	Long: `Lists the pages of the graph (or block store with --db). Template pages,
the ones offsets passes refresh, are marked with *.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openHost()
		if err != nil {
			return handleAutoError(err)
		}
		defer h.Close()

		rows, err := h.Pages(cmd.Context())
		if err != nil {
			return handleAutoError(err)
		}

		settings := currentSettings()
		if pagesTemplatesOnly {
			kept := rows[:0]
			for _, r := range rows {
				if settings.MatchTemplatePage(r.Name) {
					kept = append(kept, r)
				}
			}
			rows = kept
		}

		if isJSONOutput() {
			outputSuccess(map[string]any{"pages": rows}, &Meta{Count: len(rows)})
			return nil
		}

		if len(rows) == 0 {
			fmt.Println(ui.Hint("(no pages)"))
			return nil
		}

		tbl := ui.NewTable(3)
		for _, r := range rows {
			mark := " "
			if settings.MatchTemplatePage(r.Name) {
				mark = "*"
			}
			detail := r.File
			if h.Kind() == "db" {
				detail = fmt.Sprintf("%d blocks", r.Blocks)
			} else if r.Title != "" && r.Title != r.Name {
				detail = fmt.Sprintf("%s  %s", r.File, r.Title)
			}
			tbl.AddRow(mark, r.Name, detail)
		}
		fmt.Print(tbl.String())
		fmt.Println(ui.Hint(ui.Count(len(rows), "page", "pages")))
		return nil
	},
}

func init() {
	pagesCmd.Flags().BoolVar(&pagesTemplatesOnly, "templates", false, "Only list template pages")
	rootCmd.AddCommand(pagesCmd)
}
