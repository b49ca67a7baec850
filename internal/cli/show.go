package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ebbinghaus/internal/outline"
	"github.com/aidanlsb/ebbinghaus/internal/ui"
)

var showRaw bool

var showCmd = &cobra.Command{
	Use:   "show [page]",
	Short: "Render a page's outline",
	Long: `Renders the page (default: the current page) for the terminal. Query
blocks are shown as code so their :inputs dates are easy to check.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		h, err := openHost()
		if err != nil {
			return handleAutoError(err)
		}
		defer h.Close()

		page := ""
		if len(args) == 1 {
			page = args[0]
		} else {
			page, err = h.CurrentPageName(ctx)
			if err != nil {
				return handleAutoError(err)
			}
			if page == "" {
				return handleErrorMsg(ErrNoCurrentPage, "no current page", "Run 'ebb open <page>' or pass a page name")
			}
		}

		forest, err := h.PageBlockTree(ctx, page)
		if err != nil {
			return handleAutoError(err)
		}

		if isJSONOutput() {
			outputSuccess(map[string]any{
				"page":   page,
				"blocks": forest,
			}, &Meta{Count: outline.Flatten(forest).Len()})
			return nil
		}

		md := pageMarkdown(page, forest)
		if showRaw {
			fmt.Print(md)
			return nil
		}
		display := ui.NewDisplayContext()
		out, err := ui.RenderMarkdown(md, display.AvailableWidth(ui.MarkdownRenderMargin))
		if err != nil {
			return handleError(ErrInternal, err, "Retry with --raw")
		}
		fmt.Print(out)
		return nil
	},
}

// pageMarkdown renders forest as a markdown list under a page heading.
// Query blocks become fenced code.
func pageMarkdown(page string, forest []outline.Block) string {
	var sb strings.Builder
	sb.WriteString("# " + page + "\n\n")
	if len(forest) == 0 {
		sb.WriteString("_(empty page)_\n")
		return sb.String()
	}
	writeBlocks(&sb, forest, 0)
	return sb.String()
}

func writeBlocks(sb *strings.Builder, blocks []outline.Block, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, b := range blocks {
		lines := strings.Split(b.Text, "\n")
		if strings.Contains(b.Text, "#+BEGIN_QUERY") {
			lines = append([]string{"```clojure"}, lines...)
			lines = append(lines, "```")
		}
		for i, line := range lines {
			switch {
			case i == 0:
				sb.WriteString(indent + "- " + line + "\n")
			case line == "":
				sb.WriteString("\n")
			default:
				sb.WriteString(indent + "  " + line + "\n")
			}
		}
		writeBlocks(sb, b.Children, depth+1)
	}
}

func init() {
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "Print markdown without terminal styling")
	rootCmd.AddCommand(showCmd)
}
