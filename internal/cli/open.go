package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ebbinghaus/internal/automation"
	"github.com/aidanlsb/ebbinghaus/internal/refresh"
	"github.com/aidanlsb/ebbinghaus/internal/ui"
)

var (
	openCreate  bool
	openRefresh bool
)

var openCmd = &cobra.Command{
	Use:   "open [page]",
	Short: "Set or show the current page",
	Long: `Records page as the current page. A running 'ebb watch' sees this as a
route change and runs the on-open passes.

Without arguments, prints the current page.

Examples:
  ebb open Templates
  ebb open "Reading list" --create
  ebb open Templates --refresh   # run the on-open passes here`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		h, err := openHost()
		if err != nil {
			return handleAutoError(err)
		}
		defer h.Close()

		if len(args) == 0 {
			cur, err := h.CurrentPageName(ctx)
			if err != nil {
				return handleAutoError(err)
			}
			if isJSONOutput() {
				outputSuccess(map[string]any{"page": cur}, nil)
				return nil
			}
			if cur == "" {
				fmt.Println(ui.Hint("(no current page)"))
				return nil
			}
			fmt.Println(ui.PageName(cur))
			return nil
		}

		name, err := h.Open(ctx, args[0], openCreate)
		if err != nil {
			return handleAutoError(err)
		}

		var templates *automation.TemplateResult
		var rangeStats *refresh.Stats
		if openRefresh {
			templates, rangeStats, err = runOpenPasses(cmd, h, name)
			if err != nil {
				return handleAutoError(err)
			}
		}

		if isJSONOutput() {
			data := map[string]any{"page": name}
			if templates != nil {
				data["templates"] = templates
			}
			if rangeStats != nil {
				data["range"] = rangeStats
			}
			outputSuccess(data, nil)
			return nil
		}

		fmt.Println(ui.Successf("Current page: %s", ui.PageName(name)))
		if templates != nil {
			fmt.Println("  " + automation.TemplatesUpdatedMessage(templates.Stats))
		}
		if rangeStats != nil {
			fmt.Println("  " + automation.RangeUpdatedMessage(*rangeStats))
		}
		return nil
	},
}

// runOpenPasses runs the passes a route change to name would trigger.
func runOpenPasses(cmd *cobra.Command, h host, name string) (*automation.TemplateResult, *refresh.Stats, error) {
	settings := currentSettings()
	p := newPlugin(h)

	var templates *automation.TemplateResult
	if settings.UpdateWhenOpenTemplatePage && p.MatchTemplatePage(name) {
		res, err := p.UpdateTemplatePagesOnce(cmd.Context())
		if err != nil {
			return nil, nil, err
		}
		templates = &res
	}

	var rangeStats *refresh.Stats
	if settings.AutoUpdateRangeOnOpenPage {
		stats, err := p.UpdateCurrentPageRangeOnce(cmd.Context())
		if err != nil {
			return nil, nil, err
		}
		rangeStats = &stats
	}
	return templates, rangeStats, nil
}

func init() {
	openCmd.Flags().BoolVar(&openCreate, "create", false, "Create the page when it does not exist")
	openCmd.Flags().BoolVar(&openRefresh, "refresh", false, "Run the on-open refresh passes immediately")
	rootCmd.AddCommand(openCmd)
}
