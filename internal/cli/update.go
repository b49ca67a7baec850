package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ebbinghaus/internal/automation"
	"github.com/aidanlsb/ebbinghaus/internal/ui"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh query inputs now",
	Long: `Runs one refresh pass immediately, the same pass the watcher runs on its
triggers.

Examples:
  ebb update templates   # offsets dates on every template page
  ebb update range       # RANGE dates on the current page`,
}

var updateTemplatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Refresh offsets inputs on every template page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openHost()
		if err != nil {
			return handleAutoError(err)
		}
		defer h.Close()

		start := time.Now()
		res, err := newPlugin(h).UpdateTemplatePagesOnce(cmd.Context())
		if err != nil {
			return handleAutoError(err)
		}

		if isJSONOutput() {
			outputSuccess(res, &Meta{Count: res.Stats.InputsUpdated, DurationMs: time.Since(start).Milliseconds()})
			return nil
		}

		fmt.Println(ui.Success(automation.TemplatesUpdatedMessage(res.Stats)))
		for _, p := range res.Pages {
			fmt.Printf("  %s\n", ui.PageName(p))
		}
		return nil
	},
}

var updateRangeCmd = &cobra.Command{
	Use:   "range",
	Short: "Refresh RANGE inputs on the current page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openHost()
		if err != nil {
			return handleAutoError(err)
		}
		defer h.Close()

		cur, err := h.CurrentPageName(cmd.Context())
		if err != nil {
			return handleAutoError(err)
		}

		start := time.Now()
		stats, err := newPlugin(h).UpdateCurrentPageRangeOnce(cmd.Context())
		if err != nil {
			return handleAutoError(err)
		}

		if isJSONOutput() {
			outputSuccess(map[string]any{
				"page":  cur,
				"stats": stats,
			}, &Meta{Count: stats.InputsUpdated, DurationMs: time.Since(start).Milliseconds()})
			return nil
		}

		if cur == "" {
			fmt.Println(ui.Warning("No current page. Run 'ebb open <page>' first."))
			return nil
		}
		fmt.Println(ui.Success(automation.RangeUpdatedMessage(stats)))
		return nil
	},
}

func init() {
	updateCmd.AddCommand(updateTemplatesCmd)
	updateCmd.AddCommand(updateRangeCmd)
	rootCmd.AddCommand(updateCmd)
}
