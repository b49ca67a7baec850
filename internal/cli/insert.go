package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ebbinghaus/internal/automation"
	"github.com/aidanlsb/ebbinghaus/internal/ui"
)

var insertCmd = &cobra.Command{
	Use:   "insert",
	Short: "Insert a query block on the current page",
	Long: `Appends a query block to the current page and refreshes it.

The offsets block is refreshed right away when the current page is a
template page; elsewhere it waits for the next template pass.`,
}

var insertOffsetsCmd = &cobra.Command{
	Use:   "offsets",
	Short: "Insert an offsets query block",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInsert(cmd.Context(), "offsets", (*automation.Plugin).InsertOffsetsQuery)
	},
}

var insertRangeCmd = &cobra.Command{
	Use:   "range",
	Short: "Insert a RANGE query block",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInsert(cmd.Context(), "range", (*automation.Plugin).InsertRangeQuery)
	},
}

func runInsert(ctx context.Context, kind string, insert func(*automation.Plugin, context.Context) (string, error)) error {
	h, err := openHost()
	if err != nil {
		return handleAutoError(err)
	}
	defer h.Close()

	msg, err := insert(newPlugin(h), ctx)
	if err != nil {
		return handleAutoError(err)
	}

	if isJSONOutput() {
		page, _ := h.CurrentPageName(ctx)
		outputSuccess(map[string]any{
			"kind":    kind,
			"page":    page,
			"message": msg,
		}, nil)
		return nil
	}
	fmt.Println(ui.Success(msg))
	return nil
}

func init() {
	insertCmd.AddCommand(insertOffsetsCmd)
	insertCmd.AddCommand(insertRangeCmd)
	rootCmd.AddCommand(insertCmd)
}
