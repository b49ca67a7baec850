package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ebbinghaus/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the automation triggers until interrupted",
	Long: `Keeps query inputs current in the background:

  - auto_update_templates            startup pass, then daily after midnight
  - update_when_open_template_page   offsets pass when a template page opens
  - auto_update_range_on_open_page   RANGE pass on every page open
  - auto_update_range_on_edit        debounced RANGE pass after edits

Page opens come from 'ebb open'. Edits are file changes under pages/ and
journals/, or foreign commits to the block store with --db.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		h, err := openHost()
		if err != nil {
			return handleAutoError(err)
		}
		defer h.Close()

		p := newPlugin(h)
		p.Start(ctx)

		if !isJSONOutput() {
			target := getGraphPath()
			if h.Kind() == "db" {
				target = dbPathFlag
			}
			fmt.Fprintln(os.Stderr, ui.Infof("Watching %s (Ctrl+C to stop)", ui.PageName(target)))
		}
		getLogger().Info("watching", "host", h.Kind())

		err = h.Watch(ctx)
		stop()
		p.Wait()
		if err != nil && !errors.Is(err, context.Canceled) {
			return handleAutoError(err)
		}
		getLogger().Info("stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
