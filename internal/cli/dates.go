package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ebbinghaus/internal/dates"
	"github.com/aidanlsb/ebbinghaus/internal/ui"
)

var (
	datesOffsets      string
	datesIncludeToday bool
	datesMaxDays      int
	datesAt           string
)

// datesNow is the clock for `ebb dates`; tests pin it.
var datesNow = time.Now

var datesCmd = &cobra.Command{
	Use:   "dates",
	Short: "Preview the date lists a pass would write",
}

var datesOffsetsCmd = &cobra.Command{
	Use:   "offsets",
	Short: "List the offsets dates for today",
	Long: `Prints the dates an offsets pass would write, most recent first.

Examples:
  ebb dates offsets
  ebb dates offsets --offsets 1,3,7 --include-today
  ebb dates offsets --at 20250310`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := currentSettings()

		offsets := settings.Offsets()
		if cmd.Flags().Changed("offsets") {
			offsets = dates.ParseOffsets(datesOffsets)
		}
		excludeToday := settings.ExcludeToday
		if cmd.Flags().Changed("include-today") {
			excludeToday = !datesIncludeToday
		}

		at := datesNow()
		if datesAt != "" {
			t, err := dates.ParseToken(datesAt)
			if err != nil {
				return handleAutoError(err)
			}
			at = t
		}

		out := dates.OffsetDates(offsets, excludeToday, at)
		return printDates(out, map[string]any{
			"today":         dates.FormatToken(at),
			"offsets":       offsets,
			"exclude_today": excludeToday,
		})
	},
}

var datesRangeCmd = &cobra.Command{
	Use:   "range <start> <end>",
	Short: "List every date of a range",
	Long: `Prints every date from start to end inclusive, as a RANGE pass would.

Examples:
  ebb dates range 20250301 20250305
  ebb dates range 20240101 20241231 --max-days 366`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxDays := currentSettings().MaxDays()
		if cmd.Flags().Changed("max-days") {
			maxDays = datesMaxDays
		}

		out, err := dates.RangeDates(args[0], args[1], maxDays)
		if err != nil {
			return handleAutoError(err)
		}
		return printDates(out, map[string]any{
			"start":    args[0],
			"end":      args[1],
			"max_days": maxDays,
		})
	},
}

func printDates(list []string, extra map[string]any) error {
	if isJSONOutput() {
		data := map[string]any{"dates": list}
		for k, v := range extra {
			data[k] = v
		}
		outputSuccess(data, &Meta{Count: len(list)})
		return nil
	}

	if len(list) == 0 {
		fmt.Println(ui.Hint("(no dates)"))
		return nil
	}
	l := ui.NewList()
	for _, d := range list {
		l.Add(ui.Accent.Render(d))
	}
	fmt.Print(l.String())
	fmt.Println(ui.Hint(ui.Count(len(list), "date", "dates")))
	return nil
}

func init() {
	datesOffsetsCmd.Flags().StringVar(&datesOffsets, "offsets", "", "Comma-separated day offsets (default from settings)")
	datesOffsetsCmd.Flags().BoolVar(&datesIncludeToday, "include-today", false, "Count today as day one (each offset lands a day later)")
	datesOffsetsCmd.Flags().StringVar(&datesAt, "at", "", "Compute as if today were this YYYYMMDD date")
	datesRangeCmd.Flags().IntVar(&datesMaxDays, "max-days", 0, "Largest accepted range (default from settings)")
	datesCmd.AddCommand(datesOffsetsCmd)
	datesCmd.AddCommand(datesRangeCmd)
	rootCmd.AddCommand(datesCmd)
}
