package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"cnkicrawl/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent search runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := store.Open(cfg.HistoryDB)
		if err != nil {
			return err
		}
		defer h.Close()

		runs, err := h.Recent(historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "STARTED\tAUTHOR\tINSTITUTION\tPROFILE\tOUTCOME\tRECORDS\tPAGES\tTOOK\tOUTPUT")
		for _, r := range runs {
			result := r.Output
			if r.Error != "" {
				result = "error: " + r.Error
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
				r.StartedAt.Format("2006-01-02 15:04"), r.Author, r.Institution, r.Profile,
				r.Outcome, r.Records, r.Pages, r.Duration.Round(time.Second), result)
		}
		return tw.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
}
