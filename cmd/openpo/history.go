package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	historyRun       string
	historyLimit     int
	historySuppliers bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs, or the dispatches of one run",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Show the dispatches of this run")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to list")
	historyCmd.Flags().BoolVar(&historySuppliers, "suppliers", false, "Summarize sends per supplier (dry runs excluded)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()

	if historySuppliers {
		stats, err := st.ListSupplierStats()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "SUPPLIER\tSENT\tSKIPPED\tFAILED\tLAST STATUS\tLAST SENT")
		for _, s := range stats {
			last := "-"
			if s.LastSentAt != nil {
				last = s.LastSentAt.Local().Format(time.DateTime)
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\n", s.SupplierName, s.SentCount, s.SkippedCount, s.FailedCount, s.LastStatus, last)
		}
		return nil
	}

	if historyRun != "" {
		if _, err := st.GetRun(historyRun); err != nil {
			return err
		}
		dispatches, err := st.ListDispatches(historyRun)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "SUPPLIER\tSTATUS\tREASON\tRECIPIENTS")
		for _, d := range dispatches {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.SupplierName, d.Status, d.Reason, d.Recipients)
		}
		return nil
	}

	runs, err := st.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "RUN\tSTARTED\tTRANSPORT\tSTATUS\tSENT\tSKIPPED\tFAILED")
	for _, r := range runs {
		transport := r.Transport
		if r.DryRun {
			transport += " (dry-run)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), transport, r.Status,
			r.SentCount, r.SkippedCount, r.FailedCount)
	}
	return nil
}
