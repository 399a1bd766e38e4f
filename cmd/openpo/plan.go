package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"openpo/internal/pipeline"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show who would be emailed and who would be skipped",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringSliceVar(&onlyList, "only", nil, "Restrict the plan to these suppliers (repeatable)")
}

func runPlan(cmd *cobra.Command, args []string) error {
	c, st, err := newCoordinator()
	if err != nil {
		return err
	}
	defer st.Close()

	plan, issues, err := c.Preview(onlyList)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SUPPLIER\tOPEN\tRECIPIENTS\tNOTES")
	for _, row := range plan.Rows {
		cc, notes := pipeline.ValidCC(row.SupplierName, row.CC)
		note := ""
		if len(notes) > 0 {
			note = fmt.Sprintf("%d invalid cc", len(notes))
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", row.SupplierName, row.OpenOrders, pipeline.RecipientString(row.SendTo, cc), note)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%d open orders, %d suppliers, %d to email\n", plan.OpenOrders, plan.Suppliers, len(plan.Rows))
	if len(plan.Skipped) > 0 {
		fmt.Fprintln(out, "\nSkipped:")
		for _, is := range plan.Skipped {
			fmt.Fprintf(out, "  %s: %s\n", is.Supplier, is.Reason)
		}
	}
	if len(issues) > 0 {
		fmt.Fprintln(out, "\nInput issues:")
		for _, is := range issues {
			fmt.Fprintf(out, "  %s row %d: %s %s\n", is.Source, is.Row, is.Reason, is.Detail)
		}
	}
	return nil
}
