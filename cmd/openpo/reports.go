package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Generate the per-supplier Open_PO_<supplier>.xlsx attachments",
	RunE:  runReports,
}

func init() {
	reportsCmd.Flags().StringSliceVar(&onlyList, "only", nil, "Restrict generation to these suppliers (repeatable)")
}

func runReports(cmd *cobra.Command, args []string) error {
	c, st, err := newCoordinator()
	if err != nil {
		return err
	}
	defer st.Close()

	written, err := c.GenerateReports(onlyList)
	for _, path := range written {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return err
}
