package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"openpo/internal/model"
	"openpo/internal/pipeline"
	"openpo/internal/runner"
)

var (
	dryRun   bool
	onlyList []string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send the open PO report to every matched supplier",
	Long: `Loads both spreadsheets, builds the dispatch plan and sends one email per
supplier through a single mail session. The name of every supplier whose
email was sent is printed on its own line.

--dry-run writes the emails as .eml files to the outbox instead of sending.`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Write emails to the outbox instead of sending")
	sendCmd.Flags().StringSliceVar(&onlyList, "only", nil, "Restrict the run to these suppliers (repeatable)")
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, st, err := newCoordinator()
	if err != nil {
		return err
	}
	defer st.Close()

	report, err := c.Send(ctx, runner.SendOptions{
		DryRun: dryRun,
		Only:   onlyList,
		Out:    cmd.OutOrStdout(),
		Progress: func(e pipeline.ProgressEvent) {
			if e.Type == "skipped" || e.Type == "failed" {
				log.Debug("progress", zap.String("type", e.Type), zap.String("supplier", e.Supplier),
					zap.Int("index", e.Index), zap.Int("total", e.Total))
			}
		},
	})
	if report != nil {
		if report.Location != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "outbox: %s\n", report.Location)
		}
		for _, r := range report.Results {
			if r.Status != model.StatusSent {
				log.Info("not sent",
					zap.String("supplier", r.SupplierName),
					zap.String("status", string(r.Status)),
					zap.String("reason", string(r.Reason)),
					zap.String("detail", r.Detail))
			}
		}
	}
	return err
}
