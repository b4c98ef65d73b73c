package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/Qubut/IP-Claim/packages/ep_register/internal/models"
	"github.com/Qubut/IP-Claim/packages/ep_register/internal/sheet"
)

var batchInput string

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Look up every case of a CSV and write the import sheets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		cases, err := sheet.ReadCasesFile(batchInput)
		if err != nil {
			return fmt.Errorf("read cases: %w", err)
		}
		logger.Infow("Loaded cases", "input", batchInput, "count", len(cases))
		patents, runErr := services.Runner.Run(ctx, cases)
		return writeSheets(cmd, patents, runErr)
	},
}

// writeSheets writes whatever was built, then reports record failures.
func writeSheets(cmd *cobra.Command, patents []models.Patent, runErr error) error {
	report, err := services.Sheets.Write(patents, services.Parties.Parties())
	if err != nil {
		return fmt.Errorf("write sheets: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d cases, %d parties, %d designations written to %s\n",
		report.Cases, report.Parties, report.States, cfg.Sheet.OutputDir)
	for _, skipped := range report.Skipped {
		fmt.Fprintf(out, "skipped: %s\n", skipped)
	}
	if failures := multierr.Errors(runErr); len(failures) > 0 {
		for _, failure := range failures {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed: %v\n", failure)
		}
		return fmt.Errorf("%d records failed", len(failures))
	}
	logger.Info("Batch completed")
	return nil
}

func init() {
	batchCmd.Flags().StringVarP(&batchInput, "input", "i", "", "CSV of reference,number rows with a header")
	batchCmd.Flags().String("output-dir", "output", "Directory for the import sheets")
	_ = batchCmd.MarkFlagRequired("input")
}
