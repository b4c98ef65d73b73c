package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var parseDir string

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Build import sheets from saved register responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		dir := parseDir
		if dir == "" {
			dir = cfg.Register.DumpDir
		}
		if dir == "" {
			return errNoParseDir
		}
		patents, runErr := services.Runner.ParseDir(ctx, dir)
		return writeSheets(cmd, patents, runErr)
	},
}

func init() {
	parseCmd.Flags().StringVarP(&parseDir, "dir", "d", "", "Directory of saved .json/.xml responses (defaults to register.dump_dir)")
	parseCmd.Flags().String("output-dir", "output", "Directory for the import sheets")
}
