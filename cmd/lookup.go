package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	ET "github.com/IBM/fp-go/v2/either"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/Qubut/IP-Claim/packages/ep_register/internal/normalize"
	"github.com/Qubut/IP-Claim/packages/ep_register/internal/sheet"
)

var (
	lookupRef    string
	lookupOutput string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <number>",
	Short: "Look up one application or publication number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		id := normalize.Normalize(args[0])
		raw, err := ET.UnwrapError(services.Registry.FetchBiblio(ctx, id, lookupRef)())
		if err != nil {
			return fmt.Errorf("lookup failed: %w", err)
		}
		patent, err := services.Builder.BuildPatent(ctx, id, lookupRef, raw)
		if err != nil {
			return fmt.Errorf("lookup failed: %w", err)
		}
		if patent.IsInvalidNumber() {
			logger.Warnw("Register does not know this number", "number", args[0])
		}
		return render(cmd.OutOrStdout(), sheet.ViewOf(patent), lookupOutput)
	},
}

func render(w io.Writer, view sheet.View, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal patent: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return fmt.Errorf("marshal patent: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q (json|yaml)", format)
	}
}

func init() {
	lookupCmd.Flags().StringVar(&lookupRef, "ref", "", "Reference recorded on the patent")
	lookupCmd.Flags().StringVarP(&lookupOutput, "output", "o", "json", "Output format (json|yaml)")
}
