package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Qubut/IP-Claim/packages/ep_register/internal"
	"github.com/Qubut/IP-Claim/packages/ep_register/internal/config"
	"github.com/Qubut/IP-Claim/packages/ep_register/internal/telemetry"
)

var (
	cfgFile  string
	cfg      config.Config
	logger   *zap.SugaredLogger
	tracer   trace.Tracer
	meter    metric.Meter
	shutdown telemetry.Shutdown
	services *internal.Services
	Version  = "dev" // Set at build time: go build -ldflags "-X github.com/Qubut/IP-Claim/packages/ep_register/cmd.Version=v1.0.0"
)

var RootCmd = &cobra.Command{
	Use:           "ep-register",
	Short:         "Look up European patents in the EP register and build import sheets",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if f := cmd.Flags().Lookup("output-dir"); f != nil && f.Changed {
			cfg.Sheet.OutputDir = f.Value.String()
		}

		logDir := cfg.Log.LogDir
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		logFile := filepath.Join(logDir,
			fmt.Sprintf("ep-register[%s].log", time.Now().Format("20060102-150405")))

		tracer, meter, logger, shutdown, err = telemetry.Init(telemetry.Config{
			Enabled:     cfg.Telemetry.Enabled,
			ServiceName: cfg.Telemetry.ServiceName,
			Exporter:    cfg.Telemetry.Exporter,
			Endpoint:    cfg.Telemetry.Endpoint,
			Protocol:    cfg.Telemetry.Protocol,
			Insecure:    cfg.Telemetry.Insecure,
			Headers:     cfg.Telemetry.Headers,
			LogFile:     logFile,
			LogLevel:    cfg.Log.LogLevel,
			Version:     Version,
		})
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		services, err = internal.InitServices(cfg, tracer, logger, meter)
		if err != nil {
			return fmt.Errorf("init services: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdown != nil {
			if err := shutdown(context.Background()); err != nil {
				logger.Errorw("shutdown error", "err", err)
				return err
			}
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of ep-register",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), Version)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config operations",
}

var printConfigCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the current loaded configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := cfg
		if shown.Register.ConsumerSecret != "" {
			shown.Register.ConsumerSecret = "********"
		}
		data, err := json.MarshalIndent(shown, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "Path to config file (yaml/json/toml)")

	type flagDef struct {
		name, def, usage string
	}
	flags := []flagDef{
		{"log.log-level", "info", "Log level (debug/info/warn/error)"},
		{"log.log-dir", "logs", "Directory for log files"},
		{"telemetry.enabled", "false", "Enable OpenTelemetry"},
		{"telemetry.exporter", "none", "Telemetry exporter (otlp|stdout|none)"},
		{"telemetry.endpoint", "localhost:4317", "OTLP endpoint (host:port)"},
		{"telemetry.protocol", "grpc", "OTLP protocol (grpc|http)"},
		{"telemetry.insecure", "true", "Allow insecure OTLP connection"},
		{"telemetry.service-name", "ep-register", "Service name for telemetry"},
		{"register.base-url", "https://ops.epo.org/3.2", "Register service base URL"},
		{"register.auth-url", "https://ops.epo.org/3.2/auth/accesstoken", "OAuth token endpoint"},
		{"register.consumer-key", "", "OAuth consumer key (anonymous access when empty)"},
		{"register.consumer-secret", "", "OAuth consumer secret"},
		{"register.format", "json", "Response format requested from the register (json|xml)"},
		{"register.timeout", "30s", "Request timeout (duration)"},
		{"register.max-retries", "3", "Max retries per request"},
		{"register.retry-backoff", "500ms", "Initial retry backoff (duration)"},
		{"register.dump-dir", "", "Directory to save raw register responses"},
		{"sheet.case-type", "Patent", "Case type written to CASE_DATA"},
		{"sheet.country", "EP", "Country written to CASE_DATA"},
		{"sheet.service-level", "Seek Renewal Instructions", "Service level written to CASE_DATA"},
		{"sheet.correspondence-address", "", "Correspondence address id"},
		{"sheet.account-address", "", "Account address id"},
		{"sheet.case-responsible", "", "Case responsible"},
	}
	for _, f := range flags {
		RootCmd.PersistentFlags().String(f.name, f.def, f.usage)
	}

	configCmd.AddCommand(printConfigCmd)

	RootCmd.AddCommand(lookupCmd)
	RootCmd.AddCommand(batchCmd)
	RootCmd.AddCommand(parseCmd)
	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(configCmd)
}
