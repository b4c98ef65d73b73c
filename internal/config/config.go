package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Log       Log       `mapstructure:"log"       validate:"required"`
	Telemetry Telemetry `mapstructure:"telemetry" validate:"required"`
	Register  Register  `mapstructure:"register"  validate:"required"`
	Sheet     Sheet     `mapstructure:"sheet"     validate:"required"`
}

type Log struct {
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogDir   string `mapstructure:"log_dir"   validate:"required"`
}

type Telemetry struct {
	Enabled     bool              `mapstructure:"enabled"`
	Exporter    string            `mapstructure:"exporter"     validate:"oneof=otlp stdout none"`
	Endpoint    string            `mapstructure:"endpoint"`
	Protocol    string            `mapstructure:"protocol"     validate:"oneof=grpc http"`
	Insecure    bool              `mapstructure:"insecure"`
	Headers     map[string]string `mapstructure:"headers"`
	ServiceName string            `mapstructure:"service_name" validate:"required"`
}

// Register configures access to the EP register web service.
type Register struct {
	BaseURL        string        `mapstructure:"base_url"        validate:"required,url"`
	AuthURL        string        `mapstructure:"auth_url"        validate:"required,url"`
	ConsumerKey    string        `mapstructure:"consumer_key"`
	ConsumerSecret string        `mapstructure:"consumer_secret" validate:"required_with=ConsumerKey"`
	Format         string        `mapstructure:"format"          validate:"required,oneof=json xml"`
	Timeout        time.Duration `mapstructure:"timeout"         validate:"required,gt=0"`
	MaxRetries     int           `mapstructure:"max_retries"     validate:"min=0,max=10"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"   validate:"gte=0"`
	DumpDir        string        `mapstructure:"dump_dir"`
}

// Sheet holds the fixed values written into every imported case.
type Sheet struct {
	OutputDir             string `mapstructure:"output_dir"             validate:"required"`
	CaseType              string `mapstructure:"case_type"              validate:"required"`
	Country               string `mapstructure:"country"                validate:"required,len=2"`
	ServiceLevel          string `mapstructure:"service_level"`
	CorrespondenceAddress string `mapstructure:"correspondence_address"`
	AccountAddress        string `mapstructure:"account_address"`
	CaseResponsible       string `mapstructure:"case_responsible"`
}

// Load reads configuration from file, EPO_* environment variables and the
// dotted flags of flags (dashes map to underscores), in increasing priority.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvPrefix("EPO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.ep-register")
		v.AddConfigPath("/etc/ep-register")
		v.SetConfigType("yaml")
	}

	v.SetDefault("log.log_level", "info")
	v.SetDefault("log.log_dir", "logs")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.exporter", "none")
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.protocol", "grpc")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.service_name", "ep-register")
	v.SetDefault("register.base_url", "https://ops.epo.org/3.2")
	v.SetDefault("register.auth_url", "https://ops.epo.org/3.2/auth/accesstoken")
	v.SetDefault("register.consumer_key", "")
	v.SetDefault("register.consumer_secret", "")
	v.SetDefault("register.format", "json")
	v.SetDefault("register.timeout", 30*time.Second)
	v.SetDefault("register.max_retries", 3)
	v.SetDefault("register.retry_backoff", 500*time.Millisecond)
	v.SetDefault("register.dump_dir", "")
	v.SetDefault("sheet.output_dir", "output")
	v.SetDefault("sheet.case_type", "Patent")
	v.SetDefault("sheet.country", "EP")
	v.SetDefault("sheet.service_level", "Seek Renewal Instructions")
	v.SetDefault("sheet.correspondence_address", "")
	v.SetDefault("sheet.account_address", "")
	v.SetDefault("sheet.case_responsible", "")

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if !strings.Contains(f.Name, ".") {
				return
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			bindErr = errors.Join(bindErr, v.BindPFlag(key, f))
		})
		if bindErr != nil {
			return Config{}, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config read error: %w", err)
		}
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal error: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return Config{}, fmt.Errorf("validation failed: %w", err)
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.Exporter == "otlp" && cfg.Telemetry.Endpoint == "" {
		return Config{}, fmt.Errorf("telemetry.endpoint is required when using otlp exporter")
	}
	return cfg, nil
}
