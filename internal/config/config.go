package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Whoop      WhoopConfig      `mapstructure:"whoop"`
	EightSleep EightSleepConfig `mapstructure:"eightsleep"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Sync       SyncConfig       `mapstructure:"sync"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Daemon     DaemonConfig     `mapstructure:"daemon"`
}

// WhoopConfig defines coaching service credentials
type WhoopConfig struct {
	BaseURL  string `mapstructure:"base_url" validate:"required,url"`
	Username string `mapstructure:"username" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
}

// EightSleepConfig defines mattress service endpoints and credentials
type EightSleepConfig struct {
	AuthURL      string `mapstructure:"auth_url" validate:"required,url"`
	ClientURL    string `mapstructure:"client_url" validate:"required,url"`
	AppURL       string `mapstructure:"app_url" validate:"required,url"`
	ClientID     string `mapstructure:"client_id" validate:"required"`
	ClientSecret string `mapstructure:"client_secret" validate:"required"`
	Username     string `mapstructure:"username" validate:"required"`
	Password     string `mapstructure:"password" validate:"required"`
}

// HTTPConfig defines outbound request behavior
type HTTPConfig struct {
	Timeout string `mapstructure:"timeout"` // applied to every provider request
}

// SyncConfig defines synchronization behavior
type SyncConfig struct {
	RecoveryTier string `mapstructure:"recovery_tier" validate:"required"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// MetricsConfig defines how one-shot runs publish metrics
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url" validate:"omitempty,url"`
	Job            string `mapstructure:"job" validate:"required"`
}

// DaemonConfig defines the nightly daemon
type DaemonConfig struct {
	RunTime     string `mapstructure:"run_time"`
	BindAddress string `mapstructure:"bind_address"`
	MetricsPort int    `mapstructure:"metrics_port"`
}

// legacyEnv maps keys to the unprefixed variable names used by earlier
// deployments.
var legacyEnv = map[string]string{
	"whoop.username":           "WHOOP_USERNAME",
	"whoop.password":           "WHOOP_PASSWORD",
	"eightsleep.client_id":     "EIGHTSLEEP_CLIENT_ID",
	"eightsleep.client_secret": "EIGHTSLEEP_CLIENT_SECRET",
	"eightsleep.username":      "EIGHTSLEEP_USERNAME",
	"eightsleep.password":      "EIGHTSLEEP_PASSWORD",
}

const envPrefix = "SLEEPSYNC"

// Load loads configuration from file and environment variables. An empty
// configPath searches the working directory and /etc/sleepsync for
// sleepsync.yaml. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	SetDefaults(v)

	// Configure viper
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("sleepsync")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/sleepsync")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and environment variables
	}

	// Unmarshal config
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate config
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// SetDefaults sets default configuration values
func SetDefaults(v *viper.Viper) {
	// Provider defaults
	v.SetDefault("whoop.base_url", "https://api.prod.whoop.com")
	v.SetDefault("whoop.username", "")
	v.SetDefault("whoop.password", "")
	v.SetDefault("eightsleep.auth_url", "https://auth-api.8slp.net")
	v.SetDefault("eightsleep.client_url", "https://client-api.8slp.net")
	v.SetDefault("eightsleep.app_url", "https://app-api.8slp.net")
	v.SetDefault("eightsleep.client_id", "")
	v.SetDefault("eightsleep.client_secret", "")
	v.SetDefault("eightsleep.username", "")
	v.SetDefault("eightsleep.password", "")

	// HTTP defaults
	v.SetDefault("http.timeout", "5s")

	// Sync defaults
	v.SetDefault("sync.recovery_tier", "100")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Metrics defaults
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "sleepsync")

	// Daemon defaults
	v.SetDefault("daemon.run_time", "21:00")
	v.SetDefault("daemon.bind_address", "0.0.0.0")
	v.SetDefault("daemon.metrics_port", 9090)
}

// ValidKeys returns the set of recognised configuration keys
func ValidKeys() map[string]bool {
	v := viper.New()
	SetDefaults(v)

	keys := make(map[string]bool)
	for _, key := range v.AllKeys() {
		keys[key] = true
	}
	return keys
}

// Default returns the configuration produced by defaults alone
func Default() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// RequestTimeout returns the parsed per-request timeout
func (c *Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.HTTP.Timeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// validate validates the configuration
func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			problems := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				problems = append(problems, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(problems, "; "))
		}
		return err
	}

	timeout, err := time.ParseDuration(cfg.HTTP.Timeout)
	if err != nil {
		return fmt.Errorf("invalid http timeout %q: %w", cfg.HTTP.Timeout, err)
	}
	if timeout <= 0 {
		return fmt.Errorf("http timeout must be positive: %s", cfg.HTTP.Timeout)
	}

	if _, err := time.Parse("15:04", cfg.Daemon.RunTime); err != nil {
		return fmt.Errorf("invalid daemon run time %q: expected HH:MM", cfg.Daemon.RunTime)
	}
	if cfg.Daemon.MetricsPort <= 0 || cfg.Daemon.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.Daemon.MetricsPort)
	}

	return nil
}
