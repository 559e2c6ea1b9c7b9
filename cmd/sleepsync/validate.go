package main

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/goodtune/sleepsync/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	validateDump bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  `Validate the sleepsync configuration file and environment for syntax and semantic errors.`,
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateDump, "dump", false, "Dump full configuration with defaults highlighted")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration validation failed: %v\n", err)
		return err
	}

	// Check for unknown keys (always, not just with --dump)
	var unknownKeys []string
	if configPath != "" {
		unknownKeys, err = findUnknownKeys(configPath)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "⚠️  Warning: Could not check for unknown keys: %v\n", err)
		}
	}

	source := configPath
	if source == "" {
		source = "defaults and environment"
	}
	_, _ = fmt.Fprintf(os.Stdout, "✅ Configuration is valid: %s\n", source)

	// Warn about unknown keys
	if len(unknownKeys) > 0 {
		red := color.New(color.FgRed, color.Bold)
		fmt.Fprintln(os.Stdout)
		_, _ = red.Fprintf(os.Stdout, "⚠️  WARNING: Found %d unknown configuration key(s):\n", len(unknownKeys))
		for _, key := range unknownKeys {
			_, _ = red.Fprintf(os.Stdout, "   - %s\n", key)
		}
		fmt.Fprintln(os.Stdout, "\nThese keys will be ignored and may indicate typos or deprecated settings.")
	}

	// If dump requested, show full configuration with defaults highlighted
	if validateDump {
		_, _ = fmt.Fprintln(os.Stdout, "\n"+strings.Repeat("=", 80))
		_, _ = fmt.Fprintln(os.Stdout, "FULL CONFIGURATION (values different from defaults are highlighted)")
		_, _ = fmt.Fprintln(os.Stdout, strings.Repeat("=", 80))

		dumpConfig(os.Stdout, cfg, config.Default())

		_, _ = fmt.Fprintln(os.Stdout, "\n"+strings.Repeat("=", 80))
	}

	return nil
}

// findUnknownKeys loads the config file and checks for unknown keys
func findUnknownKeys(configPath string) ([]string, error) {
	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	validKeys := config.ValidKeys()

	unknown := []string{}
	for _, key := range v.AllKeys() {
		if !validKeys[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)

	return unknown, nil
}

// dumpConfig dumps configuration with color highlighting for non-default values
func dumpConfig(w io.Writer, cfg, defaultCfg *config.Config) {
	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan, color.Bold)

	field := func(name string, value, defaultValue interface{}) {
		dumpField(w, name, value, defaultValue, yellow, green)
	}

	// Whoop
	_, _ = cyan.Fprintln(w, "\n[whoop]")
	field("  base_url", cfg.Whoop.BaseURL, defaultCfg.Whoop.BaseURL)
	field("  username", cfg.Whoop.Username, defaultCfg.Whoop.Username)
	field("  password", redactPassword(cfg.Whoop.Password), redactPassword(defaultCfg.Whoop.Password))

	// Eight Sleep
	_, _ = cyan.Fprintln(w, "\n[eightsleep]")
	field("  auth_url", cfg.EightSleep.AuthURL, defaultCfg.EightSleep.AuthURL)
	field("  client_url", cfg.EightSleep.ClientURL, defaultCfg.EightSleep.ClientURL)
	field("  app_url", cfg.EightSleep.AppURL, defaultCfg.EightSleep.AppURL)
	field("  client_id", cfg.EightSleep.ClientID, defaultCfg.EightSleep.ClientID)
	field("  client_secret", redactPassword(cfg.EightSleep.ClientSecret), redactPassword(defaultCfg.EightSleep.ClientSecret))
	field("  username", cfg.EightSleep.Username, defaultCfg.EightSleep.Username)
	field("  password", redactPassword(cfg.EightSleep.Password), redactPassword(defaultCfg.EightSleep.Password))

	// HTTP
	_, _ = cyan.Fprintln(w, "\n[http]")
	field("  timeout", cfg.HTTP.Timeout, defaultCfg.HTTP.Timeout)

	// Sync
	_, _ = cyan.Fprintln(w, "\n[sync]")
	field("  recovery_tier", cfg.Sync.RecoveryTier, defaultCfg.Sync.RecoveryTier)

	// Logging
	_, _ = cyan.Fprintln(w, "\n[logging]")
	field("  level", cfg.Logging.Level, defaultCfg.Logging.Level)
	field("  format", cfg.Logging.Format, defaultCfg.Logging.Format)

	// Metrics
	_, _ = cyan.Fprintln(w, "\n[metrics]")
	field("  pushgateway_url", cfg.Metrics.PushgatewayURL, defaultCfg.Metrics.PushgatewayURL)
	field("  job", cfg.Metrics.Job, defaultCfg.Metrics.Job)

	// Daemon
	_, _ = cyan.Fprintln(w, "\n[daemon]")
	field("  run_time", cfg.Daemon.RunTime, defaultCfg.Daemon.RunTime)
	field("  bind_address", cfg.Daemon.BindAddress, defaultCfg.Daemon.BindAddress)
	field("  metrics_port", cfg.Daemon.MetricsPort, defaultCfg.Daemon.MetricsPort)
}

// dumpField prints a field with color if it differs from default
func dumpField(w io.Writer, name string, value, defaultValue interface{}, modifiedColor, defaultColor *color.Color) {
	isDefault := reflect.DeepEqual(value, defaultValue)

	valueStr := fmt.Sprintf("%v", value)

	if isDefault {
		_, _ = defaultColor.Fprintf(w, "%s = %s\n", name, valueStr)
	} else {
		_, _ = modifiedColor.Fprintf(w, "%s = %s  (modified from default: %v)\n", name, valueStr, defaultValue)
	}
}

// redactPassword redacts password if not empty
func redactPassword(password string) string {
	if password == "" {
		return ""
	}
	return "***REDACTED***"
}
