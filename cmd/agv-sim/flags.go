package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath    string
	BrokerURL     string
	Manufacturer  string
	SerialNumber  string
	InterfaceName string
	LogLevel      string
	LogFormat     string
	MetricsPort   int
	StateInterval time.Duration
	Speed         float64
	ShowVersion   bool
	ShowHelp      bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	// Define flags with environment variable fallback
	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("VDA5050_CONFIG", ""),
		"Path to configuration file, empty to configure from env (env: VDA5050_CONFIG)")

	flag.StringVar(&cfg.ConfigPath, "c",
		getEnv("VDA5050_CONFIG", ""),
		"Path to configuration file, empty to configure from env (env: VDA5050_CONFIG)")

	flag.StringVar(&cfg.BrokerURL, "broker", "",
		"MQTT broker URL, overrides config (env: VDA5050_BROKER_URL)")

	flag.StringVar(&cfg.Manufacturer, "manufacturer", "",
		"AGV manufacturer, overrides config (env: VDA5050_MANUFACTURER)")

	flag.StringVar(&cfg.SerialNumber, "serial", "",
		"AGV serial number, overrides config (env: VDA5050_SERIAL_NUMBER)")

	flag.StringVar(&cfg.InterfaceName, "interface", "",
		"Topic interface name, overrides config (env: VDA5050_INTERFACE_NAME)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("VDA5050_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: VDA5050_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("VDA5050_LOG_FORMAT", "text"),
		"Log format: json, text (env: VDA5050_LOG_FORMAT)")

	flag.IntVar(&cfg.MetricsPort, "metrics-port",
		getEnvInt("VDA5050_METRICS_PORT", 0),
		"Prometheus metrics port, 0 to disable (env: VDA5050_METRICS_PORT)")

	flag.DurationVar(&cfg.StateInterval, "state-interval",
		getEnvDuration("VDA5050_STATE_INTERVAL", time.Second),
		"State publish interval (env: VDA5050_STATE_INTERVAL)")

	flag.Float64Var(&cfg.Speed, "speed", 1.0,
		"Simulated driving speed in m/s")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")

	// Custom usage
	flag.Usage = func() {
		printDetailedHelp()
	}

	flag.Parse()

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	// Skip validation for special flags
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	// Validate config file exists when one was given
	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	// Validate log level
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	// Validate log format
	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	// Validate metrics port
	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.MetricsPort)
	}

	if cfg.StateInterval < 100*time.Millisecond {
		return fmt.Errorf("state interval too short: %s", cfg.StateInterval)
	}

	if cfg.Speed <= 0 {
		return fmt.Errorf("invalid speed: %f", cfg.Speed)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - simulated VDA5050 vehicle

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Run against a local broker with the default demo identity
  %s

  # Run with a custom identity
  %s --broker=tcp://broker:1883 --manufacturer=acme --serial=agv-1

  # Run with a config file and Prometheus metrics
  %s --config=/etc/vda5050/agv.yaml --metrics-port=9090

  # Run with environment variables
  export VDA5050_BROKER_URL=tcp://broker:1883
  export VDA5050_SERIAL_NUMBER=agv-1
  %s

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Utility function to check if slice contains string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
