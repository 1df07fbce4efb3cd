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
	ConfigPath         string
	BrokerURL          string
	InterfaceName      string
	TargetManufacturer string
	TargetSerial       string
	OrderInterval      time.Duration
	FleetInterval      time.Duration
	LogLevel           string
	LogFormat          string
	MetricsPort        int
	ShowVersion        bool
	ShowHelp           bool
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

	flag.StringVar(&cfg.InterfaceName, "interface", "",
		"Topic interface name, overrides config (env: VDA5050_INTERFACE_NAME)")

	flag.StringVar(&cfg.TargetManufacturer, "target-manufacturer",
		getEnv("VDA5050_TARGET_MANUFACTURER", "demo"),
		"Manufacturer of the AGV receiving demo orders (env: VDA5050_TARGET_MANUFACTURER)")

	flag.StringVar(&cfg.TargetSerial, "target-serial",
		getEnv("VDA5050_TARGET_SERIAL", "agv-1"),
		"Serial number of the AGV receiving demo orders (env: VDA5050_TARGET_SERIAL)")

	flag.DurationVar(&cfg.OrderInterval, "order-interval",
		getEnvDuration("VDA5050_ORDER_INTERVAL", 30*time.Second),
		"Demo order period, 0 to disable (env: VDA5050_ORDER_INTERVAL)")

	flag.DurationVar(&cfg.FleetInterval, "fleet-interval",
		getEnvDuration("VDA5050_FLEET_INTERVAL", 10*time.Second),
		"Fleet table print period (env: VDA5050_FLEET_INTERVAL)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("VDA5050_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: VDA5050_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("VDA5050_LOG_FORMAT", "text"),
		"Log format: json, text (env: VDA5050_LOG_FORMAT)")

	flag.IntVar(&cfg.MetricsPort, "metrics-port",
		getEnvInt("VDA5050_METRICS_PORT", 0),
		"Prometheus metrics port, 0 to disable (env: VDA5050_METRICS_PORT)")

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

	if cfg.TargetManufacturer == "" || cfg.TargetSerial == "" {
		return fmt.Errorf("target manufacturer and serial must not be empty")
	}

	if cfg.OrderInterval < 0 {
		return fmt.Errorf("invalid order interval: %s", cfg.OrderInterval)
	}

	if cfg.FleetInterval < time.Second {
		return fmt.Errorf("fleet interval too short: %s", cfg.FleetInterval)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - VDA5050 fleet monitor and demo dispatcher

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Watch the fleet on a local broker
  %s

  # Dispatch demo orders to a specific vehicle every 15s
  %s --target-manufacturer=acme --target-serial=agv-7 --order-interval=15s

  # Monitor only, with Prometheus metrics
  %s --order-interval=0 --metrics-port=9091

  # Run with environment variables
  export VDA5050_BROKER_URL=tcp://broker:1883
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
