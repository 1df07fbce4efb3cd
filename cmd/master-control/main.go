// Package main implements master-control, a VDA5050 fleet monitor. It
// subscribes to every AGV on the interface through wildcard topics, keeps a
// connection table from the retained announcements, prints the fleet
// periodically and dispatches a demo order to a chosen vehicle.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeki-aitech/vda5050-client/client"
	"github.com/zeki-aitech/vda5050-client/config"
	"github.com/zeki-aitech/vda5050-client/logging"
	"github.com/zeki-aitech/vda5050-client/metric"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "master-control"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := loadConfiguration(cliCfg)
	if err != nil {
		return err
	}

	registry := metric.NewRegistry()

	mc, err := client.NewMasterControl(cfg,
		client.WithLogger(logging.ComponentLogger("master-control")),
		client.WithMetrics(registry.ClientMetrics()),
	)
	if err != nil {
		return fmt.Errorf("create master-control client: %w", err)
	}

	mon := newMonitor(mc, logging.ComponentLogger("monitor"))
	if err := mon.register(); err != nil {
		return fmt.Errorf("register fleet callbacks: %w", err)
	}

	return runWithSignalHandling(context.Background(), cliCfg, cfg, mc, mon, registry)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, true, nil
	}

	logging.Setup(cliCfg.LogLevel, cliCfg.LogFormat)

	slog.Info("Starting fleet monitor",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, false, nil
}

// loadConfiguration builds the client configuration from file or environment
// and applies command-line overrides on top.
func loadConfiguration(cliCfg *CLIConfig) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cliCfg.ConfigPath != "" {
		cfg, err = config.Load(cliCfg.ConfigPath)
	} else {
		cfg, err = config.FromEnv()
		if err == nil {
			// The stock demo identity names a vehicle; a master gets its
			// own unless the environment pins one.
			if os.Getenv("VDA5050_MANUFACTURER") == "" {
				cfg.Identity.Manufacturer = "fleet"
			}
			if os.Getenv("VDA5050_SERIAL_NUMBER") == "" {
				cfg.Identity.SerialNumber = "master-1"
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cliCfg.BrokerURL != "" {
		cfg.Broker.URL = cliCfg.BrokerURL
	}
	if cliCfg.InterfaceName != "" {
		cfg.Identity.InterfaceName = cliCfg.InterfaceName
	}
	if cliCfg.MetricsPort > 0 {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Port = cliCfg.MetricsPort
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Info("Configuration loaded", "config", cfg.String())
	return cfg, nil
}

// runWithSignalHandling connects the master, runs the monitoring loops and
// tears everything down on SIGINT/SIGTERM.
func runWithSignalHandling(
	ctx context.Context,
	cliCfg *CLIConfig,
	cfg *config.Config,
	mc *client.MasterControl,
	mon *monitor,
	registry *metric.Registry,
) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := mc.Connect(signalCtx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	slog.Info("Master online",
		"interface", cfg.Identity.InterfaceName,
		"broker", cfg.Broker.URL,
		"target", cliCfg.TargetManufacturer+"/"+cliCfg.TargetSerial)

	g, loopCtx := errgroup.WithContext(signalCtx)

	g.Go(func() error {
		return fleetLoop(loopCtx, mon, cliCfg.FleetInterval)
	})
	if cliCfg.OrderInterval > 0 {
		g.Go(func() error {
			return orderLoop(loopCtx, mon, cliCfg)
		})
	}

	var metricsServer *metric.Server
	if cfg.Metrics.Enabled {
		metricsServer = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
		g.Go(metricsServer.Start)
		slog.Info("Metrics endpoint enabled", "address", metricsServer.Address())
	}

	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := mc.Disconnect(shutdownCtx); err != nil {
		slog.Error("Disconnect failed", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			slog.Error("Metrics server stop failed", "error", err)
		}
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("monitor loop: %w", err)
	}

	slog.Info("Master shutdown complete")
	return nil
}

// fleetLoop prints the fleet connection table every interval.
func fleetLoop(ctx context.Context, mon *monitor, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			mon.printFleet(os.Stdout)
		}
	}
}

// orderLoop periodically dispatches a demo order to the target vehicle.
func orderLoop(ctx context.Context, mon *monitor, cliCfg *CLIConfig) error {
	ticker := time.NewTicker(cliCfg.OrderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			mon.dispatchDemoOrder(ctx, cliCfg.TargetManufacturer, cliCfg.TargetSerial)
		}
	}
}
