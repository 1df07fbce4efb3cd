// Package main implements agv-sim, a simulated VDA5050 vehicle. It connects
// to an MQTT broker as an AGV client, announces itself, accepts orders and
// instant actions from a master control and reports state, visualization and
// a factsheet while a small kinematic model drives the order graph.
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
	appName   = "agv-sim"
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

	agv, err := client.NewAGV(cfg,
		client.WithLogger(logging.ComponentLogger("agv-sim")),
		client.WithMetrics(registry.ClientMetrics()),
	)
	if err != nil {
		return fmt.Errorf("create AGV client: %w", err)
	}

	visInterval := 0.5
	factsheet := demoFactsheet(visInterval)
	sim := newSimulator(agv, factsheet, cliCfg.Speed, logging.ComponentLogger("simulator"))
	agv.SetVisualizationInterval(time.Duration(visInterval * float64(time.Second)))

	// Callbacks must be in place before Connect; registration closes once
	// the client subscribes.
	if err := agv.OnOrder(sim.acceptOrder); err != nil {
		return fmt.Errorf("register order callback: %w", err)
	}
	if err := agv.OnInstantActions(sim.execInstantActions); err != nil {
		return fmt.Errorf("register instant actions callback: %w", err)
	}

	return runWithSignalHandling(context.Background(), cliCfg, cfg, agv, sim, registry)
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

	slog.Info("Starting simulated vehicle",
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
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cliCfg.BrokerURL != "" {
		cfg.Broker.URL = cliCfg.BrokerURL
	}
	if cliCfg.Manufacturer != "" {
		cfg.Identity.Manufacturer = cliCfg.Manufacturer
	}
	if cliCfg.SerialNumber != "" {
		cfg.Identity.SerialNumber = cliCfg.SerialNumber
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

// runWithSignalHandling connects the vehicle, runs the simulation loops and
// tears everything down on SIGINT/SIGTERM. Disconnect announces OFFLINE.
func runWithSignalHandling(
	ctx context.Context,
	cliCfg *CLIConfig,
	cfg *config.Config,
	agv *client.AGV,
	sim *simulator,
	registry *metric.Registry,
) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := agv.Connect(signalCtx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	slog.Info("Vehicle online",
		"manufacturer", cfg.Identity.Manufacturer,
		"serialNumber", cfg.Identity.SerialNumber,
		"broker", cfg.Broker.URL)

	sim.publishFactsheet(signalCtx)
	sim.publishState(signalCtx)

	g, loopCtx := errgroup.WithContext(signalCtx)

	g.Go(func() error {
		return stateLoop(loopCtx, sim, cliCfg.StateInterval)
	})
	g.Go(func() error {
		return visualizationLoop(loopCtx, sim)
	})

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

	if err := agv.Disconnect(shutdownCtx); err != nil {
		slog.Error("Disconnect failed", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			slog.Error("Metrics server stop failed", "error", err)
		}
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("simulation loop: %w", err)
	}

	slog.Info("Vehicle shutdown complete")
	return nil
}

// stateLoop advances the kinematic model and publishes a state report every
// interval.
func stateLoop(ctx context.Context, sim *simulator, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			sim.tick(now.Sub(last))
			last = now
			sim.publishState(ctx)
		}
	}
}

// visualizationLoop publishes position snapshots faster than the factsheet's
// visualization interval; the client's rate limiter trims the excess.
func visualizationLoop(ctx context.Context, sim *simulator) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			sim.publishVisualization(ctx)
		}
	}
}
