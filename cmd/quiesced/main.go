// Package main provides the entry point for quiesced.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mbaklund/quiesce/internal/infra/buildinfo"
	"github.com/mbaklund/quiesce/internal/infra/confloader"
	"github.com/mbaklund/quiesce/internal/infra/lifecycle"
	"github.com/mbaklund/quiesce/internal/server/config"
	"github.com/mbaklund/quiesce/internal/server/localserver"
	"github.com/mbaklund/quiesce/internal/server/rpcserver"
	"github.com/mbaklund/quiesce/internal/server/tracker"
	"github.com/mbaklund/quiesce/internal/telemetry/logger"
	"github.com/mbaklund/quiesce/internal/telemetry/metric"
)

// Lifecycle state gauge values.
const (
	gaugeAccepting  = 0
	gaugeDraining   = 1
	gaugeTerminated = 2
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse command line flags
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		addr        = flag.String("addr", "", "RPC listen address (overrides config)")
		gracePeriod = flag.String("grace-period", "", "Shutdown grace period, e.g. 30s or infinite (overrides config)")
		logLevel    = flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	// Show version and exit
	if *showVersion {
		fmt.Printf("quiesced %s\n", buildinfo.String())
		return nil
	}

	// Load configuration
	overrides := map[string]any{}
	if *addr != "" {
		overrides["server.rpc.addr"] = *addr
	}
	if *gracePeriod != "" {
		overrides["shutdown.grace_period"] = *gracePeriod
	}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}

	cfg, err := loadConfig(*configFile, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize logger
	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	log.Info("starting quiesced",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"addr", cfg.Server.RPC.Addr,
		"grace_period", cfg.Shutdown.GracePeriod,
		"config", *configFile)

	grace, err := cfg.Shutdown.Grace()
	if err != nil {
		return fmt.Errorf("invalid grace period: %w", err)
	}

	// Connection tracking and the shutdown coordinator
	metrics := metric.NewRegistry()
	metrics.LifecycleState.Set(gaugeAccepting)

	trk := tracker.New(log, metrics)
	coord := lifecycle.NewCoordinator(grace, trk, log)

	// Shutdown can arrive from the OS or from the management socket.
	trigger := lifecycle.NewTrigger()
	coord.Listen(trigger)
	coord.Listen(lifecycle.OSSignals())

	// RPC server (health, reflection, metrics)
	rpcServer, err := rpcserver.New(rpcserver.Config{
		Addr:      cfg.Server.RPC.Addr,
		RateLimit: cfg.Server.RPC.RateLimit,
		TLSCert:   cfg.Server.RPC.TLSCert,
		TLSKey:    cfg.Server.RPC.TLSKey,
	}, trk, metrics, log)
	if err != nil {
		return fmt.Errorf("init rpc server: %w", err)
	}

	go func() {
		if err := rpcServer.ListenAndServe(); err != nil {
			log.Error("rpc server failed", "error", err)
			trigger.Fire()
		}
	}()

	// Local management server
	localSrv := localserver.New(cfg.Server.Local.Path, localserver.NewHandler(coord, trk, trigger), log)
	go func() {
		if err := localSrv.ListenAndServe(); err != nil {
			log.Error("local management server failed", "error", err)
			trigger.Fire()
		}
	}()

	// Watch the config file so log level changes apply without restart.
	if *configFile != "" {
		watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
		if err != nil {
			log.Warn("config watcher unavailable", "error", err)
		} else {
			watcher.OnChange(func(path string) {
				reloadLogLevel(path, log)
			})
			if err := watcher.Watch(*configFile); err != nil {
				log.Warn("cannot watch config file", "path", *configFile, "error", err)
			} else {
				watcher.StartAsync()
				defer watcher.Stop()
			}
		}
	}

	// Keep the lifecycle gauge in step with the coordinator.
	go func() {
		<-trk.Closing()
		metrics.LifecycleState.Set(gaugeDraining)
	}()
	go func() {
		<-coord.Done()
		metrics.LifecycleState.Set(gaugeTerminated)
	}()

	log.Info("server started, press Ctrl+C to stop")
	outcome := coord.AwaitTermination()

	// The management socket outlives the drain so status stays available;
	// tear it down last.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := localSrv.Shutdown(ctx); err != nil {
		log.Warn("local management server shutdown", "error", err)
	}

	if outcome == lifecycle.OutcomeForced {
		return fmt.Errorf("terminated forcefully after grace period %s", grace)
	}

	log.Info("gracefully exiting")
	return nil
}

// loadConfig loads configuration from file, environment, and flag overrides.
func loadConfig(configFile string, overrides map[string]any) (*config.ServerConfig, error) {
	// Start with defaults
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	loader := confloader.NewLoader(opts...)

	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	// Flags beat file and environment.
	if len(overrides) > 0 {
		if err := loader.LoadMap(overrides); err != nil {
			return nil, err
		}
		if err := loader.Unmarshal(cfg); err != nil {
			return nil, err
		}
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// initLogger initializes the structured logger and installs it as the
// process default.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}

	logger.SetDefault(log)
	return log, nil
}

// reloadLogLevel re-reads the config file and applies the log level.
// Other settings require a restart; the listen address and grace period
// are fixed for the lifetime of the process.
func reloadLogLevel(path string, log logger.Logger) {
	loader := confloader.NewLoader(confloader.WithConfigFile(path))

	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		log.Warn("config reload failed", "path", path, "error", err)
		return
	}
	if err := config.Verify(cfg); err != nil {
		log.Warn("config reload rejected", "path", path, "error", err)
		return
	}

	if cfg.Log.Level != logger.GetLevel() {
		log.Info("log level changed", "from", logger.GetLevel(), "to", cfg.Log.Level)
		logger.SetLevel(cfg.Log.Level)
	}
}
