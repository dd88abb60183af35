package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ghostop14/kraken-api-agent/pkg/config"
	"github.com/ghostop14/kraken-api-agent/pkg/logging"
)

var (
	configPath   = flag.String("config", "", "Configuration file path (optional)")
	port         = flag.Int("port", 0, "Port for the HTTP server to listen on, overrides the config file")
	settingsPath = flag.String("settings-path", "", "Path to the krakensdr_doa _share directory holding settings.json, overrides the config file")
	allowedIPs   = flag.String("allowed-ips", "", "Comma-separated list of client IPs allowed to connect, default is any")
	debugHTTP    = flag.Bool("debug-http", false, "Log each URL request")
	version      = flag.Bool("version", false, "Show version information")
)

const (
	Version = "0.2.0"
	Build   = "development"
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("kraken-agent version %s (%s)\n", Version, Build)
		os.Exit(0)
	}

	// Load configuration; flags override the file so the agent can still be
	// driven entirely from the command line
	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if *port != 0 {
		cfg.Web.Port = *port
	}
	if *settingsPath != "" {
		cfg.Settings.Dir = *settingsPath
	}
	if *allowedIPs != "" {
		for _, ip := range strings.Split(*allowedIPs, ",") {
			cfg.Security.AllowedIPs = append(cfg.Security.AllowedIPs, strings.TrimSpace(ip))
		}
	}
	if *debugHTTP {
		cfg.Web.DebugHTTP = true
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize logging system
	if err := logging.InitGlobalLogger(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseGlobalLogger()

	logging.Infof("main", "kraken-agent version %s starting...", Version)
	logging.Infof("main", "Settings: %s", cfg.SettingsFile())
	logging.Infof("main", "DOA telemetry: %s", cfg.Telemetry.URL)
	logging.Infof("main", "API: http://%s:%d/api/krakensdr", cfg.Web.BindAddress, cfg.Web.Port)

	daemon, err := NewKrakenAgent(cfg)
	if err != nil {
		logging.Errorf("main", "Failed to create agent: %v", err)
		os.Exit(1)
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := daemon.Start(); err != nil {
		logging.Errorf("main", "Failed to start agent: %v", err)
		os.Exit(1)
	}

	logging.Info("main", "kraken-agent started successfully")

	// Wait for shutdown signal
	<-sigChan
	logging.Info("main", "Shutting down...")

	if err := daemon.Stop(); err != nil {
		logging.Errorf("main", "Error during shutdown: %v", err)
	}

	logging.Info("main", "kraken-agent stopped")
}
