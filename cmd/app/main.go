package main

import (
	"flag"
	"log"
	"os"

	"SignalDesk/internal/di"
	"SignalDesk/pkg/config"
	applogger "SignalDesk/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	envFile := flag.String("env", ".env", "dotenv file loaded before env overrides")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath, *envFile)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	app.Logger().Info("signaldesk starting",
		applogger.String("backend", cfg.Store.Backend),
		applogger.Int("port", cfg.Server.Port),
		applogger.Bool("kafka", cfg.Kafka.Enabled),
		applogger.Bool("stream", cfg.Stream.Enabled),
	)

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
