package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"logobanner/src/common"
	"logobanner/src/config"
	"logobanner/src/logging"
	"logobanner/src/server"
	"logobanner/src/storage"
	"logobanner/src/watcher"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the config file")
	envFile := flag.String("env", ".env", "Path to the .env file with storage credentials")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	fmt.Println("Logobanner - Logo Banner Service")
	fmt.Println("================================")

	log := logging.GetLogger()

	// Load config
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	if *debug {
		level = logrus.DebugLevel
	}
	logging.InitLogger(level)

	processor := common.NewProcessor(common.ProcessorOptions{JPEGQuality: cfg.Banner.JPEGQuality})

	// Storage is optional; without credentials the service runs with uploads disabled
	publisher, err := openPublisher(cfg, *envFile)
	if err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			log.Warnf("Uploads disabled: %v", err)
		} else {
			log.Fatalf("Failed to open storage: %v", err)
		}
	}

	bannerServer := server.NewServer(cfg, processor)
	if publisher != nil {
		bannerServer.SetPublisher(publisher)
	}

	// Start banner server in background
	go func() {
		if err := bannerServer.Start(); err != nil {
			log.Fatalf("Banner server failed: %v", err)
		}
	}()

	var w *watcher.Watcher
	if cfg.Watch.Enabled {
		w, err = watcher.NewWatcher(cfg, processor)
		if err != nil {
			log.Fatalf("Failed to create watcher: %v", err)
		}
		if publisher != nil {
			w.SetPublisher(publisher)
		}
		if err := w.Start(); err != nil {
			log.Fatalf("Failed to start watcher: %v", err)
		}

		go func() {
			for event := range w.Events() {
				log.Infof("Event: %v - %s", event.Type, event.FilePath)
			}
		}()
	}

	log.Info("Press Ctrl+C to stop")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down...")
	if w != nil {
		if err := w.Stop(); err != nil {
			log.Warnf("Watcher stop: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := bannerServer.Shutdown(ctx); err != nil {
		log.Warnf("Server shutdown: %v", err)
	}
}

func openPublisher(cfg *config.Config, envFile string) (*storage.Publisher, error) {
	creds, err := config.LoadCredentials(envFile)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	uploader, err := storage.NewS3Uploader(ctx, cfg.Storage, creds)
	if err != nil {
		return nil, err
	}
	if err := uploader.Ping(ctx); err != nil {
		logging.GetLogger().Warnf("Bucket %s not reachable yet: %v", cfg.Storage.Bucket, err)
	}

	return storage.NewPublisher(uploader, cfg.Storage.BaseURL, nil), nil
}
