package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kestrelhttp/core/internal/config"
	"github.com/kestrelhttp/core/internal/engine"
)

// main initializes and starts the engine.
// This function orchestrates the entire application lifecycle including:
// - Configuration loading and validation
// - Engine assembly with graceful shutdown support
// - Signal handling for clean termination
func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional, defaults applied if absent)")
	flag.Parse()

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	} else {
		cfg = config.GetInstance()
	}

	srv, err := engine.New(cfg)
	if err != nil {
		log.Fatalf("failed to assemble engine: %v", err)
	}

	// Setup graceful shutdown using context cancellation
	// This pattern ensures all goroutines are properly terminated
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Channel for OS signals - enables graceful shutdown on SIGINT/SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("starting engine on port %d", cfg.Server.Port)
		if err := srv.Start(ctx); err != nil {
			log.Fatalf("engine failed: %v", err)
		}
	}()

	// Block until termination signal is received
	<-sigChan
	log.Println("received termination signal, shutting down gracefully...")

	// Cancel context to signal all components to shutdown
	cancel()

	// Allow time for graceful shutdown before forced termination
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}

	log.Println("engine stopped")
}
