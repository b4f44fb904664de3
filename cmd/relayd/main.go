// Command relayd runs the broadcast relay: websocket fan-out plus the HTTP
// endpoint that injects open commands.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/popgate/popgate/internal/infrastructure/config"
	"github.com/popgate/popgate/internal/relay"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	port := flag.String("port", "", "Listen port (overrides config)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Relay.Port = *port
	}

	srv, err := relay.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()
	log.Printf("relay listening on :%s", cfg.Relay.Port)

	select {
	case <-sigChan:
		log.Println("shutting down gracefully")
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}
