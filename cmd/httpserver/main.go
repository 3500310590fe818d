package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"staticserver/internal/accesslog"
	"staticserver/internal/config"
	"staticserver/internal/server"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		host       = flag.String("host", "", "listen host (overrides config)")
		port       = flag.Int("port", 0, "listen port (overrides config)")
		root       = flag.String("root", "", "document root (overrides config)")
		defaultDoc = flag.String("default-doc", "", "default document name (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *root != "" {
		cfg.Site.Root = *root
	}
	if *defaultDoc != "" {
		cfg.Site.DefaultDoc = *defaultDoc
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Access log to stdout, operational messages to stderr.
	srv, err := server.Serve(cfg, accesslog.New(os.Stdout))
	if err != nil {
		log.Fatalf("starting server: %v", err)
	}
	defer srv.Close()
	log.Printf("serving %s on http://%s", cfg.Site.Root, srv.Addr())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("server stopped")
}
