// Package main is the entry point for the rollgen web front-end
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/james-see/rollgen/internal/config"
	"github.com/james-see/rollgen/internal/logger"
	"github.com/james-see/rollgen/pkg/api"
)

var version = "dev"

func main() {
	cfg := config.Load()

	port := flag.String("port", cfg.Port, "Server port")
	backend := flag.String("backend", cfg.BackendURL, "Generation service base URL")
	flag.Parse()
	cfg.Port = *port
	cfg.BackendURL = *backend

	flush, err := logger.InitSentry(cfg.SentryDSN, cfg.Environment, version)
	if err != nil {
		logger.Warn("Sentry disabled", logger.Fields{"error": err.Error()})
	}
	defer flush()

	fmt.Printf("Starting rollgen web front-end on port %s...\n", cfg.Port)
	fmt.Printf("Swagger docs available at http://localhost:%s/swagger/index.html\n", cfg.Port)

	if err := api.StartServer(cfg); err != nil {
		flush()
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
