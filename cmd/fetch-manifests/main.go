// Command fetch-manifests downloads component manifest files listed in a
// repository configuration into the local manifest folder, so the demo
// server can substitute simulation parameters into them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"evdemo/internal/demo/fetch"
	"evdemo/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	defaultConfigPath   = "configs/components.yml"
	defaultOutputFolder = "manifests"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to the repository configuration file")
	outputFolder := flag.String("output", defaultOutputFolder, "Folder to write the fetched manifests into")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	if err := logger.Init(logger.Config{Level: *logLevel}); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := fetch.LoadConfig(*configPath)
	if err != nil {
		logger.Error(context.Background(), "load fetch configuration failed", zap.Error(err))
		os.Exit(1)
	}

	fetcher := fetch.NewFetcher(*outputFolder)
	written, err := fetcher.FetchAll(context.Background(), cfg)
	if err != nil {
		logger.Error(context.Background(), "fetching manifests failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info(context.Background(), "manifest fetch finished",
		zap.Int("fetched", len(written)),
		zap.String("output", *outputFolder),
	)
}
