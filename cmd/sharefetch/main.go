// cmd/sharefetch/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/deploymenttheory/go-share-downloader/downloader"
	"github.com/deploymenttheory/go-share-downloader/logger"
	"github.com/deploymenttheory/go-share-downloader/version"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a JSON configuration file; environment variables are used when empty")
	envPath := flag.String("env", ".env", "path to an optional .env file")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetUserAgentHeader())
		return nil
	}

	config, err := loadConfig(*configPath, *envPath)
	if err != nil {
		return err
	}

	parsedLogLevel := logger.ParseLogLevelFromString(config.LogLevel)
	log := logger.BuildLogger(parsedLogLevel, config.LogOutputFormat, config.LogConsoleSeparator)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := downloader.NewSinkFromConfig(ctx, *config, log)
	if err != nil {
		return log.Error("Failed to create sink", zap.String("sink_type", config.SinkType), zap.Error(err))
	}

	client, err := downloader.NewClient(*config, s, log)
	if err != nil {
		return log.Error("Failed to build download client", zap.Error(err))
	}

	report, err := client.Run(ctx)
	for _, result := range report.Results {
		fmt.Printf("%s -> %s\n", result.ResourceID, result.Location)
	}
	return err
}

// loadConfig reads the JSON file when one is given. Otherwise the .env file is loaded if it
// exists and the configuration is read from the environment.
func loadConfig(configPath, envPath string) (*downloader.ClientConfig, error) {
	if configPath != "" {
		return downloader.LoadConfigFromFile(configPath)
	}

	if envPath == "" {
		return downloader.LoadConfigFromEnv()
	}
	return downloader.LoadConfigFromDotEnv(envPath)
}
