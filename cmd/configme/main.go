package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/configme/internal/application"
	"github.com/eugenenazirov/configme/internal/config"
	"github.com/eugenenazirov/configme/internal/logging"
	"github.com/eugenenazirov/configme/internal/resolver"
)

var signalNotify = signal.Notify

var errKeyNotFound = errors.New("setting not found")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "configme: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	kingpinApp := kingpin.New("configme", "Merges environment-specific settings files into one effective value per file")
	kingpinApp.UsageWriter(stderr)
	kingpinApp.ErrorWriter(stderr)

	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	dir := kingpinApp.Flag("dir", "Directory holding the settings files").Short('d').String()
	env := kingpinApp.Flag("env", "Active environment name").Short('e').String()
	format := kingpinApp.Flag("format", "Settings file format (yaml, json, toml)").String()
	output := kingpinApp.Flag("output", "Output encoding for printed settings (yaml, json)").Short('o').String()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()

	dumpCmd := kingpinApp.Command("dump", "Print every effective setting").Default()
	getCmd := kingpinApp.Command("get", "Print one effective setting")
	getKey := getCmd.Arg("key", "Settings key, the camel-cased file name").Required().String()

	serveCmd := kingpinApp.Command("serve", "Serve the effective settings over HTTP")
	port := serveCmd.Flag("port", "HTTP port exposed by the service").String()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	command, err := kingpinApp.Parse(args)
	if err != nil {
		return err
	}

	overrides := &config.CLIOverrides{
		ConfigFile:  *configFile,
		Environment: setString(env),
		Dir:         setString(dir),
		Format:      setString(format),
		Output:      setString(output),
		LogLevel:    setString(logLevel),
		Port:        setString(port),
	}
	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}
	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case dumpCmd.FullCommand():
		store, err := application.NewStore(cfg, logger)
		if err != nil {
			return err
		}
		return writeValue(stdout, cfg.Output, store.Snapshot())

	case getCmd.FullCommand():
		store, err := application.NewStore(cfg, logger)
		if err != nil {
			return err
		}
		value, ok := store.Get(*getKey)
		if !ok {
			return fmt.Errorf("%w: %s", errKeyNotFound, *getKey)
		}
		if resolver.Classify(value).Kind() == resolver.KindScalar {
			_, err := fmt.Fprintln(stdout, value)
			return err
		}
		return writeValue(stdout, cfg.Output, value)

	case serveCmd.FullCommand():
		app, err := application.New(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		if err := app.Start(); err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
	}

	return nil
}

func setString(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func writeValue(w io.Writer, output string, value any) error {
	if output == config.OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	return enc.Close()
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
