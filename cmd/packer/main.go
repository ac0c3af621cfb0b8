package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/packer/internal/application"
	"github.com/eugenenazirov/packer/internal/config"
	"github.com/eugenenazirov/packer/internal/logging"
	"github.com/eugenenazirov/packer/internal/optimizer"
)

var signalNotify = signal.Notify

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "packer: %v\n", err)
		os.Exit(1)
	}
}

// cli holds the parsed command line.
type cli struct {
	app *kingpin.Application

	pack  *kingpin.CmdClause
	serve *kingpin.CmdClause

	configFile *string
	envFile    *string
	solver     *string
	workers    *int
	logLevel   *string

	inputFile *string

	port           *string
	rateLimitRPS   *float64
	rateLimitBurst *int
}

func newCLI() *cli {
	c := &cli{
		app: kingpin.New("packer", "Package Packer - chooses the most valuable items for each package and which packages to ship"),
	}
	c.configFile = c.app.Flag("config", "Path to YAML configuration file").String()
	c.envFile = c.app.Flag("env-file", "Path to a dotenv file loaded before reading the environment").String()
	c.solver = c.app.Flag("solver", fmt.Sprintf("Optimizer strategy %v", optimizer.Strategies())).String()
	c.workers = c.app.Flag("workers", "Packages optimised concurrently (0 uses the configured default)").Default("0").Int()
	c.logLevel = c.app.Flag("log-level", "Log level (debug, info, warn, error)").String()

	c.pack = c.app.Command("pack", "Solve every package in an input file and print the items to send")
	c.inputFile = c.pack.Arg("file", "Input file, one package per line").Required().ExistingFile()

	c.serve = c.app.Command("serve", "Run the HTTP API")
	c.port = c.serve.Flag("port", "HTTP port exposed by the service").String()
	c.rateLimitRPS = c.serve.Flag("rate-limit-rps", "Requests per second allowed per client (set 0 to disable)").Default("-1").Float64()
	c.rateLimitBurst = c.serve.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	return c
}

// overrides turns the parsed flags into configuration overrides. Flags that
// were not given leave the lower-precedence sources in charge.
func (c *cli) overrides() *config.CLIOverrides {
	overrides := &config.CLIOverrides{
		ConfigFile: *c.configFile,
		EnvFile:    *c.envFile,
	}

	if *c.solver != "" {
		overrides.Solver = c.solver
	}
	if *c.workers > 0 {
		overrides.Workers = c.workers
	}
	if *c.logLevel != "" {
		overrides.LogLevel = c.logLevel
	}
	if *c.port != "" {
		overrides.Port = c.port
	}
	if *c.rateLimitRPS >= 0 {
		overrides.RateLimitRPS = c.rateLimitRPS
	}
	if *c.rateLimitBurst >= 0 {
		overrides.RateLimitBurst = c.rateLimitBurst
	}

	return overrides
}

func run(args []string, stdout io.Writer) error {
	c := newCLI()
	command, err := c.app.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(c.overrides())
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
	case c.pack.FullCommand():
		return pack(cfg, logger, *c.inputFile, stdout)
	case c.serve.FullCommand():
		return serve(cfg, logger)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func pack(cfg config.Config, logger *zap.Logger, path string, stdout io.Writer) error {
	service, err := application.NewService(cfg, logger, nil)
	if err != nil {
		return err
	}

	out, err := service.PackFile(context.Background(), path)
	if err != nil {
		return err
	}
	_, err = io.WriteString(stdout, out)
	return err
}

func serve(cfg config.Config, logger *zap.Logger) error {
	app, err := application.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

// shutdown blocks until SIGINT or SIGTERM, then drains the server within
// timeout and closes it forcibly if draining fails.
func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) error {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	sig := <-quit
	logger.Info("shutting down server",
		zap.Stringer("signal", sig),
		zap.Duration("grace_period", timeout),
	)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			return fmt.Errorf("close server: %w", closeErr)
		}
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
