package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/iliyamo/project-tracker/internal/config"
	"github.com/iliyamo/project-tracker/internal/logger"
)

// options are the command-line flags shared by the three binaries.
type options struct {
	envFile   string
	port      string
	store     string
	noMigrate bool
}

func parseFlags(service string, args []string, stderr io.Writer) (options, error) {
	var o options
	fs := pflag.NewFlagSet(service, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.envFile, "env-file", "", "load environment from this file (default ./.env if present)")
	fs.StringVar(&o.port, "port", "", "listen port, overrides APP_PORT")
	fs.StringVar(&o.store, "store", "", "record store: mysql or memory, overrides STORE_DRIVER")
	fs.BoolVar(&o.noMigrate, "no-migrate", false, "skip schema migrations on startup")
	return o, fs.Parse(args)
}

// Main runs service until SIGINT or SIGTERM and returns the exit code.
func Main(service string, args []string) int {
	o, err := parseFlags(service, args, os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}
	cfg, err := o.load(service)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log := logger.New(cfg.Env, cfg.LogLevel, service)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := New(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", logger.Err(err))
		return 1
	}
	if err := a.Run(ctx); err != nil {
		log.Error("server stopped", logger.Err(err))
		return 1
	}
	log.Info("shutdown complete")
	return 0
}

// load seeds the environment from the env file and reads the configuration
// with the flags taking precedence.
func (o options) load(service string) (config.Config, error) {
	if err := config.LoadEnvFile(o.envFile); err != nil {
		return config.Config{}, err
	}
	return config.Load(service, config.Overrides{
		Port:      o.port,
		Store:     o.store,
		NoMigrate: o.noMigrate,
	})
}
