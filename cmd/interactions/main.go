// Command interactions receives signed interaction webhooks and posts the
// follow-up message for every command it acknowledges.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/goliatone/go-interactions/core"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil && !errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	envFile    string
	address    string
	logLevel   string
	logFormat  string
	version    bool
}

func parseFlags(args []string, stdout io.Writer) (options, *pflag.FlagSet, error) {
	var opts options
	flagSet := pflag.NewFlagSet("interactions", pflag.ContinueOnError)
	flagSet.SetOutput(stdout)
	flagSet.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flagSet.StringVar(&opts.envFile, "env-file", "", "dotenv file loaded before reading the environment")
	flagSet.StringVar(&opts.address, "address", "", "listen address (host:port)")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flagSet.StringVar(&opts.logFormat, "log-format", "", "log format (json, console)")
	flagSet.BoolVar(&opts.version, "version", false, "print the version and exit")
	if err := flagSet.Parse(args); err != nil {
		return options{}, nil, err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return options{}, nil, fmt.Errorf("unexpected argument: %s", extra[0])
	}
	return opts, flagSet, nil
}

// flagLayer holds only the flags the caller actually set.
func flagLayer(opts options, flagSet *pflag.FlagSet) map[string]any {
	raw := map[string]any{}
	if flagSet.Changed("address") {
		raw["server"] = map[string]any{"address": opts.address}
	}
	logging := map[string]any{}
	if flagSet.Changed("log-level") {
		logging["level"] = opts.logLevel
	}
	if flagSet.Changed("log-format") {
		logging["format"] = opts.logFormat
	}
	if len(logging) > 0 {
		raw["logging"] = logging
	}
	return raw
}

func loadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		// a missing default .env is fine
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return core.ConfigError(err, "load env file "+path, nil)
	}
	return nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, flagSet, err := parseFlags(args, stdout)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintf(stdout, "interactions %s\n", version)
		return nil
	}
	if err := loadEnvFile(opts.envFile); err != nil {
		return err
	}
	cfg, err := core.LoadConfig(ctx, core.ConfigSources{
		File:  core.YAMLFileLoader{Path: opts.configPath},
		Env:   core.NewEnvConfigLoader(),
		Flags: core.StaticConfigLoader{Values: flagLayer(opts, flagSet)},
	})
	if err != nil {
		return err
	}
	application, err := newApp(cfg, stdout)
	if err != nil {
		return err
	}
	return application.Run(ctx)
}
