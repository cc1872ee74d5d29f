// Command facetcount builds segment files from JSON lines and counts filter facets over them.
//
// Usage:
//
//	facetcount -config facetcount.yaml build -input docs.jsonl
//	facetcount -config facetcount.yaml count
//	facetcount -config facetcount.yaml serve
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hupe1980/facetcount/internal/config"
	logpkg "github.com/hupe1980/facetcount/internal/logger"
)

func main() {
	configPath := flag.String("config", "facetcount.yaml", "Path to the YAML configuration")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config: "+err.Error())
		os.Exit(1)
	}

	logger, err := logpkg.NewLogger(cfg.Env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger: "+err.Error())
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, flag.Arg(0), flag.Args()[1:]); err != nil {
		logger.Error("Command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-config file] <build|count|serve> [flags]\n", os.Args[0])
	flag.PrintDefaults()
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, cmd string, args []string) error {
	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	logger.Info("Starting facetcount",
		zap.String("command", cmd),
		zap.String("env", cfg.Env),
		zap.String("storage", cfg.Storage.Kind),
		zap.String("prefix", cfg.Storage.Prefix),
		zap.String("searcher", cfg.Searcher),
	)

	switch cmd {
	case "build":
		fs := flag.NewFlagSet("build", flag.ContinueOnError)
		input := fs.String("input", "-", "JSON lines file with one document per line, - for stdin")
		if err := fs.Parse(args); err != nil {
			return err
		}
		in := os.Stdin
		if *input != "-" {
			f, err := os.Open(*input)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		_, err := buildSegments(ctx, store, cfg, in, logger)
		return err

	case "count":
		eng, err := openEngine(ctx, store, cfg, logger, nil)
		if err != nil {
			return err
		}
		defer eng.Close()
		return writeCount(ctx, os.Stdout, eng, cfg.Request)

	case "serve":
		return serve(ctx, store, cfg, logger)

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}
