package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tinylm/internal/logger"
	"github.com/samcharles93/tinylm/internal/model"
	"github.com/samcharles93/tinylm/internal/tensor"
)

// setup runs before every subcommand: it loads the config file and installs
// the logger in ctx.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := LoadConfig(configFile, cmd.IsSet("config"))
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	applyLoggingConfig(cmd.IsSet, cfg)

	level := logger.ParseLevel(logLevel)
	if debug {
		level = slog.LevelDebug
	}
	format, err := logger.ParseFormat(logFormat)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	log := logger.Build(os.Stderr, logger.Options{
		Format:  format,
		Level:   level,
		NoColor: noColor || !isTerminal(os.Stderr),
	})

	ctx = logger.WithContext(ctx, log)
	return withFileConfig(ctx, cfg), nil
}

func buildModel(ctx context.Context, cmd *cli.Command) (*model.LanguageModel, error) {
	log := logger.FromContext(ctx)
	cfg, s := resolveModelConfig(cmd.IsSet, fileConfigFrom(ctx))

	start := time.Now()
	m, err := model.NewLanguageModel(cfg, tensor.NewRand(s))
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("error: build model: %v", err), 1)
	}
	log.Debug("model built",
		"config", cfg.String(),
		"seed", s,
		"parameters", m.NumParameters(),
		"workers", m.Blocks[0].Attn.Workers(),
		"took", time.Since(start),
	)
	return m, nil
}
