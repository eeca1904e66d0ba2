package main

import (
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tinylm/internal/model"
)

var (
	configFile string
	logLevel   string
	logFormat  string
	debug      bool
	noColor    bool

	vocabSize   int64
	dModel      int64
	maxSeqLen   int64
	numBlocks   int64
	numHeads    int64
	dFF         int64
	headWorkers int64
	seed        int64
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml",
			Value:       defaultConfigPath(),
			Sources:     cli.EnvVars("TINYLM_CONFIG"),
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
		&cli.BoolFlag{
			Name:        "no-color",
			Usage:       "disable colored log output",
			Destination: &noColor,
		},
	}
}

func modelFlags() []cli.Flag {
	def := model.DefaultConfig()
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "vocab-size",
			Usage:       "vocabulary size",
			Value:       int64(def.VocabSize),
			Destination: &vocabSize,
		},
		&cli.Int64Flag{
			Name:        "d-model",
			Usage:       "embedding width",
			Value:       int64(def.DModel),
			Destination: &dModel,
		},
		&cli.Int64Flag{
			Name:        "max-seq-len",
			Aliases:     []string{"ctx"},
			Usage:       "longest accepted token sequence",
			Value:       int64(def.MaxSeqLen),
			Destination: &maxSeqLen,
		},
		&cli.Int64Flag{
			Name:        "num-blocks",
			Aliases:     []string{"layers"},
			Usage:       "number of transformer blocks",
			Value:       int64(def.NumBlocks),
			Destination: &numBlocks,
		},
		&cli.Int64Flag{
			Name:        "num-heads",
			Aliases:     []string{"heads"},
			Usage:       "attention heads per block (must divide --d-model)",
			Value:       int64(def.NumHeads),
			Destination: &numHeads,
		},
		&cli.Int64Flag{
			Name:        "d-ff",
			Usage:       "feed-forward hidden width",
			Value:       int64(def.DFF),
			Destination: &dFF,
		},
		&cli.Int64Flag{
			Name:        "head-workers",
			Usage:       "goroutines per attention layer (0 = GOMAXPROCS, 1 = serial)",
			Value:       int64(def.HeadWorkers),
			Destination: &headWorkers,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "weight initialisation seed (-1 = time based)",
			Value:       42,
			Destination: &seed,
		},
	}
}

// commandFlags returns the model flags followed by extra.  The logging
// flags live on the root command and are inherited by every subcommand.
func commandFlags(extra ...cli.Flag) []cli.Flag {
	return append(modelFlags(), extra...)
}
