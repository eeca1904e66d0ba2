package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tinylm/internal/logger"
	"github.com/samcharles93/tinylm/internal/model"
	"github.com/samcharles93/tinylm/internal/tensor"
)

func runCmd() *cli.Command {
	var (
		tokens  string
		asJSON  bool
		showTop int64
	)

	return &cli.Command{
		Name:      "run",
		Usage:     "Run a forward pass over token ids and print the predictions",
		ArgsUsage: "[ids...]",
		Before:    setup,
		Flags: commandFlags(
			&cli.StringFlag{
				Name:        "tokens",
				Aliases:     []string{"t"},
				Usage:       "comma separated token ids (default: demo sequence)",
				Destination: &tokens,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the full logits document as JSON",
				Destination: &asJSON,
			},
			&cli.Int64Flag{
				Name:        "top",
				Usage:       "logit values to show per position",
				Value:       5,
				Destination: &showTop,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			ids, err := parseTokens(tokens, cmd.Args().Slice())
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			m, err := buildModel(ctx, cmd)
			if err != nil {
				return err
			}

			start := time.Now()
			logits, err := m.Forward(ids)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: forward: %v", err), 1)
			}
			elapsed := time.Since(start)
			log.Info("forward complete", "tokens", len(ids), "shape", logits.String(), "took", elapsed)

			if asJSON {
				return writeRunJSON(os.Stdout, m.Config(), ids, &logits, elapsed)
			}
			printRun(os.Stdout, m, ids, &logits, int(showTop))
			return nil
		},
	}
}

type runPosition struct {
	Position  int       `json:"position"`
	Input     int       `json:"input"`
	Predicted int       `json:"predicted"`
	Logit     float32   `json:"logit"`
	Logits    []float32 `json:"logits"`
}

type runDocument struct {
	Config     model.Config  `json:"config"`
	Tokens     []int         `json:"tokens"`
	Shape      [2]int        `json:"shape"`
	Positions  []runPosition `json:"positions"`
	DurationMS float64       `json:"duration_ms"`
}

func writeRunJSON(w io.Writer, cfg model.Config, ids []int, logits *tensor.Mat, elapsed time.Duration) error {
	doc := runDocument{
		Config:     cfg,
		Tokens:     ids,
		Shape:      [2]int{logits.R, logits.C},
		Positions:  make([]runPosition, logits.R),
		DurationMS: float64(elapsed.Microseconds()) / 1000,
	}
	for i := range doc.Positions {
		row := logits.Row(i)
		best := tensor.ArgMax(row)
		doc.Positions[i] = runPosition{
			Position:  i,
			Input:     ids[i],
			Predicted: best,
			Logit:     row[best],
			Logits:    row,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func printRun(w io.Writer, m *model.LanguageModel, ids []int, logits *tensor.Mat, top int) {
	cfg := m.Config()
	_, _ = fmt.Fprintf(w, "Model:      %s\n", cfg)
	_, _ = fmt.Fprintf(w, "Parameters: %d\n", m.NumParameters())
	_, _ = fmt.Fprintf(w, "Input:      %v\n", ids)
	_, _ = fmt.Fprintf(w, "Logits:     %d x %d\n\n", logits.R, logits.C)

	_, _ = fmt.Fprintf(w, "%-4s %6s %10s %10s  %s\n", "pos", "input", "predicted", "logit", "first logits")
	for i := 0; i < logits.R; i++ {
		row := logits.Row(i)
		best := tensor.ArgMax(row)
		n := min(top, len(row))
		_, _ = fmt.Fprintf(w, "%-4d %6d %10d %10.4f  %s\n", i, ids[i], best, row[best], formatRow(row[:max(n, 0)]))
	}
}

func formatRow(row []float32) string {
	buf := make([]byte, 0, len(row)*9+2)
	buf = append(buf, '[')
	for i, v := range row {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = fmt.Appendf(buf, "%.4f", v)
	}
	return string(append(buf, ']'))
}
