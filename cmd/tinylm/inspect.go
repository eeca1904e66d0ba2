package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tinylm/internal/model"
	"github.com/samcharles93/tinylm/internal/tensor"
)

func inspectCmd() *cli.Command {
	var (
		tokens    string
		attention bool
		block     int64
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print the model configuration, parameter counts and attention maps",
		ArgsUsage: "[ids...]",
		Before:    setup,
		Flags: commandFlags(
			&cli.BoolFlag{
				Name:        "attention",
				Aliases:     []string{"a"},
				Usage:       "print attention weights for the given tokens",
				Destination: &attention,
			},
			&cli.StringFlag{
				Name:        "tokens",
				Aliases:     []string{"t"},
				Usage:       "comma separated token ids (default: demo sequence)",
				Destination: &tokens,
			},
			&cli.Int64Flag{
				Name:        "block",
				Usage:       "only print attention for this block (-1 = all)",
				Value:       -1,
				Destination: &block,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m, err := buildModel(ctx, cmd)
			if err != nil {
				return err
			}
			printModelSummary(os.Stdout, m)
			if !attention {
				return nil
			}

			ids, err := parseTokens(tokens, cmd.Args().Slice())
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			tr, err := m.Trace(ids)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: forward: %v", err), 1)
			}
			if block >= int64(len(tr.Attention)) {
				return cli.Exit(fmt.Sprintf("error: --block %d out of range (model has %d blocks)", block, len(tr.Attention)), 1)
			}
			_, _ = fmt.Fprintf(os.Stdout, "\nAttention for %v\n", ids)
			for b, heads := range tr.Attention {
				if block >= 0 && int64(b) != block {
					continue
				}
				for h := range heads {
					_, _ = fmt.Fprintf(os.Stdout, "\nblock %d head %d\n", b, h)
					printAttention(os.Stdout, ids, &heads[h])
				}
			}
			return nil
		},
	}
}

func printModelSummary(w io.Writer, m *model.LanguageModel) {
	cfg := m.Config()
	pc := m.ParameterCounts()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "Configuration")
	_, _ = fmt.Fprintf(tw, "  vocab_size\t%d\n", cfg.VocabSize)
	_, _ = fmt.Fprintf(tw, "  d_model\t%d\n", cfg.DModel)
	_, _ = fmt.Fprintf(tw, "  max_seq_len\t%d\n", cfg.MaxSeqLen)
	_, _ = fmt.Fprintf(tw, "  num_blocks\t%d\n", cfg.NumBlocks)
	_, _ = fmt.Fprintf(tw, "  num_heads\t%d\n", cfg.NumHeads)
	_, _ = fmt.Fprintf(tw, "  head_dim\t%d\n", cfg.HeadDim())
	_, _ = fmt.Fprintf(tw, "  d_ff\t%d\n", cfg.DFF)
	_, _ = fmt.Fprintf(tw, "  head_workers\t%d\n", m.Blocks[0].Attn.Workers())
	_, _ = fmt.Fprintln(tw, "Parameters")
	_, _ = fmt.Fprintf(tw, "  embedding\t%d\n", pc.Embedding)
	_, _ = fmt.Fprintf(tw, "  attention\t%d\n", pc.Attention)
	_, _ = fmt.Fprintf(tw, "  feed_forward\t%d\n", pc.FFN)
	_, _ = fmt.Fprintf(tw, "  layer_norm\t%d\n", pc.Norm)
	_, _ = fmt.Fprintf(tw, "  output\t%d\n", pc.Output)
	_, _ = fmt.Fprintf(tw, "  total\t%d\n", pc.Total)
	_ = tw.Flush()
}

// printAttention writes one row per query position.  Masked entries are
// exactly zero after softmax and print as dots.
func printAttention(w io.Writer, ids []int, weights *tensor.Mat) {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprint(tw, "\t")
	for _, id := range ids {
		_, _ = fmt.Fprintf(tw, "%d\t", id)
	}
	_, _ = fmt.Fprintln(tw)
	for i := 0; i < weights.R; i++ {
		_, _ = fmt.Fprintf(tw, "%d\t", ids[i])
		for _, v := range weights.Row(i) {
			if v == 0 {
				_, _ = fmt.Fprint(tw, ".\t")
				continue
			}
			_, _ = fmt.Fprintf(tw, "%.3f\t", v)
		}
		_, _ = fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}
