package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"firestige.xyz/ngtrace/internal/config"
	"firestige.xyz/ngtrace/internal/record"
	"firestige.xyz/ngtrace/internal/report"
)

var sequenceCmd = &cobra.Command{
	Use:   "sequence",
	Short: "Reconstruct per-conversation command sequences",
	Long: `Parse output records back into protocol events, group them by
(source, destination) identifier pair and print each conversation in time
order with gap markers.

Examples:
  ngtrace sequence -i relevant.jsonl
  ngtrace sequence -i relevant.jsonl --start 10 --end 20 --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configFile, logLevel)
		if err != nil {
			return err
		}

		opts := sequenceOpts
		if cmd.Flags().Changed("start") {
			opts.Start = &sequenceStart
		}
		if cmd.Flags().Changed("end") {
			opts.End = &sequenceEnd
		}
		if cmd.Flags().Changed("gap-ratio") {
			opts.GapRatio = &sequenceGapRatio
		}
		_, err = runSequence(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		return err
	},
}

type sequenceOptions struct {
	Input    string
	Start    *float64
	End      *float64
	GapRatio *float64 // nil uses sequence.gap_ratio
	Format   string
}

var (
	sequenceOpts     sequenceOptions
	sequenceStart    float64
	sequenceEnd      float64
	sequenceGapRatio float64
)

func init() {
	sequenceCmd.Flags().StringVarP(&sequenceOpts.Input, "input", "i", "",
		"records to read (required, \"-\" for stdin)")
	sequenceCmd.Flags().Float64Var(&sequenceStart, "start", 0, "inclusive window start, seconds")
	sequenceCmd.Flags().Float64Var(&sequenceEnd, "end", 0, "inclusive window end, seconds")
	sequenceCmd.Flags().Float64Var(&sequenceGapRatio, "gap-ratio", 0,
		"gap threshold as a fraction of the conversation duration, overrides sequence.gap_ratio")
	sequenceCmd.Flags().StringVar(&sequenceOpts.Format, "format", "text",
		"output format ("+strings.Join(report.Formats, "|")+")")
	sequenceCmd.MarkFlagRequired("input")
}

func runSequence(ctx context.Context, cfg *config.Config, opts sequenceOptions, out io.Writer) (*report.Report, error) {
	gapRatio := cfg.Sequence.GapRatio
	if opts.GapRatio != nil {
		gapRatio = *opts.GapRatio
		if gapRatio <= 0 {
			return nil, fmt.Errorf("--gap-ratio must be > 0, got %v", gapRatio)
		}
	}

	renderer, err := report.NewRenderer(opts.Format, out)
	if err != nil {
		return nil, err
	}

	r, err := record.Open(opts.Input)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	events, _, err := report.LoadEvents(r.All(), newParser(cfg))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := report.Build(events, report.Options{
		Start:    opts.Start,
		End:      opts.End,
		GapRatio: gapRatio,
	})
	if err := renderer.Render(out, rep); err != nil {
		return nil, err
	}
	return rep, nil
}
