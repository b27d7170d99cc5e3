package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/ngtrace/internal/config"
	"firestige.xyz/ngtrace/internal/log"
	"firestige.xyz/ngtrace/internal/record"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Keep the output records carrying a marker inside a time interval",
	Long: `Re-read extracted records and keep those whose data carries a configured
marker and whose time lies in [--begin, --end]. Records without a time are
dropped when either bound is set.

Examples:
  ngtrace filter -i extracted.jsonl -o relevant.jsonl
  ngtrace filter -i extracted.jsonl.gz -o relevant.jsonl --begin 12.5 --end 40`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configFile, logLevel)
		if err != nil {
			return err
		}

		opts := filterOpts
		if cmd.Flags().Changed("begin") {
			opts.Begin = &filterBegin
		}
		if cmd.Flags().Changed("end") {
			opts.End = &filterEnd
		}
		_, err = runFilter(cmd.Context(), cfg, opts, cmd.ErrOrStderr())
		return err
	},
}

type filterOptions struct {
	Input  string
	Output string
	Begin  *float64
	End    *float64
}

var (
	filterOpts  filterOptions
	filterBegin float64
	filterEnd   float64
)

func init() {
	filterCmd.Flags().StringVarP(&filterOpts.Input, "input", "i", "",
		"records to read (required, \"-\" for stdin)")
	filterCmd.Flags().StringVarP(&filterOpts.Output, "output", "o", record.StdStream,
		"records to write (\"-\" for stdout, \".gz\" compresses)")
	filterCmd.Flags().Float64Var(&filterBegin, "begin", 0, "inclusive lower time bound, seconds")
	filterCmd.Flags().Float64Var(&filterEnd, "end", 0, "inclusive upper time bound, seconds")
	filterCmd.MarkFlagRequired("input")
}

func runFilter(ctx context.Context, cfg *config.Config, opts filterOptions, summary io.Writer) (record.FilterStats, error) {
	if opts.Begin != nil && opts.End != nil && *opts.Begin > *opts.End {
		return record.FilterStats{}, fmt.Errorf("--begin %v is after --end %v", *opts.Begin, *opts.End)
	}

	classifier, err := newClassifier(cfg)
	if err != nil {
		return record.FilterStats{}, err
	}

	r, err := record.Open(opts.Input)
	if err != nil {
		return record.FilterStats{}, err
	}
	defer r.Close()

	w, err := record.Create(opts.Output)
	if err != nil {
		return record.FilterStats{}, err
	}

	stats, err := record.Copy(ctx, r, w, record.Filter{
		Classifier: classifier,
		Begin:      opts.Begin,
		End:        opts.End,
	})
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return stats, err
	}

	log.GetLogger().WithFields(map[string]interface{}{
		"read":      stats.Read,
		"kept":      stats.Kept,
		"malformed": stats.Malformed,
	}).Info("filter finished")
	fmt.Fprintf(summary, "%d of %d records kept (%d malformed)\n", stats.Kept, stats.Read, stats.Malformed)
	return stats, nil
}
