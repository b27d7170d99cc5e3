package cmd

import (
	"context"
	"fmt"
	"maps"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/ngtrace/internal/config"
	"firestige.xyz/ngtrace/internal/log"
	"firestige.xyz/ngtrace/internal/metrics"
	"firestige.xyz/ngtrace/internal/pipeline"
	"firestige.xyz/ngtrace/internal/record"
	"firestige.xyz/ngtrace/pkg/plugin"
)

const (
	capturerName     = "pcapfile"
	outputReporter   = "jsonl"
	outputPathOption = "path"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract ng protocol messages from a capture file",
	Long: `Read a pcap or pcapng capture (optionally gzip-compressed), keep the frames
carrying a configured marker and write one output record per message through
the configured reporters.

Examples:
  ngtrace extract -i capture.pcapng -o extracted.jsonl
  ngtrace extract -i capture.pcap.gz --ports 9999,8888 -o extracted.jsonl.gz`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configFile, logLevel)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		_, err = runExtract(ctx, cfg, extractOpts)
		return err
	},
}

type extractOptions struct {
	Input  string
	Output string
	Ports  []uint
}

var extractOpts extractOptions

func init() {
	extractCmd.Flags().StringVarP(&extractOpts.Input, "input", "i", "",
		"capture file to read (required)")
	extractCmd.Flags().StringVarP(&extractOpts.Output, "output", "o", "",
		"jsonl output path, overrides the configured jsonl reporter (\"-\" for stdout)")
	extractCmd.Flags().UintSliceVar(&extractOpts.Ports, "ports", nil,
		"destination ports to keep, overrides capture.ports")
	extractCmd.MarkFlagRequired("input")
}

func runExtract(ctx context.Context, cfg *config.Config, opts extractOptions) (pipeline.Stats, error) {
	ports, err := capturePorts(cfg, opts.Ports)
	if err != nil {
		return pipeline.Stats{}, err
	}

	capturer, err := newCapturer(opts.Input, ports)
	if err != nil {
		return pipeline.Stats{}, err
	}

	reporters, err := newReporters(reporterConfigs(cfg.Reporters, opts.Output))
	if err != nil {
		return pipeline.Stats{}, err
	}

	classifier, err := newClassifier(cfg)
	if err != nil {
		return pipeline.Stats{}, err
	}

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
		if err := srv.Start(ctx); err != nil {
			return pipeline.Stats{}, err
		}
		defer srv.Stop(context.WithoutCancel(ctx))
	}

	p := pipeline.NewBuilder().
		WithCapturer(capturer).
		WithClassifier(classifier).
		WithParser(newParser(cfg)).
		WithReporters(reporters...).
		Build()

	if err := p.Run(ctx); err != nil {
		log.GetLogger().WithError(err).Error("extract failed")
		return p.Stats(), err
	}
	return p.Stats(), nil
}

// capturePorts prefers the --ports flag over capture.ports.
func capturePorts(cfg *config.Config, flagPorts []uint) ([]uint16, error) {
	if len(flagPorts) == 0 {
		return cfg.Capture.Ports, nil
	}
	ports := make([]uint16, 0, len(flagPorts))
	for _, p := range flagPorts {
		if p == 0 || p > 65535 {
			return nil, fmt.Errorf("--ports: invalid port %d", p)
		}
		ports = append(ports, uint16(p))
	}
	return ports, nil
}

func newCapturer(path string, ports []uint16) (plugin.Capturer, error) {
	factory, err := plugin.GetCapturerFactory(capturerName)
	if err != nil {
		return nil, err
	}
	c := factory()
	options := map[string]any{"path": path}
	if len(ports) > 0 {
		options["ports"] = ports
	}
	if err := c.Init(options); err != nil {
		return nil, err
	}
	return c, nil
}

// reporterConfigs applies the -o override: the first jsonl reporter writes
// to output, or one is appended when none is configured.
func reporterConfigs(configured []config.ReporterConfig, output string) []config.ReporterConfig {
	out := make([]config.ReporterConfig, 0, len(configured)+1)
	overridden := output == ""
	for _, rc := range configured {
		if !overridden && rc.Name == outputReporter {
			options := maps.Clone(rc.Options)
			if options == nil {
				options = make(map[string]any)
			}
			options[outputPathOption] = output
			rc.Options = options
			overridden = true
		}
		out = append(out, rc)
	}
	if !overridden {
		out = append(out, config.ReporterConfig{
			Name:    outputReporter,
			Options: map[string]any{outputPathOption: output},
		})
	}
	return out
}

func newReporters(configs []config.ReporterConfig) ([]plugin.Reporter, error) {
	if len(configs) == 0 {
		configs = []config.ReporterConfig{{Name: outputReporter, Options: map[string]any{outputPathOption: record.StdStream}}}
	}
	reporters := make([]plugin.Reporter, 0, len(configs))
	for i, rc := range configs {
		factory, err := plugin.GetReporterFactory(rc.Name)
		if err != nil {
			return nil, fmt.Errorf("reporters[%d]: %w", i, err)
		}
		r := factory()
		if err := r.Init(rc.Options); err != nil {
			return nil, fmt.Errorf("reporters[%d]: %w", i, err)
		}
		reporters = append(reporters, r)
	}
	return reporters, nil
}
