package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"firestige.xyz/ngtrace/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration (file, defaults and NGTRACE_* environment
overrides), validate it and print a summary.

Examples:
  ngtrace validate -c ngtrace.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configFile, logLevel)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "INVALID: %v\n", err)
			return err
		}
		printConfigSummary(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func printConfigSummary(w io.Writer, cfg *config.Config) {
	reporters := make([]string, 0, len(cfg.Reporters))
	for _, r := range cfg.Reporters {
		reporters = append(reporters, r.Name)
	}

	fmt.Fprintln(w, "VALID")
	fmt.Fprintf(w, "  markers:    %s\n", strings.Join(cfg.Relevance.Markers, ", "))
	fmt.Fprintf(w, "  framing:    recover=%t anchor=%s\n", cfg.Relevance.RecoverFraming, cfg.Relevance.FramingAnchor)
	fmt.Fprintf(w, "  binding:    ng -%s <%d> field %d\n", cfg.Binding.Command, cfg.Binding.VectorTag, cfg.Binding.Field)
	fmt.Fprintf(w, "  ports:      %s\n", formatPorts(cfg.Capture.Ports))
	fmt.Fprintf(w, "  gap ratio:  %v\n", cfg.Sequence.GapRatio)
	fmt.Fprintf(w, "  reporters:  %s\n", strings.Join(reporters, ", "))
	if cfg.Metrics.Enabled {
		fmt.Fprintf(w, "  metrics:    %s%s\n", cfg.Metrics.Listen, cfg.Metrics.Path)
	} else {
		fmt.Fprintln(w, "  metrics:    disabled")
	}
	fmt.Fprintf(w, "  log level:  %s\n", cfg.Log.Level)
}

func formatPorts(ports []uint16) string {
	if len(ports) == 0 {
		return "all"
	}
	s := make([]string, len(ports))
	for i, p := range ports {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, ",")
}
