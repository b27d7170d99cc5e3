// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"firestige.xyz/ngtrace/internal/config"
	"firestige.xyz/ngtrace/internal/core"
	"firestige.xyz/ngtrace/internal/log"
	"firestige.xyz/ngtrace/plugins/parser/ng"
	"firestige.xyz/ngtrace/plugins/processor/relevance"

	// built-in capturers and reporters
	_ "firestige.xyz/ngtrace/plugins"
)

var (
	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ngtrace",
	Short: "ngtrace - ng protocol trace extraction and sequence analysis",
	Long: `ngtrace extracts "ng -<command> ... [ <vector>* ]" protocol messages from
packet captures and reconstructs per-conversation command sequences.

Typical workflow:
  ngtrace extract  -i capture.pcapng -o extracted.jsonl
  ngtrace filter   -i extracted.jsonl -o relevant.jsonl
  ngtrace sequence -i relevant.jsonl`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"override log level (trace/debug/info/warn/error)")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(sequenceCmd)
	rootCmd.AddCommand(validateCmd)
}

// loadConfig reads the configuration, applies the --log-level override and
// installs the process logger.
func loadConfig(path, level string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level != "" {
		cfg.Log.Level = strings.ToLower(level)
		if err := cfg.ValidateAndApplyDefaults(); err != nil {
			return nil, fmt.Errorf("%w: --log-level: %v", core.ErrConfigInvalid, err)
		}
	}
	if err := log.Init(&cfg.Log); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

// newClassifier builds the relevance classifier described by cfg.
func newClassifier(cfg *config.Config) (*relevance.Classifier, error) {
	anchor, err := relevance.ParseAnchor(cfg.Relevance.FramingAnchor)
	if err != nil {
		return nil, err
	}
	return relevance.New(cfg.Relevance.Markers, cfg.Relevance.RecoverFraming).WithAnchor(anchor), nil
}

// newParser builds the command parser with the configured binding.
func newParser(cfg *config.Config) *ng.Parser {
	return ng.NewParser(ng.Binding{
		Command:   cfg.Binding.Command,
		VectorTag: cfg.Binding.VectorTag,
		Field:     cfg.Binding.Field,
	})
}
