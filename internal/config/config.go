// Package config handles configuration loading using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"firestige.xyz/ngtrace/internal/core"
	"firestige.xyz/ngtrace/internal/log"
	"firestige.xyz/ngtrace/internal/utils"
	"firestige.xyz/ngtrace/plugins/processor/relevance"
)

// Config is the complete ngtrace configuration.
// Maps to the `ngtrace:` root key of the config file.
type Config struct {
	Log       log.LoggerConfig `mapstructure:"log"`
	Relevance RelevanceConfig  `mapstructure:"relevance"`
	Capture   CaptureConfig    `mapstructure:"capture"`
	Binding   BindingConfig    `mapstructure:"binding"`
	Sequence  SequenceConfig   `mapstructure:"sequence"`
	Metrics   MetricsConfig    `mapstructure:"metrics"`
	Reporters []ReporterConfig `mapstructure:"reporters"`
}

// ─── Relevance ───

// RelevanceConfig selects the messages of interest.
type RelevanceConfig struct {
	Markers        []string `mapstructure:"markers"`         // ordered, first match is reported
	RecoverFraming bool     `mapstructure:"recover_framing"` // cut leading noise before the command
	FramingAnchor  string   `mapstructure:"framing_anchor"`  // "first_command" or "marker"
}

// ─── Capture ───

// CaptureConfig configures the capture file source.
type CaptureConfig struct {
	Ports []uint16 `mapstructure:"ports"` // destination port prefilter, empty = all
}

// ─── Binding ───

// BindingConfig locates conversation identifiers in the binding command.
type BindingConfig struct {
	Command   string `mapstructure:"command"`
	VectorTag int    `mapstructure:"vector_tag"`
	Field     int    `mapstructure:"field"` // position inside < tag s HID OSID PID BID >
}

// ─── Sequence ───

// SequenceConfig configures sequence reconstruction.
type SequenceConfig struct {
	GapRatio float64 `mapstructure:"gap_ratio"`
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// ─── Reporters ───

// ReporterConfig selects one reporter plugin and its options.
type ReporterConfig struct {
	Name    string         `mapstructure:"name"`
	Options map[string]any `mapstructure:"options"`
}

// ─── Loading ───

const (
	rootKey   = "ngtrace"
	envPrefix = "NGTRACE"
)

// configRoot is the top-level wrapper matching the file structure `ngtrace: ...`.
type configRoot struct {
	Ngtrace Config `mapstructure:"ngtrace"`
}

// Load loads configuration from path. An empty path yields the defaults,
// still subject to NGTRACE_* environment overrides (e.g. NGTRACE_LOG_LEVEL).
// Any format viper reads is accepted.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: failed to read config file: %v", core.ErrConfigInvalid, err)
		}
	}

	// The "ngtrace." key prefix maps to NGTRACE_ through the key replacer.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %v", core.ErrConfigInvalid, err)
	}
	cfg := root.Ngtrace

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrConfigInvalid, err)
	}
	return &cfg, nil
}

// Default returns the validated default configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		panic(err)
	}
	cfg := root.Ngtrace
	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		panic(err)
	}
	return &cfg
}

// setDefaults sets default values. All keys carry the "ngtrace." prefix.
func setDefaults(v *viper.Viper) {
	key := func(k string) string { return rootKey + "." + k }

	// Log defaults
	v.SetDefault(key("log.level"), log.DefaultLevel)
	v.SetDefault(key("log.pattern"), log.DefaultPattern)
	v.SetDefault(key("log.time"), log.DefaultTime)
	v.SetDefault(key("log.file.enabled"), false)
	v.SetDefault(key("log.file.path"), "ngtrace.log")
	v.SetDefault(key("log.file.max_size_mb"), 100)
	v.SetDefault(key("log.file.max_backups"), 5)
	v.SetDefault(key("log.file.max_age_days"), 30)
	v.SetDefault(key("log.file.compress"), true)

	// Relevance defaults
	v.SetDefault(key("relevance.markers"), []string{"ng -notify", "ng -p", "ng -d", "ng -s"})
	v.SetDefault(key("relevance.recover_framing"), true)
	v.SetDefault(key("relevance.framing_anchor"), string(relevance.AnchorFirstCommand))

	// Capture defaults
	v.SetDefault(key("capture.ports"), []uint16{})

	// Binding defaults
	v.SetDefault(key("binding.command"), "m")
	v.SetDefault(key("binding.vector_tag"), 4)
	v.SetDefault(key("binding.field"), 2)

	// Sequence defaults
	v.SetDefault(key("sequence.gap_ratio"), 0.1)

	// Metrics defaults
	v.SetDefault(key("metrics.enabled"), false)
	v.SetDefault(key("metrics.listen"), ":9091")
	v.SetDefault(key("metrics.path"), "/metrics")

	// Reporter defaults
	v.SetDefault(key("reporters"), []map[string]any{{"name": "jsonl"}})
}

// ValidateAndApplyDefaults validates the configuration and fills runtime
// defaults that viper cannot express.
func (cfg *Config) ValidateAndApplyDefaults() error {
	// ── Log validation ──
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be trace/debug/info/warn/error)", cfg.Log.Level)
	}
	if cfg.Log.File.Enabled && cfg.Log.File.Filename == "" {
		return fmt.Errorf("log.file.path is required when log.file.enabled=true")
	}

	// ── Relevance validation ──
	if len(cfg.Relevance.Markers) == 0 {
		return fmt.Errorf("relevance.markers must not be empty")
	}
	for i, m := range cfg.Relevance.Markers {
		if m == "" {
			return fmt.Errorf("relevance.markers[%d] is empty", i)
		}
	}

	anchor, err := relevance.ParseAnchor(cfg.Relevance.FramingAnchor)
	if err != nil {
		return fmt.Errorf("relevance.framing_anchor: %w", err)
	}
	cfg.Relevance.FramingAnchor = string(anchor)

	// ── Capture validation ──
	if len(cfg.Capture.Ports) > utils.MaxFilterPorts {
		return fmt.Errorf("capture.ports: %d ports, at most %d supported", len(cfg.Capture.Ports), utils.MaxFilterPorts)
	}
	for _, p := range cfg.Capture.Ports {
		if p == 0 {
			return fmt.Errorf("capture.ports: port 0 is not valid")
		}
	}

	// ── Binding validation ──
	if cfg.Binding.Command == "" {
		return fmt.Errorf("binding.command must not be empty")
	}
	if cfg.Binding.Field < 0 {
		return fmt.Errorf("binding.field must be >= 0, got %d", cfg.Binding.Field)
	}

	// ── Sequence validation ──
	if cfg.Sequence.GapRatio <= 0 {
		return fmt.Errorf("sequence.gap_ratio must be > 0, got %v", cfg.Sequence.GapRatio)
	}

	// ── Metrics ──
	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		return fmt.Errorf("metrics.listen is required when metrics.enabled=true")
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// ── Reporters ──
	for i, r := range cfg.Reporters {
		if r.Name == "" {
			return fmt.Errorf("reporters[%d].name is required", i)
		}
	}
	return nil
}
