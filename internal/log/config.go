package log

const (
	DefaultPattern = "%time [%level] %field %msg"
	DefaultTime    = "2006-01-02 15:04:05.000"
	DefaultLevel   = "info"
)

// LoggerConfig configures the process logger.
type LoggerConfig struct {
	Level   string          `mapstructure:"level"`
	Pattern string          `mapstructure:"pattern"`
	Time    string          `mapstructure:"time"`
	File    FileAppenderOpt `mapstructure:"file"`
}

// DefaultConfig returns an info-level console configuration.
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:   DefaultLevel,
		Pattern: DefaultPattern,
		Time:    DefaultTime,
	}
}
