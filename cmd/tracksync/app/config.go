package app

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultInputFile = "data.json"

// Config represents the pipeline configuration. The input path comes
// from the CLI; everything else can be set in a YAML file.
type Config struct {
	// InputPath is the capture file to process, set from the positional
	// CLI argument.
	InputPath string `yaml:"-"`

	Settings Settings      `yaml:"settings"`
	Output   OutputConfig  `yaml:"output"`
	Archive  ArchiveConfig `yaml:"archive"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// OutputConfig controls where the JSON artifacts are written
type OutputConfig struct {
	// Directory receives the artifacts; empty means the input file's directory.
	Directory string `yaml:"directory"`
}

// ArchiveConfig controls the SQLite run archive
type ArchiveConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DataDirectory string `yaml:"dataDirectory"`
}

// NewConfig returns a configuration with defaults applied.
func NewConfig() *Config {
	return &Config{
		InputPath: defaultInputFile,
		Settings:  Settings{LogLevel: "info"},
		Archive:   ArchiveConfig{Enabled: true},
	}
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	p, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration file: %w", err)
	}

	c := NewConfig()
	if err = yaml.Unmarshal(p, c); err != nil {
		return nil, fmt.Errorf("parsing configuration file: %w", err)
	}

	var level slog.Level
	if err = level.UnmarshalText([]byte(c.Settings.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level '%s': %w", c.Settings.LogLevel, err)
	}

	return c, nil
}

// NewConfigFromCLI builds the configuration from command line flags,
// layered on top of an optional YAML configuration file.
func NewConfigFromCLI() (*Config, error) {
	var configPath, outputDir string
	var noArchive bool
	flag.StringVar(&configPath, "c", "", "Path to the configuration file")
	flag.StringVar(&outputDir, "o", "", "Directory for the JSON artifacts (default: input file directory)")
	flag.BoolVar(&noArchive, "no-archive", false, "Disable the SQLite run archive")
	flag.Parse()

	c := NewConfig()
	if configPath != "" {
		var err error
		if c, err = LoadConfig(configPath); err != nil {
			return nil, err
		}
	}

	if outputDir != "" {
		c.Output.Directory = outputDir
	}
	if noArchive {
		c.Archive.Enabled = false
	}

	switch flag.NArg() {
	case 0:
		c.InputPath = defaultInputFile
	case 1:
		c.InputPath = flag.Arg(0)
	default:
		flag.Usage()
		return nil, fmt.Errorf("expected at most one input file, got %d arguments", flag.NArg())
	}

	return c, nil
}

// SlogLevel returns the configured log level. Unknown values fall back
// to info; LoadConfig rejects them up front.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Settings.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
