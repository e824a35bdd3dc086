package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all fgdefs configuration.
type Config struct {
	Definitions DefinitionsConfig `yaml:"definitions"`
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Archive     ArchiveConfig     `yaml:"archive"`
}

// DefinitionsConfig locates the functional group definitions file.
type DefinitionsConfig struct {
	InputDir string `yaml:"input_dir"`
	Subdir   string `yaml:"subdir"`
	File     string `yaml:"file"`
	// Path, when set, wins over InputDir/Subdir/File.
	Path      string `yaml:"path,omitempty"`
	Delimiter string `yaml:"delimiter"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// ArchiveConfig configures provenance copies of the definitions file.
type ArchiveConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Driver     string   `yaml:"driver"` // fs, s3, memory
	Root       string   `yaml:"root"`
	LedgerPath string   `yaml:"ledger_path"`
	S3         S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Definitions: DefinitionsConfig{
			InputDir:  "input",
			Subdir:    "Ecological Definition Files",
			File:      "FunctionalGroupDefinitions.csv",
			Delimiter: ",",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: "10s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Archive: ArchiveConfig{
			Driver: "fs",
			Root:   "output",
			S3:     S3Config{Region: "us-east-1"},
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults when the
// file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if p := os.Getenv("FGDEFS_DEFINITIONS_FILE"); p != "" {
		c.Definitions.Path = p
	}
	if addr := os.Getenv("FGDEFS_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if lvl := os.Getenv("FGDEFS_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
	if d := os.Getenv("FGDEFS_ARCHIVE_DRIVER"); d != "" {
		c.Archive.Driver = d
	}
	if b := os.Getenv("FGDEFS_ARCHIVE_S3_BUCKET"); b != "" {
		c.Archive.S3.Bucket = b
	}
	if e := os.Getenv("FGDEFS_ARCHIVE_S3_ENDPOINT"); e != "" {
		c.Archive.S3.Endpoint = e
	}
}

// DefinitionsPath resolves the definitions file location.
func (c *Config) DefinitionsPath() string {
	if c.Definitions.Path != "" {
		return c.Definitions.Path
	}
	return filepath.Join(c.Definitions.InputDir, c.Definitions.Subdir, c.Definitions.File)
}

// Comma returns the configured field delimiter, ',' when unset.
func (c *Config) Comma() rune {
	for _, r := range c.Definitions.Delimiter {
		return r
	}
	return ','
}

// GetShutdownTimeout returns the shutdown timeout as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

var (
	ValidLogLevels      = []string{"debug", "info", "warn", "error"}
	ValidLogFormats     = []string{"json", "console"}
	ValidArchiveDrivers = []string{"fs", "s3", "memory"}
)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Definitions.Path == "" && c.Definitions.File == "" {
		return fmt.Errorf("definitions file not configured")
	}
	if len([]rune(c.Definitions.Delimiter)) > 1 {
		return fmt.Errorf("invalid delimiter %q: must be a single character", c.Definitions.Delimiter)
	}
	if !contains(ValidLogLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}
	if !contains(ValidLogFormats, c.Logging.Format) {
		return fmt.Errorf("invalid log format: %s (valid: %v)", c.Logging.Format, ValidLogFormats)
	}
	if !contains(ValidArchiveDrivers, c.Archive.Driver) {
		return fmt.Errorf("invalid archive driver: %s (valid: %v)", c.Archive.Driver, ValidArchiveDrivers)
	}
	if c.Archive.Driver == "s3" && c.Archive.S3.Bucket == "" {
		return fmt.Errorf("archive driver s3 requires archive.s3.bucket")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
