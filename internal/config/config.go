// Package config loads the optional per-project configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Benny93/axon-context/internal/engine"
	"github.com/Benny93/axon-context/internal/logging"
	"github.com/Benny93/axon-context/internal/vcs"
)

// FileName is the config file name inside the snapshot directory.
const FileName = "context.yaml"

// Config represents .axon/context.yaml
type Config struct {
	// Workers bounds concurrent file analyses; 0 means one per CPU.
	Workers int `yaml:"workers"`

	// CoChangeWindow is the number of recent commits mined per file.
	CoChangeWindow int `yaml:"co_change_window"`

	// VCS selects the history backend: git, go-git or none.
	VCS string `yaml:"vcs"`

	// Ignore holds extra gitignore-style patterns.
	Ignore []string `yaml:"ignore"`

	Log LogConfig `yaml:"log"`

	// Snapshot makes analyze save a snapshot without --save.
	Snapshot bool `yaml:"snapshot"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		CoChangeWindow: vcs.DefaultWindow,
		VCS:            string(vcs.KindGit),
		Log: LogConfig{
			Level:  "info",
			Format: string(logging.FormatText),
		},
	}
}

// Path returns the default config location for root.
func Path(root string) string {
	return filepath.Join(root, ".axon", FileName)
}

// Load reads the YAML file at path over the defaults. A missing file yields
// the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.CoChangeWindow <= 0 {
		return fmt.Errorf("co_change_window must be > 0, got %d", c.CoChangeWindow)
	}
	switch vcs.Kind(c.VCS) {
	case vcs.KindGit, vcs.KindGoGit, vcs.KindNone:
	default:
		return fmt.Errorf("vcs must be one of git, go-git, none; got %q", c.VCS)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch logging.Format(c.Log.Format) {
	case logging.FormatText, logging.FormatJSON, "":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// EngineOptions translates the configuration into engine options.
func (c *Config) EngineOptions(logger *slog.Logger) []engine.Option {
	return []engine.Option{
		engine.WithWorkers(c.Workers),
		engine.WithCoChangeWindow(c.CoChangeWindow),
		engine.WithVCSKind(vcs.Kind(c.VCS)),
		engine.WithIgnore(c.Ignore...),
		engine.WithLogger(logger),
	}
}
