// Package config reads the optional chocopyc.yaml file that sets compiler
// defaults. Command line flags override what the file says.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Stages after which the compiler may stop.
const (
	StageParse   = "parse"
	StageCheck   = "check"
	StageCodegen = "codegen"
)

// Color modes for diagnostics.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds the compiler settings.
type Config struct {
	// Output is the assembly file to write. Empty means standard output.
	Output string `yaml:"output,omitempty"`

	// StopAfter is the last stage to run: parse, check or codegen.
	StopAfter string `yaml:"stop_after,omitempty"`

	// EmitComments annotates the generated assembly.
	EmitComments bool `yaml:"emit_comments,omitempty"`

	// Color controls coloured diagnostics: auto, always or never.
	Color string `yaml:"color,omitempty"`

	// Verbose logs every compiler stage.
	Verbose bool `yaml:"verbose,omitempty"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and validates the config file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses config content. The path argument is used only for
// error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func (cfg *Config) setDefaults() {
	if cfg.StopAfter == "" {
		cfg.StopAfter = StageCodegen
	}
	if cfg.Color == "" {
		cfg.Color = ColorAuto
	}
}

// Validate rejects unknown stage and color values.
func (cfg *Config) Validate() error {
	switch cfg.StopAfter {
	case StageParse, StageCheck, StageCodegen:
	default:
		return fmt.Errorf("unknown stop_after %q, want %s, %s or %s", cfg.StopAfter, StageParse, StageCheck, StageCodegen)
	}
	switch cfg.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("unknown color %q, want %s, %s or %s", cfg.Color, ColorAuto, ColorAlways, ColorNever)
	}
	return nil
}

// Runs reports whether stage runs under cfg.
func (cfg *Config) Runs(stage string) bool {
	order := map[string]int{StageParse: 0, StageCheck: 1, StageCodegen: 2}
	return order[stage] <= order[cfg.StopAfter]
}
