// Package config holds the settings of the contour pipeline: which external
// tools to run, how to name the artifacts in the working directory, and how
// to log.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Adapter modes for the first pipeline stage.
const (
	AdapterExternal = "external"
	AdapterNative   = "native"
)

// Config holds all pipeline configuration.
type Config struct {
	Tools      ToolsConfig       `yaml:"tools"`
	Aliases    map[string]string `yaml:"display_aliases"`
	Artifacts  ArtifactsConfig   `yaml:"artifacts"`
	Adapter    string            `yaml:"adapter"` // external, native
	Rasterizer RasterizerConfig  `yaml:"rasterizer"`
	Logging    LoggingConfig     `yaml:"logging"`
}

// ToolsConfig names the external executables. Names without a path
// separator are resolved through PATH.
type ToolsConfig struct {
	Converter  string `yaml:"converter"`
	Extractor  string `yaml:"extractor"`
	Simplifier string `yaml:"simplifier"`
	Rasterizer string `yaml:"rasterizer"`
}

// ArtifactsConfig names the files of a run, relative to its working directory.
type ArtifactsConfig struct {
	Input          string `yaml:"input"`
	Grayscale      string `yaml:"grayscale"`
	Contours       string `yaml:"contours"`
	Diagnostics    string `yaml:"diagnostics"`
	FailureNotice  string `yaml:"failure_notice"`
	SimplifierText string `yaml:"simplifier_text"`
	SimplifierEPS  string `yaml:"simplifier_eps"`
	Simplified     string `yaml:"simplified"`
	Output         string `yaml:"output"`
	Overlay        string `yaml:"overlay"`
	Transcript     string `yaml:"transcript"`
}

// RasterizerConfig holds the fixed rendering options of the last stage.
type RasterizerConfig struct {
	Device     string `yaml:"device"`
	Resolution int    `yaml:"resolution"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the configuration matching the reference demo layout.
func Default() *Config {
	return &Config{
		Tools: ToolsConfig{
			Converter:  "convert.sh",
			Extractor:  "pgm2freeman",
			Simplifier: "frechetSimplification",
			Rasterizer: "gs",
		},
		Aliases: map[string]string{
			"convert.sh": "convert",
		},
		Artifacts: ArtifactsConfig{
			Input:          "input_0.png",
			Grayscale:      "inputNG.pgm",
			Contours:       "inputPolygon.txt",
			Diagnostics:    "algoLog.txt",
			FailureNotice:  "demo_failure.txt",
			SimplifierText: "output.txt",
			SimplifierEPS:  "output.eps",
			Simplified:     "outputPolygon.txt",
			Output:         "output.png",
			Overlay:        "overlay.png",
			Transcript:     "commands.txt",
		},
		Adapter: AdapterExternal,
		Rasterizer: RasterizerConfig{
			Device:     "png16m",
			Resolution: 120,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file on top of Default. A missing
// file yields the defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies CONTOUR_PIPELINE_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CONTOUR_PIPELINE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CONTOUR_PIPELINE_ADAPTER"); v != "" {
		c.Adapter = v
	}
	if v := os.Getenv("CONTOUR_PIPELINE_CONVERTER"); v != "" {
		c.Tools.Converter = v
	}
	if v := os.Getenv("CONTOUR_PIPELINE_EXTRACTOR"); v != "" {
		c.Tools.Extractor = v
	}
	if v := os.Getenv("CONTOUR_PIPELINE_SIMPLIFIER"); v != "" {
		c.Tools.Simplifier = v
	}
	if v := os.Getenv("CONTOUR_PIPELINE_RASTERIZER"); v != "" {
		c.Tools.Rasterizer = v
	}
	if v := os.Getenv("CONTOUR_PIPELINE_RESOLUTION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Rasterizer.Resolution = n
		}
	}
}

// Validate checks that every setting the pipeline depends on is present.
func (c *Config) Validate() error {
	switch c.Adapter {
	case AdapterExternal, AdapterNative:
	default:
		return fmt.Errorf("invalid adapter %q: must be %q or %q", c.Adapter, AdapterExternal, AdapterNative)
	}

	tools := map[string]string{
		"extractor":  c.Tools.Extractor,
		"simplifier": c.Tools.Simplifier,
		"rasterizer": c.Tools.Rasterizer,
	}
	if c.Adapter == AdapterExternal {
		tools["converter"] = c.Tools.Converter
	}
	for name, bin := range tools {
		if bin == "" {
			return fmt.Errorf("tools.%s is required", name)
		}
	}

	a := c.Artifacts
	for name, file := range map[string]string{
		"input":           a.Input,
		"grayscale":       a.Grayscale,
		"contours":        a.Contours,
		"diagnostics":     a.Diagnostics,
		"failure_notice":  a.FailureNotice,
		"simplifier_text": a.SimplifierText,
		"simplifier_eps":  a.SimplifierEPS,
		"simplified":      a.Simplified,
		"output":          a.Output,
		"overlay":         a.Overlay,
		"transcript":      a.Transcript,
	} {
		if file == "" {
			return fmt.Errorf("artifacts.%s is required", name)
		}
	}

	if c.Rasterizer.Device == "" {
		return fmt.Errorf("rasterizer.device is required")
	}
	if c.Rasterizer.Resolution <= 0 {
		return fmt.Errorf("rasterizer.resolution must be positive, got %d", c.Rasterizer.Resolution)
	}
	return nil
}
