// Package config loads and saves the TOML project file that parameterizes a
// regpressure run: which target to model, which boundary variant to use by
// default, and how many regions the concurrent runner may track at once.
// Adapted from the teacher's internal/pkg/config.go package-manifest loader,
// same library, same hand-written-comments-on-save shape.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the conventional name of a regpressure project file.
const FileName = "regpressure.toml"

// Config is the on-disk shape of a project file.
type Config struct {
	Target  TargetConfig  `toml:"target"`
	Tracker TrackerConfig `toml:"tracker"`
}

// TargetConfig selects the register-class database the tracker runs
// against. Only "x86_64" exists today; the field exists so a second target
// can be added without breaking the file format.
type TargetConfig struct {
	// Name identifies the regclass.TargetInfo implementation to use.
	Name string `toml:"name"`
}

// TrackerConfig controls the tracker's default behavior and the runner's
// concurrency.
type TrackerConfig struct {
	// Variant is "region" or "interval", selecting the boundary
	// representation new trackers use when none is specified explicitly.
	Variant string `toml:"variant"`

	// MaxConcurrentRegions caps how many regions internal/runner will track
	// at once; zero means "use runtime.NumCPU()".
	MaxConcurrentRegions int `toml:"max_concurrent_regions"`
}

// Load reads and parses a project file from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// Save writes c to path as a commented TOML file.
func (c *Config) Save(path string) error {
	content := generateConfigWithComments(c)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func generateConfigWithComments(c *Config) string {
	var sb strings.Builder

	sb.WriteString("[target]\n")
	sb.WriteString("# which register-class database to track pressure against\n")
	sb.WriteString(fmt.Sprintf("name = %q\n\n", c.Target.Name))

	sb.WriteString("[tracker]\n")
	sb.WriteString("# \"region\" (no oracle needed) or \"interval\" (precise slot indices)\n")
	sb.WriteString(fmt.Sprintf("variant = %q\n\n", c.Tracker.Variant))
	sb.WriteString("# 0 means use every available CPU\n")
	sb.WriteString(fmt.Sprintf("max_concurrent_regions = %d\n", c.Tracker.MaxConcurrentRegions))

	return sb.String()
}

// Default returns the project file pressuretrace init would write: the
// x86_64 target, region variant (the cheaper default with no oracle
// dependency), and one region per CPU.
func Default() *Config {
	return &Config{
		Target: TargetConfig{Name: "x86_64"},
		Tracker: TrackerConfig{
			Variant:              "region",
			MaxConcurrentRegions: 0,
		},
	}
}
