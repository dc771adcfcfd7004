package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// PlatformEnvVar names the environment variable the CI system sets to the
// node label. The CLI uses it as the default for --platform.
const PlatformEnvVar = "label"

// DefaultPlatform is used when neither a flag nor PlatformEnvVar selects one.
const DefaultPlatform = "nci"

// HarnessConfig holds configuration for the model test harness.
// Directory fields left empty are derived from RootDir by Resolve.
type HarnessConfig struct {
	RootDir    string `yaml:"root"`        // Repository root holding exp/, data/ and work/
	ExpDir     string `yaml:"exp_dir"`     // Run/compile scripts live here (default <root>/exp)
	DataDir    string `yaml:"data_dir"`    // Downloader script location (default <root>/data)
	ArchiveDir string `yaml:"archive_dir"` // Input archives (default <data>/archives)
	WorkDir    string `yaml:"work_dir"`    // Extracted inputs and run outputs (default <root>/work)

	Platform     string `yaml:"platform"`      // Run-script profile name
	TemplatePath string `yaml:"template_path"` // Optional run-script template overriding the profile's
	ScenarioFile string `yaml:"scenario_file"` // Optional YAML scenarios merged over the built-in table

	Downloader string `yaml:"downloader"` // Input fetch script (default <data>/get_exp_data.py)
	Tar        string `yaml:"tar"`        // Archive extraction utility (default /bin/tar)
	Qsub       string `yaml:"qsub"`       // Batch submission command (default qsub)

	PollInterval time.Duration `yaml:"poll_interval"` // Sleep between output drain polls
	IdleLimit    int           `yaml:"idle_limit"`    // Drain stops once idle polls exceed this

	DBPath    string `yaml:"db_path"`    // Run history database ("" disables, ":memory:" for testing)
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text, json
}

// DefaultHarnessConfig returns defaults rooted at root.
func DefaultHarnessConfig(root string) HarnessConfig {
	return HarnessConfig{
		RootDir:      root,
		Platform:     DefaultPlatform,
		Tar:          "/bin/tar",
		Qsub:         "qsub",
		PollInterval: 2 * time.Second,
		IdleLimit:    10,
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// LoadFile decodes a YAML config file over cfg. Fields absent from the
// file keep their current values.
func LoadFile(path string, cfg *HarnessConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Resolve fills derived directories and makes relative paths absolute
// against RootDir.
func (c *HarnessConfig) Resolve() error {
	if c.RootDir == "" {
		return errors.New("config: root directory is required")
	}
	root, err := filepath.Abs(c.RootDir)
	if err != nil {
		return fmt.Errorf("config: resolve root: %w", err)
	}
	c.RootDir = root

	c.ExpDir = c.under(c.ExpDir, filepath.Join(root, "exp"))
	c.DataDir = c.under(c.DataDir, filepath.Join(root, "data"))
	c.ArchiveDir = c.under(c.ArchiveDir, filepath.Join(c.DataDir, "archives"))
	c.WorkDir = c.under(c.WorkDir, filepath.Join(root, "work"))
	c.Downloader = c.under(c.Downloader, filepath.Join(c.DataDir, "get_exp_data.py"))
	if c.TemplatePath != "" {
		c.TemplatePath = c.under(c.TemplatePath, "")
	}
	if c.ScenarioFile != "" {
		c.ScenarioFile = c.under(c.ScenarioFile, "")
	}
	if c.DBPath != "" && c.DBPath != ":memory:" {
		c.DBPath = c.under(c.DBPath, "")
	}
	return c.Validate()
}

// under returns p made absolute against RootDir, or def when p is empty.
func (c *HarnessConfig) under(p, def string) string {
	if p == "" {
		return def
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.RootDir, p)
}

// Validate checks settings that have no usable fallback.
func (c *HarnessConfig) Validate() error {
	if c.Platform == "" {
		return errors.New("config: platform is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("config: poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.IdleLimit < 0 {
		return fmt.Errorf("config: idle_limit must not be negative, got %d", c.IdleLimit)
	}
	if c.Qsub == "" || c.Tar == "" {
		return errors.New("config: qsub and tar commands are required")
	}
	return nil
}
