package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultHarnessConfig_Resolve(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultHarnessConfig(root)
	if err := cfg.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	tests := []struct {
		name, got, want string
	}{
		{"ExpDir", cfg.ExpDir, filepath.Join(root, "exp")},
		{"DataDir", cfg.DataDir, filepath.Join(root, "data")},
		{"ArchiveDir", cfg.ArchiveDir, filepath.Join(root, "data", "archives")},
		{"WorkDir", cfg.WorkDir, filepath.Join(root, "work")},
		{"Downloader", cfg.Downloader, filepath.Join(root, "data", "get_exp_data.py")},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.PollInterval)
	}
	if cfg.IdleLimit != 10 {
		t.Errorf("IdleLimit = %d, want 10", cfg.IdleLimit)
	}
	if cfg.Platform != DefaultPlatform {
		t.Errorf("Platform = %q, want %q", cfg.Platform, DefaultPlatform)
	}
}

func TestResolve_RelativePaths(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultHarnessConfig(root)
	cfg.WorkDir = "scratch/work"
	cfg.DBPath = "history.db"
	cfg.ScenarioFile = "scenarios.yaml"
	if err := cfg.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.WorkDir != filepath.Join(root, "scratch", "work") {
		t.Errorf("WorkDir = %q", cfg.WorkDir)
	}
	if cfg.DBPath != filepath.Join(root, "history.db") {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.ScenarioFile != filepath.Join(root, "scenarios.yaml") {
		t.Errorf("ScenarioFile = %q", cfg.ScenarioFile)
	}
}

func TestResolve_MemoryDB(t *testing.T) {
	cfg := DefaultHarnessConfig(t.TempDir())
	cfg.DBPath = ":memory:"
	if err := cfg.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.DBPath != ":memory:" {
		t.Errorf("DBPath = %q, want :memory:", cfg.DBPath)
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*HarnessConfig)
		want   string
	}{
		{"no root", func(c *HarnessConfig) { c.RootDir = "" }, "root directory"},
		{"no platform", func(c *HarnessConfig) { c.Platform = "" }, "platform"},
		{"zero poll", func(c *HarnessConfig) { c.PollInterval = 0 }, "poll_interval"},
		{"negative idle", func(c *HarnessConfig) { c.IdleLimit = -1 }, "idle_limit"},
		{"no qsub", func(c *HarnessConfig) { c.Qsub = "" }, "qsub"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultHarnessConfig(t.TempDir())
			tt.mutate(&cfg)
			err := cfg.Resolve()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "momtest.yaml")
	content := `platform: gadi
poll_interval: 500ms
idle_limit: 4
qsub: /opt/pbs/bin/qsub
log_format: json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultHarnessConfig(dir)
	if err := LoadFile(path, &cfg); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Platform != "gadi" {
		t.Errorf("Platform = %q, want gadi", cfg.Platform)
	}
	if cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval = %v, want 500ms", cfg.PollInterval)
	}
	if cfg.IdleLimit != 4 {
		t.Errorf("IdleLimit = %d, want 4", cfg.IdleLimit)
	}
	if cfg.Qsub != "/opt/pbs/bin/qsub" {
		t.Errorf("Qsub = %q", cfg.Qsub)
	}
	if cfg.Tar != "/bin/tar" {
		t.Errorf("Tar = %q, want default kept", cfg.Tar)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	cfg := DefaultHarnessConfig(t.TempDir())
	if err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err == nil {
		t.Fatal("expected error for missing file")
	}
}
