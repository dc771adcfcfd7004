package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testTemplate = `#!/bin/sh
# {{.JobName}} ncpus={{.NCPUs}}
./MOM_run.sh {{.Platform}} {{.ModelType}} {{.Experiment}} {{.NPEsFlag}}
`

const stubRun = `#!/bin/sh
echo "running $2 on $3"
if [ "$3" = "om3_core1" ]; then
  echo "FATAL: blew up" >&2
  exit 9
fi
echo "NOTE: Natural end-of-script for experiment $3 with model $2"
`

// setupRoot lays out a repository root with stub scripts and seeded inputs
// and returns the root and a config file pointing at it.
func setupRoot(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"exp", "data/archives", "work/om3_core3", "work/om3_core1"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	files := map[string]string{
		"exp/MOM_run.sh":                       stubRun,
		"exp/MOM_compile.csh":                  "#!/bin/sh\necho \"compile $*\"\n[ \"$4\" = \"broken\" ] && exit 3\nexit 0\n",
		"data/get_exp_data.py":                 "#!/bin/sh\necho \"no such archive $1\"\nexit 4\n",
		"data/archives/om3_core3.input.tar.gz": "x",
		"data/archives/om3_core1.input.tar.gz": "x",
		"run.sh.tmpl":                          testTemplate,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	cfgPath := filepath.Join(root, "momtest.yaml")
	cfg := "root: " + root + "\nplatform: test\ntemplate_path: run.sh.tmpl\npoll_interval: 10ms\nidle_limit: 2\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return root, cfgPath
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))

	err := root.Execute()
	return buf.String(), err
}

func TestListCommand(t *testing.T) {
	out, err := runCLI(t, "--root", t.TempDir(), "--platform", "nci", "list")
	if err != nil {
		t.Fatalf("list: %v\n%s", err, out)
	}
	for _, want := range []string{"SCENARIO", "om3_core3", "global_0.25_degree_NYF", "1900Gb", "ESM2M_pi-control_C2", "disabled", "01:00:00"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderCommand(t *testing.T) {
	out, err := runCLI(t, "--root", t.TempDir(), "--platform", "nci", "render", "global_0.25_degree_NYF")
	if err != nil {
		t.Fatalf("render: %v\n%s", err, out)
	}
	for _, want := range []string{
		"#PBS -N CI_global_0.25_",
		"#PBS -l ncpus=960",
		"#PBS -W block=true",
		"./MOM_run.csh --platform nci --type MOM_SIS --experiment global_0.25_degree_NYF --npes 960",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("render output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderUnknownScenario(t *testing.T) {
	_, err := runCLI(t, "--root", t.TempDir(), "--platform", "nci", "render", "nope")
	if err == nil || !strings.Contains(err.Error(), `unknown scenario "nope"`) {
		t.Fatalf("err = %v", err)
	}
}

func TestUnknownPlatform(t *testing.T) {
	_, err := runCLI(t, "--root", t.TempDir(), "--platform", "pawsey", "list")
	if err == nil || !strings.Contains(err.Error(), "pawsey") || !strings.Contains(err.Error(), "known: nci") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunCommandPassThenHistory(t *testing.T) {
	_, cfg := setupRoot(t)

	out, err := runCLI(t, "--config", cfg, "run", "om3_core3")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	for _, want := range []string{"=== om3_core3 (MOM_SIS/om3_core3)", "running MOM_SIS on om3_core3", "--- PASS om3_core3", "1 passed, 0 failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("run output missing %q:\n%s", want, out)
		}
	}

	out, err = runCLI(t, "--config", cfg, "history")
	if err != nil {
		t.Fatalf("history: %v\n%s", err, out)
	}
	if !strings.Contains(out, "om3_core3") || !strings.Contains(out, "PASSED") || !strings.Contains(out, "run_") {
		t.Errorf("history output:\n%s", out)
	}
}

func TestRunCommandFailureExitCode(t *testing.T) {
	_, cfg := setupRoot(t)

	out, err := runCLI(t, "--config", cfg, "run", "om3_core3", "om3_core1")
	if err == nil {
		t.Fatalf("expected failure\n%s", out)
	}
	if code := ExitCode(err); code != 1 {
		t.Errorf("ExitCode = %d, want 1", code)
	}
	for _, want := range []string{"--- PASS om3_core3", "--- FAIL om3_core1", "FATAL: blew up", "1 passed, 1 failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("run output missing %q:\n%s", want, out)
		}
	}

	out, err = runCLI(t, "--config", cfg, "history", "--status", "FAILED")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "om3_core1") || strings.Contains(out, "om3_core3") {
		t.Errorf("history --status FAILED:\n%s", out)
	}
}

func TestRunCommandArgs(t *testing.T) {
	_, cfg := setupRoot(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no scenarios", []string{"run"}, "no scenarios given"},
		{"names and all", []string{"run", "--all", "om3_core3"}, "do not also name scenarios"},
		{"unknown mode", []string{"run", "--mode", "slurm", "om3_core3"}, `unknown exec mode "slurm"`},
		{"mode conflicts with qsub", []string{"run", "--mode", "direct", "--qsub", "om3_core3"}, "--qsub conflicts with --mode direct"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, append([]string{"--config", cfg}, tt.args...)...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestRunCommandModeFlag(t *testing.T) {
	_, cfg := setupRoot(t)

	out, err := runCLI(t, "--config", cfg, "run", "--mode", "direct", "om3_core3")
	if err != nil {
		t.Fatalf("run --mode direct: %v\n%s", err, out)
	}
	if !strings.Contains(out, "--- PASS om3_core3") {
		t.Errorf("run output:\n%s", out)
	}
}

func TestBuildCommand(t *testing.T) {
	_, cfg := setupRoot(t)

	out, err := runCLI(t, "--config", cfg, "build", "MOM_SIS")
	if err != nil {
		t.Fatalf("build: %v\n%s", err, out)
	}
	if !strings.Contains(out, "compile --platform test --type MOM_SIS --unit_testing") {
		t.Errorf("build output:\n%s", out)
	}

	out, err = runCLI(t, "--config", cfg, "build", "--unit-testing=false", "broken")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 3 {
		t.Fatalf("err = %v, want exit code 3\n%s", err, out)
	}
	if strings.Contains(out, "--unit_testing") {
		t.Errorf("unit testing flag passed with --unit-testing=false:\n%s", out)
	}
}

func TestFetchCommand(t *testing.T) {
	root, cfg := setupRoot(t)

	out, err := runCLI(t, "--config", cfg, "fetch", "om3_core3")
	if err != nil {
		t.Fatalf("fetch: %v\n%s", err, out)
	}
	if _, err := os.Stat(filepath.Join(root, "work", "om3_core3.input.tar.gz")); err != nil {
		t.Errorf("archive not copied into work dir: %v", err)
	}

	out, err = runCLI(t, "--config", cfg, "fetch", "atlantic1")
	if err == nil {
		t.Fatalf("expected download failure\n%s", out)
	}
	if code := ExitCode(err); code != 4 {
		t.Errorf("ExitCode = %d, want downloader's 4", code)
	}
	if !strings.Contains(out, "no such archive atlantic1.input.tar.gz") {
		t.Errorf("downloader output not shown:\n%s", out)
	}
}
