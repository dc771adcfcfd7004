// Package runscript renders a platform's batch run script for one model run.
package runscript

import (
	"fmt"
	"os"
	"strings"

	"github.com/me/momtest/internal/platform"
	"github.com/me/momtest/pkg/model"
)

// MaxJobNameLen is the PBS limit on the -N job name.
const MaxJobNameLen = 15

// JobNamePrefix marks jobs submitted by the harness.
const JobNamePrefix = "CI_"

// JobName returns the batch job name for an experiment, truncated to
// MaxJobNameLen.
func JobName(exp string) string {
	name := JobNamePrefix + exp
	if len(name) > MaxJobNameLen {
		name = name[:MaxJobNameLen]
	}
	return name
}

// Params are the values substituted into a run script template.
// Substitution is verbatim: values must not contain characters that break
// the script.
type Params struct {
	Platform     string
	Walltime     string
	NCPUs        string
	Mem          string
	StdoutFile   string
	StderrFile   string
	JobName      string
	ModelType    string
	Experiment   string
	NPEsFlag     string // "--npes N" or empty
	ValgrindFlag string // "--valgrind" or empty
}

// NewParams builds template parameters for a run. Resource fields left
// empty in res are taken from the profile defaults.
func NewParams(profile platform.Profile, modelType, exp string, res model.Resources, stdoutFile, stderrFile string) Params {
	res = res.WithDefaults(profile.Defaults)

	p := Params{
		Platform:   profile.Name,
		Walltime:   res.Walltime,
		NCPUs:      res.NCPUs,
		Mem:        res.Mem,
		StdoutFile: stdoutFile,
		StderrFile: stderrFile,
		JobName:    JobName(exp),
		ModelType:  modelType,
		Experiment: exp,
	}
	if res.NPEs != "" {
		p.NPEsFlag = "--npes " + res.NPEs
	}
	if res.Valgrind {
		p.ValgrindFlag = "--valgrind"
	}
	return p
}

// Render executes the profile template with p.
func Render(profile platform.Profile, p Params) (string, error) {
	tmpl, err := profile.Parse()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, p); err != nil {
		return "", fmt.Errorf("render %s run script: %w", profile.Name, err)
	}
	return sb.String(), nil
}

// WriteTemp writes script to a uniquely named file in dir and makes it
// executable. It returns the file path.
func WriteTemp(dir, script string) (string, error) {
	f, err := os.CreateTemp(dir, "run-*.sh")
	if err != nil {
		return "", fmt.Errorf("create run script: %w", err)
	}
	path := f.Name()
	if _, err := f.WriteString(script); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write run script: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close run script: %w", err)
	}
	if err := os.Chmod(path, 0o755); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("chmod run script: %w", err)
	}
	return path, nil
}
