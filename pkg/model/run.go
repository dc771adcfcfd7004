package model

import "time"

// OutputFiles are the persisted artifacts of one run. Every path is
// absolute and lives inside the experiment work directory.
type OutputFiles struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Script string `json:"script"`
}

// RunResult is what the harness hands back after executing a run script.
type RunResult struct {
	ExitCode   int         `json:"exit_code"`
	Stdout     string      `json:"-"`
	Stderr     string      `json:"-"`
	Mode       ExecMode    `json:"mode"`
	JobName    string      `json:"job_name"`
	Files      OutputFiles `json:"files"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}

// Duration is the wall time between start and finish.
func (r *RunResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunRecord is a persisted scenario outcome.
type RunRecord struct {
	ID         string      `json:"id"`
	Scenario   string      `json:"scenario"`
	ModelType  string      `json:"model_type"`
	Experiment string      `json:"experiment"`
	Platform   string      `json:"platform"`
	Mode       ExecMode    `json:"mode"`
	JobName    string      `json:"job_name,omitempty"`
	Status     RunStatus   `json:"status"`
	ExitCode   *int        `json:"exit_code,omitempty"`
	Message    string      `json:"message,omitempty"`
	Files      OutputFiles `json:"files"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}
