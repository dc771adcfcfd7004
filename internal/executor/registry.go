package executor

import (
	"fmt"
	"log/slog"

	"github.com/me/momtest/internal/logging"
	"github.com/me/momtest/pkg/model"
)

// Registry maps ExecMode values to their Executor implementations.
// Registration happens at startup before concurrent access, so no mutex is needed.
type Registry struct {
	executors map[model.ExecMode]Executor
	logger    *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		executors: make(map[model.ExecMode]Executor),
		logger:    logging.OrDiscard(logger).With("component", "executor-registry"),
	}
}

// Register adds an Executor to the registry, keyed by its Mode().
func (r *Registry) Register(exec Executor) {
	m := exec.Mode()
	r.executors[m] = exec
	r.logger.Debug("executor registered", "mode", m)
}

// Get returns the Executor for the given mode or an error if none is registered.
func (r *Registry) Get(m model.ExecMode) (Executor, error) {
	exec, ok := r.executors[m]
	if !ok {
		return nil, fmt.Errorf("no executor registered for mode %q", m)
	}
	return exec, nil
}
