package model

import (
	"fmt"
	"strings"
)

// UnknownScenarioError is returned when a scenario name is not registered.
type UnknownScenarioError struct {
	Name  string
	Known []string
}

func (e *UnknownScenarioError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown scenario %q", e.Name)
	}
	return fmt.Sprintf("unknown scenario %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

// UnknownPlatformError is returned when no run-script profile exists for a platform.
type UnknownPlatformError struct {
	Platform string
	Known    []string
}

func (e *UnknownPlatformError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("no run script profile for platform %q", e.Platform)
	}
	return fmt.Sprintf("no run script profile for platform %q (known: %s; or set template_path)", e.Platform, strings.Join(e.Known, ", "))
}
