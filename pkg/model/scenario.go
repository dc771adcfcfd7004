package model

// Scenario is a named, pre-configured model run: which model variant to
// run, on which experiment, with which resource request.
type Scenario struct {
	Name        string    `json:"name" yaml:"name"`
	ModelType   string    `json:"model_type" yaml:"model_type"`
	Experiment  string    `json:"experiment" yaml:"experiment"`
	Resources   Resources `json:"resources" yaml:"resources"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`

	// Disabled scenarios stay in the registry but are skipped when running
	// every scenario. They can still be run by name.
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}
