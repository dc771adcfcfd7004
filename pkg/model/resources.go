package model

// Default resource request values for a model run.
const (
	DefaultWalltime = "01:00:00"
	DefaultNCPUs    = "32"
	DefaultMem      = "64Gb"
)

// Resources is the resource request and run switches of a scenario.
// Zero values mean "use the default"; see WithDefaults.
type Resources struct {
	Walltime string `json:"walltime,omitempty" yaml:"walltime,omitempty"`
	NCPUs    string `json:"ncpus,omitempty" yaml:"ncpus,omitempty"` // cpus requested from the queue
	NPEs     string `json:"npes,omitempty" yaml:"npes,omitempty"`   // processes the model uses; empty leaves it to the run script
	Mem      string `json:"mem,omitempty" yaml:"mem,omitempty"`

	// SkipDownload disables input provisioning before the run.
	SkipDownload bool `json:"skip_download,omitempty" yaml:"skip_download,omitempty"`

	// Valgrind runs the model under the memory checker.
	Valgrind bool `json:"valgrind,omitempty" yaml:"valgrind,omitempty"`
}

// WithDefaults returns a copy of r with empty fields filled from defaults.
func (r Resources) WithDefaults(defaults Resources) Resources {
	if r.Walltime == "" {
		r.Walltime = defaults.Walltime
	}
	if r.NCPUs == "" {
		r.NCPUs = defaults.NCPUs
	}
	if r.NPEs == "" {
		r.NPEs = defaults.NPEs
	}
	if r.Mem == "" {
		r.Mem = defaults.Mem
	}
	return r
}

// DefaultResources returns the harness-wide resource defaults.
func DefaultResources() Resources {
	return Resources{
		Walltime: DefaultWalltime,
		NCPUs:    DefaultNCPUs,
		Mem:      DefaultMem,
	}
}
