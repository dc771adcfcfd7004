// Package platform holds the per-platform run-script templates and
// resource defaults used to drive model runs.
package platform

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"text/template"

	"github.com/me/momtest/pkg/model"
)

//go:embed templates/*.tmpl
var templates embed.FS

// DefaultCompileScript is the model build script, relative to the exp dir.
const DefaultCompileScript = "./MOM_compile.csh"

// Profile is everything platform specific about a run.
type Profile struct {
	Name string

	// Template is the text/template source of the batch run script.
	Template string

	// CompileScript is invoked by Build with --platform/--type flags.
	CompileScript string

	// Defaults fill resource fields a scenario leaves empty.
	Defaults model.Resources
}

// Parse compiles the profile template. Unknown fields are errors rather
// than silently rendering "<no value>".
func (p Profile) Parse() (*template.Template, error) {
	tmpl, err := template.New(p.Name).Option("missingkey=error").Parse(p.Template)
	if err != nil {
		return nil, fmt.Errorf("platform %s: parse run script template: %w", p.Name, err)
	}
	return tmpl, nil
}

// builtin maps platform name to the embedded template file.
var builtin = map[string]string{
	"nci": "templates/nci.pbs.tmpl",
}

// Names lists the built-in platforms.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the built-in profile for name.
func Lookup(name string) (Profile, error) {
	file, ok := builtin[name]
	if !ok {
		return Profile{}, &model.UnknownPlatformError{Platform: name, Known: Names()}
	}
	data, err := templates.ReadFile(file)
	if err != nil {
		return Profile{}, fmt.Errorf("platform %s: read embedded template: %w", name, err)
	}
	return Profile{
		Name:          name,
		Template:      string(data),
		CompileScript: DefaultCompileScript,
		Defaults:      model.DefaultResources(),
	}, nil
}

// FromTemplateFile builds a profile for name whose run script template is
// read from path. Used for sites without a built-in profile.
func FromTemplateFile(name, path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("platform %s: read template %s: %w", name, path, err)
	}
	p := Profile{
		Name:          name,
		Template:      string(data),
		CompileScript: DefaultCompileScript,
		Defaults:      model.DefaultResources(),
	}
	if _, err := p.Parse(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Resolve picks the profile for name, preferring a template file when
// templatePath is set.
func Resolve(name, templatePath string) (Profile, error) {
	if templatePath != "" {
		return FromTemplateFile(name, templatePath)
	}
	return Lookup(name)
}
