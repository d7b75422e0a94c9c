// Package jobfile builds crunch jobs from declarative TOML or YAML files.
//
// A job file names registered components and their parameters:
//
//	description = "copy active users"
//
//	[[options]]
//	name = "db"
//	usage = "path to the users database"
//	required = true
//
//	[[sources]]
//	use = "sql.query"
//	params = { driver = "sqlite", dsn = "${db}", query = "SELECT * FROM users ORDER BY id" }
//
//	[[transformations]]
//	use = "where"
//	params = { field = "active", equals = 1 }
//
//	[[transformations]]
//	use = "identity"
//	buffer = 500
//
//	[[destinations]]
//	use = "file"
//	params = { path = "active.jsonl" }
//
// Options are parsed from the job argument vector; "${name}" in any string
// parameter expands to the option value, "${1}", "${2}", ... to the
// positional job arguments and any other name to the environment.
package jobfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// File is a parsed job file.
type File struct {
	// Name identifies the job in diagnostics; Load sets it to the file path.
	Name string `toml:"-" yaml:"-"`

	Description     string           `toml:"description" yaml:"description"`
	Options         []Option         `toml:"options" yaml:"options"`
	RequireArgs     bool             `toml:"require_args" yaml:"require_args"`
	PreProcess      []Component      `toml:"pre_process" yaml:"pre_process"`
	Sources         []Component      `toml:"sources" yaml:"sources"`
	Transformations []Transformation `toml:"transformations" yaml:"transformations"`
	Destinations    []Component      `toml:"destinations" yaml:"destinations"`
	PostProcess     []Component      `toml:"post_process" yaml:"post_process"`
}

// Option declares a job option parsed from the job arguments.
type Option struct {
	Name     string `toml:"name" yaml:"name"`
	Short    string `toml:"short" yaml:"short"`
	Usage    string `toml:"usage" yaml:"usage"`
	Default  any    `toml:"default" yaml:"default"`
	Required bool   `toml:"required" yaml:"required"`
}

// Component references a registered factory.
type Component struct {
	Use    string `toml:"use" yaml:"use"`
	Params Params `toml:"params" yaml:"params"`
}

// Transformation is a component in the transformation chain. A positive
// Buffer inserts a buffer of that size in front of it; BufferWhen inserts a
// capacity-based buffer instead. At most one of the two may be set.
type Transformation struct {
	Component `yaml:",inline"`

	Name       string      `toml:"name" yaml:"name"`
	Buffer     int         `toml:"buffer" yaml:"buffer"`
	BufferWhen *BufferWhen `toml:"buffer_when" yaml:"buffer_when"`
}

// Load reads and parses the job file at path. The format follows the file
// extension: .toml, .yaml or .yml.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jobfile: %w", err)
	}
	return Parse(path, data)
}

// Parse parses a job file. name selects the format by extension and becomes
// the job name. Unknown keys are rejected.
func Parse(name string, data []byte) (*File, error) {
	var f File
	var err error
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&f)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err = dec.Decode(&f); errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		return nil, fmt.Errorf("jobfile: %s: unsupported format %q (want .toml, .yaml or .yml)", name, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("jobfile: parse %s: %w", name, err)
	}

	f.Name = name
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the structure of the file without resolving components.
func (f *File) Validate() error {
	var errs []error

	seen := make(map[string]bool, len(f.Options))
	for i, o := range f.Options {
		switch {
		case o.Name == "":
			errs = append(errs, fmt.Errorf("options[%d]: name is required", i))
		case seen[o.Name]:
			errs = append(errs, fmt.Errorf("options[%d]: duplicate option %q", i, o.Name))
		case len(o.Short) > 1:
			errs = append(errs, fmt.Errorf("options[%d]: short name %q must be one letter", i, o.Short))
		}
		seen[o.Name] = true
	}

	check := func(section string, cs []Component) {
		for i, c := range cs {
			if c.Use == "" {
				errs = append(errs, fmt.Errorf("%s[%d]: use is required", section, i))
			}
		}
	}
	check("pre_process", f.PreProcess)
	check("sources", f.Sources)
	check("destinations", f.Destinations)
	check("post_process", f.PostProcess)
	for i, t := range f.Transformations {
		if t.Use == "" {
			errs = append(errs, fmt.Errorf("transformations[%d]: use is required", i))
		}
		if t.Buffer < 0 {
			errs = append(errs, fmt.Errorf("transformations[%d]: buffer must not be negative", i))
		}
		if t.BufferWhen != nil {
			if t.Buffer > 0 {
				errs = append(errs, fmt.Errorf("transformations[%d]: buffer and buffer_when are mutually exclusive", i))
			}
			if err := t.BufferWhen.validate(); err != nil {
				errs = append(errs, fmt.Errorf("transformations[%d]: %w", i, err))
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("jobfile: %s: %w", f.Name, err)
	}
	return nil
}
