package jobfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
)

// UsageError reports job arguments that do not satisfy the job's options.
// Usage holds the job option help text.
type UsageError struct {
	Job    string
	Reason string
	Usage  string
	Err    error
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("jobfile: %s: %s", e.Job, e.Reason)
}

func (e *UsageError) Unwrap() error { return e.Err }

// Values are the resolved job options and positional job arguments.
type Values struct {
	options map[string]string
	args    []string
}

// Option returns the value of the named option.
func (v *Values) Option(name string) (string, bool) {
	s, ok := v.options[name]
	return s, ok
}

// Args returns the positional job arguments.
func (v *Values) Args() []string { return v.args }

// Expand replaces ${name} and $name references in s: option names resolve
// to option values, 1, 2, ... to positional arguments, anything else to the
// environment.
func (v *Values) Expand(s string) string {
	return os.Expand(s, func(name string) string {
		if val, ok := v.options[name]; ok {
			return val
		}
		if n, err := strconv.Atoi(name); err == nil {
			if n >= 1 && n <= len(v.args) {
				return v.args[n-1]
			}
			return ""
		}
		return os.Getenv(name)
	})
}

// expand walks a parameter value and expands every string in it.
func (v *Values) expand(val any) any {
	switch t := val.(type) {
	case string:
		return v.Expand(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = v.expand(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = v.expand(e)
		}
		return out
	default:
		return val
	}
}

func (v *Values) expandParams(p Params) Params {
	out := make(Params, len(p))
	for k, e := range p {
		out[k] = v.expand(e)
	}
	return out
}

// ParseArgs parses the job argument vector against the declared options.
// Missing required options, missing required positional arguments and
// --help all return a *UsageError.
func (f *File) ParseArgs(args []string) (*Values, error) {
	fs := pflag.NewFlagSet(f.Name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	values := make(map[string]*string, len(f.Options))
	for _, o := range f.Options {
		usage := o.Usage
		if o.Required {
			usage = strings.TrimSpace(usage + " (required)")
		}
		values[o.Name] = fs.StringP(o.Name, o.Short, cast.ToString(o.Default), usage)
	}

	if err := fs.Parse(args); err != nil {
		reason := err.Error()
		if errors.Is(err, pflag.ErrHelp) {
			reason = "help requested"
		}
		return nil, f.usageError(fs, reason, err)
	}

	vals := &Values{options: make(map[string]string, len(values)), args: fs.Args()}
	for _, o := range f.Options {
		val := *values[o.Name]
		if o.Required && val == "" {
			return nil, f.usageError(fs, fmt.Sprintf("required job option --%s missing", o.Name), nil)
		}
		vals.options[o.Name] = val
	}

	if f.RequireArgs && len(vals.args) == 0 {
		return nil, f.usageError(fs, "job arguments are required", nil)
	}
	return vals, nil
}

func (f *File) usageError(fs *pflag.FlagSet, reason string, err error) *UsageError {
	var b strings.Builder
	fmt.Fprintf(&b, "Usage: crunch run %s -- [job options] [ARGS]\n", f.Name)
	if usage := fs.FlagUsages(); usage != "" {
		b.WriteString("Job options:\n")
		b.WriteString(usage)
	}
	return &UsageError{Job: f.Name, Reason: reason, Usage: b.String(), Err: err}
}
