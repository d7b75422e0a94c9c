// Package fsio reads records from and appends records to local files, one
// record per line.
package fsio

import (
	"encoding/json"
	"fmt"
)

// Format is the per-line encoding of records.
type Format string

const (
	// JSONLines decodes and encodes every line as a JSON value.
	JSONLines Format = "jsonl"
	// Lines treats every line as a plain string record. Writing uses fmt.Sprint.
	Lines Format = "lines"
)

// ParseFormat returns the format named s. An empty name selects [JSONLines].
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case JSONLines, "", "json":
		return JSONLines, nil
	case Lines, "text":
		return Lines, nil
	default:
		return "", fmt.Errorf("crunch/fsio: unknown format %q", s)
	}
}

func (f Format) decode(line []byte) (any, error) {
	if f == Lines {
		return string(line), nil
	}
	var v any
	if err := json.Unmarshal(line, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (f Format) encode(v any) ([]byte, error) {
	if f == Lines {
		return []byte(fmt.Sprint(v)), nil
	}
	return json.Marshal(v)
}
