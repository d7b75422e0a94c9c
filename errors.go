package crunch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration is matched by every *ConfigurationError.
	ErrConfiguration = errors.New("crunch: configuration error")

	// ErrPartitionUnsupported is matched by every *PartitionUnsupportedError.
	ErrPartitionUnsupported = errors.New("crunch: source does not support partitioning")

	// ErrAlreadyRun is returned when Run is called on a pipeline that has
	// already run. Pipelines cannot be resumed or restarted.
	ErrAlreadyRun = errors.New("crunch: pipeline already run")
)

// ConfigurationError reports a component that violates its capability
// contract, or an invalid setting. It is always raised before any record is
// processed.
type ConfigurationError struct {
	Component string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("crunch: invalid %s: %s", e.Component, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

func configErr(component, reason string) error {
	return &ConfigurationError{Component: component, Reason: reason}
}

// PartitionUnsupportedError is returned when the pipeline runs with more than
// one worker and a source does not implement [PartitionedSource]. It is
// discovered just before that source would be drained.
type PartitionUnsupportedError struct {
	Source string
	Index  int
}

func (e *PartitionUnsupportedError) Error() string {
	return fmt.Sprintf("crunch: source[%d] %s does not support partitioning", e.Index, e.Source)
}

func (e *PartitionUnsupportedError) Is(target error) bool { return target == ErrPartitionUnsupported }

// StageError wraps a runtime failure with the phase and component that
// produced it.
type StageError struct {
	Phase Phase
	Kind  string // "source", "transformation", "destination", "hook"
	Index int
	Name  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("crunch: %s: %s[%d] %s: %v", e.Phase, e.Kind, e.Index, e.Name, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// CloseError aggregates every destination close failure of a run.
type CloseError struct {
	Errs []*StageError
}

func (e *CloseError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("crunch: %d destination(s) failed to close: %s", len(e.Errs), strings.Join(msgs, "; "))
}

func (e *CloseError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errs))
	for _, err := range e.Errs {
		errs = append(errs, err)
	}
	return errs
}
