// Package ocrerrors defines the typed error taxonomy used across the OCR
// pipeline: configuration problems, invalid caller arguments, inference
// failures, and non-fatal decode warnings. Callers can use errors.As to
// branch on category without parsing message strings.
package ocrerrors

import "fmt"

// ConfigError indicates a problem with configuration values or files:
// a missing model path, an invalid threshold, an unreadable config file.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("config error: %s", e.Field)
	}
	return fmt.Sprintf("config error: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError builds a ConfigError for the named configuration field.
func NewConfigError(field string, err error) *ConfigError {
	return &ConfigError{Field: field, Err: err}
}

// ArgumentError indicates a caller passed an invalid argument: a nil image,
// an out-of-range index, a malformed buffer size. These are programmer
// errors the caller can fix without touching configuration or models.
type ArgumentError struct {
	Operation string
	Err       error
}

func (e *ArgumentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("argument error in %s", e.Operation)
	}
	return fmt.Sprintf("argument error in %s: %v", e.Operation, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// NewArgumentError builds an ArgumentError for the named operation.
func NewArgumentError(operation string, err error) *ArgumentError {
	return &ArgumentError{Operation: operation, Err: err}
}

// InferenceError wraps a failure from the underlying ONNX session: a Run
// call returning an error, a shape mismatch on the output, or a session
// that failed to load. Stage identifies which model was running (detector,
// classifier, recognizer).
type InferenceError struct {
	Stage string
	Err   error
}

func (e *InferenceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("inference error in %s", e.Stage)
	}
	return fmt.Sprintf("inference error in %s: %v", e.Stage, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// NewInferenceError builds an InferenceError for the named pipeline stage.
func NewInferenceError(stage string, err error) *InferenceError {
	return &InferenceError{Stage: stage, Err: err}
}

// DecodeWarning is a non-fatal condition encountered while decoding a single
// item in a batch: a region that produced an empty span, a confidence below
// threshold, a degenerate polygon that was dropped. DecodeWarning is never
// returned as a hard error from a public API; callers collect it via a
// warnings slice or log it, and processing continues for the rest of the
// batch.
type DecodeWarning struct {
	Item string
	Err  error
}

func (e *DecodeWarning) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("decode warning: %s", e.Item)
	}
	return fmt.Sprintf("decode warning: %s: %v", e.Item, e.Err)
}

func (e *DecodeWarning) Unwrap() error { return e.Err }

// NewDecodeWarning builds a DecodeWarning for the named batch item.
func NewDecodeWarning(item string, err error) *DecodeWarning {
	return &DecodeWarning{Item: item, Err: err}
}
