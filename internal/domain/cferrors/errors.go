// Package cferrors defines the typed error taxonomy used across the engine
// (see spec §7). Each error kind carries enough context to be logged into a
// JobLog row without the caller having to re-derive it.
package cferrors

import "fmt"

// ValidationError represents a rejected input at a component boundary
// (job creation, handler entry). No side effects have occurred when this
// is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError represents a lookup against a tenant-owning table that
// found no row matching the predicate.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// JobError represents a failure that should fail the enclosing job
// (Contract-violation or External-dependency-down rows of §7).
type JobError struct {
	JobID   string
	Stage   string
	Message string
	Cause   error
	Fatal   bool
}

func (e *JobError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("job %s failed at %s: %s", e.JobID, e.Stage, e.Message)
	}
	return fmt.Sprintf("job %s failed: %s", e.JobID, e.Message)
}

func (e *JobError) Unwrap() error {
	return e.Cause
}

func NewJobError(jobID, stage, message string, cause error) *JobError {
	return &JobError{JobID: jobID, Stage: stage, Message: message, Cause: cause, Fatal: true}
}

// ProviderErrorKind distinguishes retriable from fatal AI provider failures
// per spec §4.2.
type ProviderErrorKind string

const (
	ProviderErrorRetriable ProviderErrorKind = "retriable"
	ProviderErrorFatal     ProviderErrorKind = "fatal"
	ProviderErrorTimeout   ProviderErrorKind = "timeout"
)

// ProviderError wraps an AI provider failure with enough metadata for the
// caller to decide whether to retry the current unit (never the whole job).
type ProviderError struct {
	Kind       ProviderErrorKind
	Message    string
	RetryAfter string // optional, provider-suggested backoff, informational only
	Cause      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("ai provider error [%s]: %s", e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

func NewRetriableProviderError(message string, cause error) *ProviderError {
	return &ProviderError{Kind: ProviderErrorRetriable, Message: message, Cause: cause}
}

func NewFatalProviderError(message string, cause error) *ProviderError {
	return &ProviderError{Kind: ProviderErrorFatal, Message: message, Cause: cause}
}

func NewProviderTimeoutError(message string, cause error) *ProviderError {
	return &ProviderError{Kind: ProviderErrorTimeout, Message: message, Cause: cause}
}

// ConfigurationError represents a data-corruption style fallback trigger:
// a malformed JSON blob or a template missing its current version. The
// caller falls back to a documented default and logs a warning; it never
// aborts the enclosing operation on its own.
type ConfigurationError struct {
	Component string
	Message   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
}

func NewConfigurationError(component, message string) *ConfigurationError {
	return &ConfigurationError{Component: component, Message: message}
}
