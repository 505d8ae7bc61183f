package model

import (
	"fmt"
	"net/http"

	"github.com/strata-data/strata/pkg/errors"
)

// Error taxonomy surfaced to API consumers. Each type renders a fixed
// message shape and maps to a wire body of {"code","message"}.

// ErrorBody is the serialized form of any taxonomy error.
type ErrorBody struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// NoSuchObjectError reports a missing repository, volume set, commit,
// volume or remote. It always carries the entity kind and key.
type NoSuchObjectError struct {
	Kind       string
	Name       string
	Repository string
}

func (e *NoSuchObjectError) Error() string {
	if e.Repository == "" {
		return fmt.Sprintf("no such %s '%s'", e.Kind, e.Name)
	}
	return fmt.Sprintf("no such %s '%s' in repository '%s'", e.Kind, e.Name, e.Repository)
}

// Code of the taxonomy entry
func (e *NoSuchObjectError) Code() string { return "NoSuchObject" }

// Status is the HTTP status the API layer maps this error to
func (e *NoSuchObjectError) Status() int { return http.StatusNotFound }

// NoSuchRepository builds the canonical missing-repository error
func NoSuchRepository(name string) *NoSuchObjectError {
	return &NoSuchObjectError{Kind: "repository", Name: name}
}

// NoSuchCommit builds the canonical missing-commit error
func NoSuchCommit(repository, id string) *NoSuchObjectError {
	return &NoSuchObjectError{Kind: "commit", Name: id, Repository: repository}
}

// NoSuchRemote builds the canonical missing-remote error
func NoSuchRemote(repository, name string) *NoSuchObjectError {
	return &NoSuchObjectError{Kind: "remote", Name: name, Repository: repository}
}

// NoSuchVolumeSet builds the canonical missing-volume-set error
func NoSuchVolumeSet(repository, id string) *NoSuchObjectError {
	return &NoSuchObjectError{Kind: "volume set", Name: id, Repository: repository}
}

// NoSuchVolume builds the canonical missing-volume error
func NoSuchVolume(repository, name string) *NoSuchObjectError {
	return &NoSuchObjectError{Kind: "volume", Name: name, Repository: repository}
}

// AlreadyExistsError reports a duplicate id on create.
type AlreadyExistsError struct {
	Kind       string
	Name       string
	Repository string
}

func (e *AlreadyExistsError) Error() string {
	if e.Repository == "" {
		return fmt.Sprintf("%s '%s' already exists", e.Kind, e.Name)
	}
	return fmt.Sprintf("%s '%s' already exists in repository '%s'", e.Kind, e.Name, e.Repository)
}

// Code of the taxonomy entry
func (e *AlreadyExistsError) Code() string { return "AlreadyExists" }

// Status is the HTTP status the API layer maps this error to
func (e *AlreadyExistsError) Status() int { return http.StatusConflict }

// RepositoryExists builds the canonical duplicate-repository error
func RepositoryExists(name string) *AlreadyExistsError {
	return &AlreadyExistsError{Kind: "repository", Name: name}
}

// CommitExists builds the canonical duplicate-commit error
func CommitExists(repository, id string) *AlreadyExistsError {
	return &AlreadyExistsError{Kind: "commit", Name: id, Repository: repository}
}

// RemoteExists builds the canonical duplicate-remote error
func RemoteExists(repository, name string) *AlreadyExistsError {
	return &AlreadyExistsError{Kind: "remote", Name: name, Repository: repository}
}

// VolumeExists builds the canonical duplicate-volume error
func VolumeExists(repository, name string) *AlreadyExistsError {
	return &AlreadyExistsError{Kind: "volume", Name: name, Repository: repository}
}

// InvalidArgumentError reports malformed input: bad identifiers,
// unknown provider kinds, malformed tag filters.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string { return e.Reason }

// Code of the taxonomy entry
func (e *InvalidArgumentError) Code() string { return "InvalidArgument" }

// Status is the HTTP status the API layer maps this error to
func (e *InvalidArgumentError) Status() int { return http.StatusBadRequest }

// InvalidArgument builds a validation error from a format string
func InvalidArgument(format string, args ...interface{}) *InvalidArgumentError {
	return &InvalidArgumentError{Reason: fmt.Sprintf(format, args...)}
}

// DriverFailureError wraps an error from the volume driver. The
// driver's message is passed through uninspected.
type DriverFailureError struct {
	Op  string
	Err error
}

func (e *DriverFailureError) Error() string {
	return fmt.Sprintf("volume driver %s failed: %v", e.Op, e.Err)
}

func (e *DriverFailureError) Unwrap() error { return e.Err }

// Code of the taxonomy entry
func (e *DriverFailureError) Code() string { return "DriverFailure" }

// Status is the HTTP status the API layer maps this error to
func (e *DriverFailureError) Status() int { return http.StatusInternalServerError }

// DriverFailure wraps a driver error with the failing operation name
func DriverFailure(op string, err error) *DriverFailureError {
	return &DriverFailureError{Op: op, Err: err}
}

// ProviderFailureError wraps an error from a remote backend. It is
// reported through a FAILED operation state, never as a synchronous
// API error once submission succeeded.
type ProviderFailureError struct {
	Provider string
	Err      error
}

func (e *ProviderFailureError) Error() string {
	return fmt.Sprintf("remote provider %s failed: %v", e.Provider, e.Err)
}

func (e *ProviderFailureError) Unwrap() error { return e.Err }

// Code of the taxonomy entry
func (e *ProviderFailureError) Code() string { return "ProviderFailure" }

// Status is the HTTP status the API layer maps this error to
func (e *ProviderFailureError) Status() int { return http.StatusInternalServerError }

// ProviderFailure wraps a provider error with the provider kind
func ProviderFailure(provider string, err error) *ProviderFailureError {
	return &ProviderFailureError{Provider: provider, Err: err}
}

type coded interface {
	Code() string
	Status() int
}

// BodyOf maps any error to its wire body. Errors outside the taxonomy
// are reported as DriverFailure-grade internal errors.
func BodyOf(err error) ErrorBody {
	var c coded
	if errors.As(err, &c) {
		return ErrorBody{Code: c.Code(), Message: err.Error()}
	}
	return ErrorBody{Code: "InternalError", Message: err.Error()}
}

// StatusOf maps any error to the HTTP status the API layer should use
func StatusOf(err error) int {
	var c coded
	if errors.As(err, &c) {
		return c.Status()
	}
	return http.StatusInternalServerError
}

// IsNoSuchObject tells whether err is a missing-entity error
func IsNoSuchObject(err error) bool {
	var e *NoSuchObjectError
	return errors.As(err, &e)
}

// IsAlreadyExists tells whether err is a duplicate-entity error
func IsAlreadyExists(err error) bool {
	var e *AlreadyExistsError
	return errors.As(err, &e)
}

// IsInvalidArgument tells whether err is a validation error
func IsInvalidArgument(err error) bool {
	var e *InvalidArgumentError
	return errors.As(err, &e)
}
