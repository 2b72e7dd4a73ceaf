package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind identifies why a package or one of its files was rejected
type ErrorKind string

// ErrorKind constants
const (
	KindInvalidJSON            ErrorKind = "invalid_json"
	KindInvalidWorkflowSchema  ErrorKind = "invalid_workflow_schema"
	KindMissingPackageManifest ErrorKind = "missing_package_manifest"
	KindInvalidPackageJSON     ErrorKind = "invalid_package_json"
	KindInvalidPackageMetadata ErrorKind = "invalid_package_metadata"
	KindNoWorkflowsFound       ErrorKind = "no_workflows_found"
	KindAllWorkflowsInvalid    ErrorKind = "all_workflows_invalid"
)

// Sentinels for errors.Is checks against *ParseError
var (
	ErrInvalidJSON            = errors.New("invalid JSON")
	ErrInvalidWorkflowSchema  = errors.New("invalid workflow schema")
	ErrMissingPackageManifest = errors.New("missing package manifest")
	ErrInvalidPackageJSON     = errors.New("invalid package JSON")
	ErrInvalidPackageMetadata = errors.New("invalid package metadata")
	ErrNoWorkflowsFound       = errors.New("no workflows found")
	ErrAllWorkflowsInvalid    = errors.New("all workflows invalid")
)

var kindSentinels = map[ErrorKind]error{
	KindInvalidJSON:            ErrInvalidJSON,
	KindInvalidWorkflowSchema:  ErrInvalidWorkflowSchema,
	KindMissingPackageManifest: ErrMissingPackageManifest,
	KindInvalidPackageJSON:     ErrInvalidPackageJSON,
	KindInvalidPackageMetadata: ErrInvalidPackageMetadata,
	KindNoWorkflowsFound:       ErrNoWorkflowsFound,
	KindAllWorkflowsInvalid:    ErrAllWorkflowsInvalid,
}

// ParseError is a user-displayable parse or assembly failure
type ParseError struct {
	Kind    ErrorKind
	Path    string
	Fields  []string
	Details []string
	Err     error
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case KindInvalidJSON:
		return fmt.Sprintf("invalid JSON in workflow file: %s", e.Path)
	case KindInvalidWorkflowSchema:
		return fmt.Sprintf("invalid workflow at %s: missing required fields (%s)", e.Path, strings.Join(e.Fields, ", "))
	case KindMissingPackageManifest:
		return "missing reframe-package.json in package folder"
	case KindInvalidPackageJSON:
		return "invalid JSON in reframe-package.json"
	case KindInvalidPackageMetadata:
		return fmt.Sprintf("invalid package metadata: missing required fields (%s)", strings.Join(e.Fields, ", "))
	case KindNoWorkflowsFound:
		return "no workflows found in package (expected JSON files under transform/, validate/ or generate/)"
	case KindAllWorkflowsInvalid:
		return "failed to parse workflows:\n" + strings.Join(e.Details, "\n")
	}
	return string(e.Kind)
}

// Is matches the sentinel of the error's kind
func (e *ParseError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// Unwrap returns the underlying decoder error, if any
func (e *ParseError) Unwrap() error {
	return e.Err
}
