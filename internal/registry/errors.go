// errors.go defines the error taxonomy surfaced by the lifecycle service.
// Every entity-resolution and constraint failure is translated into one of
// these types at the service boundary; infrastructure errors pass through
// wrapped but untranslated.
package registry

import (
	"errors"
	"fmt"
)

// Kind names an entity level of the hierarchy.
type Kind string

const (
	KindOrganization Kind = "organization"
	KindModule       Kind = "module"
	KindProvider     Kind = "provider"
	KindVersion      Kind = "version"
)

// childKind maps each kind to the kind that blocks its deletion.
func childKind(k Kind) Kind {
	switch k {
	case KindOrganization:
		return KindModule
	case KindModule:
		return KindProvider
	case KindProvider:
		return KindVersion
	}
	return ""
}

// NotFoundError reports the first path segment that failed to resolve.
type NotFoundError struct {
	Kind Kind
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q does not exist", e.Kind, e.Name)
}

// AlreadyExistsError reports a create that collided with an existing sibling,
// whether caught by the advisory pre-check or by the store's unique
// constraint. Callers cannot distinguish the two paths.
type AlreadyExistsError struct {
	Kind Kind
	Name string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Name)
}

// HasChildrenError reports a delete blocked by existing descendants.
type HasChildrenError struct {
	Kind Kind
}

func (e *HasChildrenError) Error() string {
	return fmt.Sprintf("%s cannot be deleted while it has %ss", e.Kind, childKind(e.Kind))
}

// InvalidNameError reports a malformed path segment, rejected before any
// resolution is attempted.
type InvalidNameError struct {
	Name   string
	Reason error
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid name %q: %v", e.Name, e.Reason)
}

func (e *InvalidNameError) Unwrap() error { return e.Reason }

// ErrInvalidVersion reports a version segment that does not parse as a
// semantic version.
var ErrInvalidVersion = errors.New("invalid semantic version")
