package blueprint

import (
	"fmt"
	"strings"
)

// Load-time failures are fatal for the whole dataset: a partially linked
// inheritance tree cannot answer queries honestly. Query-time failures abort
// only the call that raised them.

// DuplicateBlueprintError reports two blueprints declaring the same ID.
type DuplicateBlueprintError struct {
	ID   string
	File string
}

func (e *DuplicateBlueprintError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("duplicate blueprint %q in %s", e.ID, e.File)
	}
	return fmt.Sprintf("duplicate blueprint %q", e.ID)
}

// UnresolvedParentError reports a blueprint whose parent reference matches no
// loaded blueprint.
type UnresolvedParentError struct {
	ID     string
	Parent string
}

func (e *UnresolvedParentError) Error() string {
	return fmt.Sprintf("blueprint %q inherits from unknown blueprint %q", e.ID, e.Parent)
}

// CyclicInheritanceError reports an inheritance cycle, naming every blueprint
// on it in walk order.
type CyclicInheritanceError struct {
	Cycle []string
}

func (e *CyclicInheritanceError) Error() string {
	return fmt.Sprintf("inheritance cycle: %s", strings.Join(e.Cycle, " -> "))
}

// MultipleRootsError reports more than one blueprint with no parent.
type MultipleRootsError struct {
	Roots []string
}

func (e *MultipleRootsError) Error() string {
	return fmt.Sprintf("multiple root blueprints: %s", strings.Join(e.Roots, ", "))
}

// NoRootError reports a dataset in which every blueprint declares a parent.
type NoRootError struct{}

func (e *NoRootError) Error() string {
	return "no root blueprint found"
}

// UnknownPropertyError reports a request for a property name the resolver has
// no accessor for. This is a programming error on the caller's side and is
// fatal to the single call only.
type UnknownPropertyError struct {
	Property string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("unknown property %q", e.Property)
}

// PropertyTypeError reports a declared value that cannot convert to the
// property's semantic type. Resolution of other properties continues.
type PropertyTypeError struct {
	ID       string
	Property string
	Value    string
	Err      error
}

func (e *PropertyTypeError) Error() string {
	return fmt.Sprintf("blueprint %q property %q: bad value %q: %v", e.ID, e.Property, e.Value, e.Err)
}

func (e *PropertyTypeError) Unwrap() error {
	return e.Err
}
