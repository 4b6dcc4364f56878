// Package domain defines the core domain types for the servicedir directory.
//
// This package contains the Service entity and the value objects used to
// mutate it, free of transport and storage concerns.
//
// # Core Types
//
// Service represents one community resource record: a category, a display
// name, an address, optional hours and phone, and a registry-stamped
// modification timestamp.
//
// ServiceInput carries the caller-supplied fields for create and replace
// operations, with Validate enforcing the required fields.
//
// ServicePatch is the partial-update variant: every field is a pointer, and
// only non-nil fields are applied. This makes "absent" and "set to empty"
// distinguishable at the type level.
//
// # Errors
//
// ValidationError lists the required fields that were missing or empty, in
// the order type, name, address, so callers can surface them verbatim.
package domain
