package models

// String methods for custom string types.
// These are required for toon serialization, which uses fmt.Stringer.

// ParseKind
func (k ParseKind) String() string { return string(k) }
