// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

/*
Package pointer provides utilities for working with pointers in Go.

The backend API marks many fields optional (list item notes, ranks, profile
fields), which surface as pointer-typed struct fields. These helpers keep
call sites free of temporary-variable boilerplate.

Key Functions:
  - To: Creates a pointer from a value literal.
  - Val: Safely dereferences a pointer, returning the zero value if nil.
  - Fallback: Safely dereferences a pointer, returning a fallback value if nil.
*/
package pointer

// To returns a pointer to the provided value.
// Useful when a struct field expects a pointer (e.g. pointer.To("a note")).
func To[T any](v T) *T {
	return &v
}

// Val safely dereferences a pointer.
// If the pointer is nil, it returns the zero value of the underlying type.
func Val[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// Fallback safely dereferences a pointer.
// If the pointer is nil, it returns the provided fallback value instead.
func Fallback[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
