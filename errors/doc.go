// Package errors provides the structured error types for the go-libics binding.
//
// Errors carry an Op (the native function or binding operation that failed),
// a Kind (error category), the raw native status code when the error
// originated in libics, and an optional cause chain.
//
// Every native status code is translated through the static KindOf table
// before it is surfaced; callers never branch on raw codes. The raw code is
// preserved on the Error for diagnostics only.
//
// Use the convenience constructors:
//
//	err := errors.InvalidArgument("WriteData", "buffer length %d != descriptor size %d", n, want)
//	err := errors.FromCode("IcsOpen", code, text)
//
// All errors implement the standard error interface and support errors.Is;
// matching is by Kind:
//
//	if errors.IsKind(err, errors.KindState) { ... }
package errors
