// Package ics is a memory-safe Go binding for libics, the reference
// implementation of the Image Cytometry Standard file format.
//
// The native library performs all file I/O and format encoding; this package
// is the translation layer. It maps the library's opaque handles, enumerated
// type codes, fixed-capacity dimension arrays and raw pixel buffers onto
// owned Go values, and enforces the resource lifecycle: one native handle
// per open file, serialized access per handle, release on every exit path.
//
// Ownership rules:
//   - Every byte slice returned by this package is caller-owned and remains
//     valid after the file is closed. No value ever references native memory.
//   - Buffers passed to WriteData are copied before the call returns; the
//     caller may reuse them immediately.
//
// Typical use:
//
//	eng, err := engine.New(ctx, engine.Config{LibraryPath: "libics.wasm"})
//	...
//	defer eng.Close(ctx)
//
//	f, err := ics.Open(ctx, eng, "sample.ics", ics.Read)
//	...
//	defer f.Close(ctx)
//
//	desc, err := f.Descriptor(ctx)
//	buf, err := f.ReadData(ctx)
package ics
