// Package engine hosts the native libics library and exposes it through the
// Native contract.
//
// The library is consumed as a wasm32-wasi binary executed in-process with
// wazero. An Engine compiles the binary once; every open ICS file gets its
// own module instance, so no native state is shared between files and
// different files may be used concurrently. libics is not reentrant, so calls
// on one instance must still be serialized by the caller; the ics.File facade
// does this.
//
// All native status codes are translated to structured errors at this
// boundary; no other package sees a raw status code. Wasm linear memory never
// escapes the package: every value crossing the boundary is copied into
// Go-owned memory before it is returned.
package engine
