// Package resource tracks the live native handles owned by an engine.
//
// Every open ICS session registers itself in a Table; the engine drains the
// table on shutdown so that native resources are released even when a caller
// forgets to close a file. Observers receive lifecycle events, which the
// engine uses to log opens, closes and leaks.
package resource
