// Package log records machine-readable compile traces for regblock.
//
// A trace is a sequence of Events, one per pipeline stage and block, plus one
// per overlap violation and generated file. It is separate from operational
// logging (slog): the trace is meant to be stored and inspected later.
//
// # Basic Usage
//
//	// Console output via slog
//	c.Trace = log.NewSlogAdapter(slog.Default())
//
//	// Binary trace file
//	c.Trace, _ = log.NewFileLogger("build/regblock.rbtrace")
//
//	// Both
//	c.Trace = log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fileLogger)
//
// # File Format
//
// Trace files are a stream of CBOR encoded events with integer keys. The
// `regblock trace` command views, filters and summarizes them.
package log
