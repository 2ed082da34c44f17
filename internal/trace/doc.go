// Package trace records what the val toolchain is doing: driver operations,
// lowering passes and per-function emission.
//
// Tracing is off by default and costs a nil check when disabled. Enable it
// from the command line or from the [trace] table of val.toml:
//
//	val emit-vil --trace=- --trace-level=detail prog.valm
//
// A Tracer travels through the pipeline in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "lower", 0)
//	defer span.End("")
//
// Stream tracers write each event as it happens (text or NDJSON); ring
// tracers keep the last events in memory so they can be dumped when the
// compiler aborts on an internal error.
package trace
