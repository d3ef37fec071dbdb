// Package trace records what the IR pipeline is doing: which files are being
// parsed, which passes run, and at debug level which tree nodes are lowered.
//
// Tracers are selected with the CLI flags:
//
//	ilgraph lower --trace=- --trace-level=phase input.ilt
//
// Implementations:
//
//   - Nop: disabled tracing, zero overhead
//   - StreamTracer: writes each event immediately (text or NDJSON)
//   - RingTracer: keeps the last N events in memory; the CLI dumps it to
//     stderr when a run fails
//   - MultiTracer: fans out to several tracers
//
// Levels select scopes: LevelPhase emits driver and pass spans, LevelDetail
// adds per-file spans, LevelDebug adds per-node spans.
//
// Tracers travel through the pipeline in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopePass, "lower")
//	defer span.End("")
package trace
