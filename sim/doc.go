// Package sim provides the core discrete-event simulation engine for
// network-like traffic models.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - globals.go: SimulatorGlobals, the per-run clock, RNG engine and token-ID counter
//   - token.go: the Entity capability and the Token traffic unit
//   - event.go: the Event record and its relative-then-absolute Time field
//   - scheduler.go: the event queue; Schedule inserts, Cause pops and advances the clock
//
// # Architecture
//
// The sim package owns time and ordering; traffic sources live in sub-packages:
//   - sim/traffic/: On/Off traffic generators with pluggable interarrival samplers,
//     YAML traffic specs and a minimal re-arming driver loop
//   - sim/trace/: event trace recording (no dependency on sim/)
//
// # Invariants
//
//   - One SimulatorGlobals per run, passed explicitly; nothing is package-global.
//   - Every generator draws from the one engine returned by
//     SimulatorGlobals.RandomNumberGeneratorEngine, so a fixed seed and a fixed
//     sequence of calls reproduce a run bit-for-bit.
//   - Scheduler.Cause is the only code that moves the clock; events are caused
//     in (time, insertion) order.
package sim
