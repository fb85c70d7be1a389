// Package trace provides event-trace recording for simulation runs.
// This package has no dependencies on sim/ or sim/traffic/; it stores pure data types.
package trace

// EventRecord captures a single caused event.
type EventRecord struct {
	Seq      uint64  // scheduler insertion sequence
	Clock    float64 // absolute time the event was caused at
	Type     string  // event type tag
	TokenID  uint64  // carried token ID (valid only when HasToken)
	HasToken bool
}
