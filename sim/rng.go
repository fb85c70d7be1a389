package sim

import (
	"math/rand/v2"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two simulations with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical results.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// RandomSimulationKey draws a key from the runtime-seeded top-level generator.
// Used when the caller does not supply a seed.
func RandomSimulationKey() SimulationKey {
	return SimulationKey(rand.Int64())
}

// pcgWords maps a key onto the two PCG state words. Both words come from the
// key so that a single int64 fully determines the stream.
func (k SimulationKey) pcgWords() (uint64, uint64) {
	return uint64(k), uint64(k)
}

// === Engine ===

// engine is the one pseudorandom engine of a simulation run.
//
// The PCG source is kept alongside the *rand.Rand wrapping it: rand.Rand
// holds no buffered state of its own, so draws through either handle advance
// the same stream. Reseeding mutates the PCG in place, which means every
// holder of the Rand or the Source sees the new sequence immediately.
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type engine struct {
	key SimulationKey
	pcg *rand.PCG
	rng *rand.Rand
}

func newEngine(key SimulationKey) *engine {
	hi, lo := key.pcgWords()
	pcg := rand.NewPCG(hi, lo)
	return &engine{
		key: key,
		pcg: pcg,
		rng: rand.New(pcg),
	}
}

// reseed resets the stream to the start of the sequence for key.
func (e *engine) reseed(key SimulationKey) {
	hi, lo := key.pcgWords()
	e.pcg.Seed(hi, lo)
	e.key = key
}
