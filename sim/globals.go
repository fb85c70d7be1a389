package sim

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
)

// Version is the default version tag stamped on a run.
const Version = "1.0.0"

// GlobalsConfig groups the explicit construction parameters of SimulatorGlobals.
type GlobalsConfig struct {
	CurrentTime float64 // initial clock value (must be >= StartTime)
	StartTime   float64 // simulation start; SimulationDuration is measured from here
	Trace       bool    // enables per-event trace logging and recording
	Version     string  // free-form version tag ("" = Version)
}

// DefaultGlobalsConfig returns a zero clock, zero start, tracing off.
func DefaultGlobalsConfig() GlobalsConfig {
	return GlobalsConfig{Version: Version}
}

// SimulatorGlobals is the per-run simulation context: clock, RNG engine and
// token-ID counter. Exactly one instance exists per run and it is passed
// explicitly to the Scheduler and to every traffic generator.
//
// Only the Scheduler advances the clock. All generators draw from the single
// engine returned by RandomNumberGeneratorEngine, so the pseudorandom stream
// is global to the run and the order of draws is observable.
type SimulatorGlobals struct {
	currentTime float64
	startTime   float64
	trace       bool
	version     string
	engine      *engine
	nextTokenID uint64
}

// NewSimulatorGlobals creates globals whose engine is seeded from a
// non-deterministic source. The chosen seed is logged and available via Seed
// so the run can be replayed.
func NewSimulatorGlobals(cfg GlobalsConfig) *SimulatorGlobals {
	key := RandomSimulationKey()
	logrus.Debugf("no seed supplied; drew seed %d", int64(key))
	return newSimulatorGlobals(cfg, key)
}

// NewSeededSimulatorGlobals creates globals whose engine is seeded with seed.
func NewSeededSimulatorGlobals(cfg GlobalsConfig, seed int64) *SimulatorGlobals {
	return newSimulatorGlobals(cfg, NewSimulationKey(seed))
}

func newSimulatorGlobals(cfg GlobalsConfig, key SimulationKey) *SimulatorGlobals {
	if cfg.CurrentTime < cfg.StartTime {
		logrus.Warnf("initial clock %g precedes start time %g; clamping to start", cfg.CurrentTime, cfg.StartTime)
		cfg.CurrentTime = cfg.StartTime
	}
	version := cfg.Version
	if version == "" {
		version = Version
	}
	return &SimulatorGlobals{
		currentTime: cfg.CurrentTime,
		startTime:   cfg.StartTime,
		trace:       cfg.Trace,
		version:     version,
		engine:      newEngine(key),
	}
}

// CurrentAbsoluteTime returns the simulation clock. It never decreases.
func (g *SimulatorGlobals) CurrentAbsoluteTime() float64 {
	return g.currentTime
}

// setCurrentAbsoluteTime moves the clock. Called only by Scheduler.Cause.
// Moving the clock backwards is an invariant violation.
func (g *SimulatorGlobals) setCurrentAbsoluteTime(t float64) {
	if t < g.currentTime || math.IsNaN(t) {
		panic(fmt.Sprintf("sim: clock regression from %g to %g", g.currentTime, t))
	}
	g.currentTime = t
}

// SimulationStartTime returns the configured start time.
func (g *SimulatorGlobals) SimulationStartTime() float64 {
	return g.startTime
}

// SimulationDuration returns the time elapsed since the simulation start.
// Statistics code compares it against a warm-up interval.
func (g *SimulatorGlobals) SimulationDuration() float64 {
	return g.currentTime - g.startTime
}

// TraceEnabled reports whether the run was configured with tracing on.
func (g *SimulatorGlobals) TraceEnabled() bool {
	return g.trace
}

// Version returns the version tag of the run.
func (g *SimulatorGlobals) Version() string {
	return g.version
}

// Seed returns the seed the engine was last (re)seeded with.
func (g *SimulatorGlobals) Seed() int64 {
	return int64(g.engine.key)
}

// SeedRandomNumberGenerator reseeds the shared engine. Every subsequent draw,
// from any generator, follows the sequence for seed from its first value.
func (g *SimulatorGlobals) SeedRandomNumberGenerator(seed int64) {
	g.engine.reseed(NewSimulationKey(seed))
	logrus.Debugf("engine reseeded with %d", seed)
}

// RandomNumberGeneratorEngine returns the one engine shared by the whole run.
// Never returns nil.
func (g *SimulatorGlobals) RandomNumberGeneratorEngine() *rand.Rand {
	return g.engine.rng
}

// Source returns the source backing RandomNumberGeneratorEngine, for
// consumers such as gonum distributions that take a rand.Source.
func (g *SimulatorGlobals) Source() rand.Source {
	return g.engine.pcg
}

// TokenNextID pre-increments the token counter and returns it; the first ID
// of a run is 1. Overflow would reuse IDs and is treated as fatal.
func (g *SimulatorGlobals) TokenNextID() uint64 {
	if g.nextTokenID == math.MaxUint64 {
		panic("sim: token ID counter overflow")
	}
	g.nextTokenID++
	return g.nextTokenID
}

// TokensIssued returns how many token IDs have been handed out.
func (g *SimulatorGlobals) TokensIssued() uint64 {
	return g.nextTokenID
}
