package traffic

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/inference-sim/traffic-sim/sim"
)

// State is the On/Off state of a generator.
type State int

const (
	Off State = iota // initial state; creation is a no-op
	On
)

func (s State) String() string {
	if s == On {
		return "On"
	}
	return "Off"
}

// Config holds the fixed fields every token of a generator is built from.
type Config struct {
	ID            string        // label used in log lines ("" = event type)
	EventType     sim.EventType // type of the scheduled arrival events ("" = sim.EventTypeArrival)
	Contents      sim.Entity    // default payload
	Source        sim.Entity
	Destination   sim.Entity
	Priority      int
	ExplicitRoute []sim.Entity // default route; nil = none
	Seed          *int64       // non-nil reseeds the shared engine at construction
}

// Generator is a traffic source. It is Off until TurnOn; while On every
// creation call mints exactly one token and schedules exactly one arrival
// event carrying it, at a delay drawn from the sampler.
//
// All variants share this struct and differ only in their sampler.
type Generator struct {
	globals *sim.SimulatorGlobals
	sched   *sim.Scheduler
	cfg     Config
	kind    Kind
	sampler distuv.Rander
	state   State

	tokensGenerated uint64
}

// NewConstantGenerator creates a generator with a fixed interarrival interval.
func NewConstantGenerator(g *sim.SimulatorGlobals, s *sim.Scheduler, cfg Config, interval float64) (*Generator, error) {
	return newGenerator(g, s, cfg, KindConstant, func(rand.Source) (distuv.Rander, error) {
		return newConstantSampler(interval)
	})
}

// NewExponentialGenerator creates a generator with exponential interarrivals
// of mean tau.
func NewExponentialGenerator(g *sim.SimulatorGlobals, s *sim.Scheduler, cfg Config, tau float64) (*Generator, error) {
	return newGenerator(g, s, cfg, KindExponential, func(src rand.Source) (distuv.Rander, error) {
		return newExponentialSampler(tau, src)
	})
}

// NewWeibullGenerator creates a generator with Weibull interarrivals.
// Note the argument order: scale (λ) first, then shape (κ).
func NewWeibullGenerator(g *sim.SimulatorGlobals, s *sim.Scheduler, cfg Config, scale, shape float64) (*Generator, error) {
	return newGenerator(g, s, cfg, KindWeibull, func(src rand.Source) (distuv.Rander, error) {
		return newWeibullSampler(scale, shape, src)
	})
}

// NewGammaGenerator creates a generator with Gamma(shape, scale) interarrivals.
func NewGammaGenerator(g *sim.SimulatorGlobals, s *sim.Scheduler, cfg Config, shape, scale float64) (*Generator, error) {
	return newGenerator(g, s, cfg, KindGamma, func(src rand.Source) (distuv.Rander, error) {
		return newGammaSampler(shape, scale, src)
	})
}

// NewGenerator creates a generator of the named kind from a parameter map,
// e.g. {"scale": 1, "shape": 5} for weibull.
func NewGenerator(g *sim.SimulatorGlobals, s *sim.Scheduler, cfg Config, kind Kind, params map[string]float64) (*Generator, error) {
	return newGenerator(g, s, cfg, kind, func(src rand.Source) (distuv.Rander, error) {
		return newSampler(kind, params, src)
	})
}

// newGenerator validates the sampler before touching shared state, so a
// rejected configuration never reseeds the engine.
func newGenerator(g *sim.SimulatorGlobals, s *sim.Scheduler, cfg Config, kind Kind,
	build func(rand.Source) (distuv.Rander, error)) (*Generator, error) {
	if g == nil {
		return nil, errors.New("traffic: generator requires non-nil simulator globals")
	}
	if s == nil {
		return nil, errors.New("traffic: generator requires non-nil scheduler")
	}
	if s.Globals() != g {
		return nil, errors.New("traffic: scheduler is bound to different simulator globals")
	}
	sampler, err := build(g.Source())
	if err != nil {
		return nil, fmt.Errorf("creating %s generator: %w", kind, err)
	}
	if cfg.EventType == "" {
		cfg.EventType = sim.EventTypeArrival
	}
	if cfg.ID == "" {
		cfg.ID = string(cfg.EventType)
	}
	cfg.ExplicitRoute = slices.Clone(cfg.ExplicitRoute)
	if cfg.Seed != nil {
		g.SeedRandomNumberGenerator(*cfg.Seed)
	}
	logrus.Debugf("generator %s: %s interarrivals, event type %s", cfg.ID, kind, cfg.EventType)
	return &Generator{
		globals: g,
		sched:   s,
		cfg:     cfg,
		kind:    kind,
		sampler: sampler,
		state:   Off,
	}, nil
}

// TurnOn enables token creation.
func (gen *Generator) TurnOn() { gen.state = On }

// TurnOff disables token creation. Already scheduled arrivals stay queued.
func (gen *Generator) TurnOff() { gen.state = Off }

// State returns the current state.
func (gen *Generator) State() State { return gen.state }

// IsOn reports whether the generator is On.
func (gen *Generator) IsOn() bool { return gen.state == On }

// CreateInstanceTrafficEvent mints a token with the configured payload and
// route and schedules its arrival.
//
// When the generator is Off it returns (nil, nil): no token ID is consumed,
// the count does not change and nothing is scheduled. The sampled delay is
// checked before the token is minted, so a rejected delay (non-finite, or too
// small to move the clock) returns an error with the count and the ID
// counter unchanged. That draw from the engine is still consumed.
func (gen *Generator) CreateInstanceTrafficEvent() (*sim.Token, error) {
	return gen.create(gen.cfg.Contents, gen.cfg.ExplicitRoute)
}

// CreateInstanceTrafficEventWithContents is CreateInstanceTrafficEvent with
// an explicit payload.
func (gen *Generator) CreateInstanceTrafficEventWithContents(contents sim.Entity) (*sim.Token, error) {
	return gen.create(contents, gen.cfg.ExplicitRoute)
}

// CreateInstanceTrafficEventWithRoute is CreateInstanceTrafficEvent with an
// explicit payload and route.
func (gen *Generator) CreateInstanceTrafficEventWithRoute(contents sim.Entity, route []sim.Entity) (*sim.Token, error) {
	return gen.create(contents, route)
}

func (gen *Generator) create(contents sim.Entity, route []sim.Entity) (*sim.Token, error) {
	if gen.state != On {
		return nil, nil
	}
	delay := gen.sampler.Rand()
	if err := gen.sched.CheckDelay(delay); err != nil {
		return nil, fmt.Errorf("generator %s: sampled delay: %w", gen.cfg.ID, err)
	}
	tok := gen.mint(contents, route)
	if err := gen.sched.Schedule(sim.NewArrivalEvent(delay, gen.cfg.EventType, tok)); err != nil {
		return nil, fmt.Errorf("generator %s: scheduling token %d: %w", gen.cfg.ID, tok.ID, err)
	}
	logrus.Debugf("[t=%.6f] generator %s minted %s, arrival in %g",
		gen.globals.CurrentAbsoluteTime(), gen.cfg.ID, tok, delay)
	return tok, nil
}

func (gen *Generator) mint(contents sim.Entity, route []sim.Entity) *sim.Token {
	tok := &sim.Token{
		ID:            gen.globals.TokenNextID(),
		Priority:      gen.cfg.Priority,
		Contents:      contents,
		Source:        gen.cfg.Source,
		Destination:   gen.cfg.Destination,
		ExplicitRoute: slices.Clone(route),
	}
	gen.tokensGenerated++
	return tok
}

// TokensGeneratedCount returns how many tokens this generator has minted.
func (gen *Generator) TokensGeneratedCount() uint64 { return gen.tokensGenerated }

// ID returns the generator's label.
func (gen *Generator) ID() string { return gen.cfg.ID }

// Kind returns the interarrival distribution name.
func (gen *Generator) Kind() Kind { return gen.kind }

// Sampler returns the interarrival sampler; type-assert to *ConstantSampler,
// *ExponentialSampler, *WeibullSampler or *GammaSampler for its parameters.
func (gen *Generator) Sampler() distuv.Rander { return gen.sampler }

// EventType returns the type of the events this generator schedules.
func (gen *Generator) EventType() sim.EventType { return gen.cfg.EventType }

// Priority returns the priority stamped on every token.
func (gen *Generator) Priority() int { return gen.cfg.Priority }

// Source returns the source entity stamped on every token.
func (gen *Generator) Source() sim.Entity { return gen.cfg.Source }

// Destination returns the destination entity stamped on every token.
func (gen *Generator) Destination() sim.Entity { return gen.cfg.Destination }

// Contents returns the default payload.
func (gen *Generator) Contents() sim.Entity { return gen.cfg.Contents }
