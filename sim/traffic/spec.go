package traffic

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/traffic-sim/sim"
	"github.com/inference-sim/traffic-sim/sim/trace"
)

// TrafficSpec is the top-level traffic configuration.
// Loaded from YAML via LoadTrafficSpec(path).
type TrafficSpec struct {
	Version    string          `yaml:"version"`
	Seed       *int64          `yaml:"seed,omitempty"` // nil = non-deterministic seed
	StartTime  float64         `yaml:"start_time,omitempty"`
	WarmUp     float64         `yaml:"warm_up,omitempty"` // interval after start excluded from post-warm-up counts
	Horizon    float64         `yaml:"horizon"` // run length measured from start_time
	Trace      string          `yaml:"trace,omitempty"` // "none" (default) or "events"
	Generators []GeneratorSpec `yaml:"generators"`
}

// GeneratorSpec defines a single traffic source.
type GeneratorSpec struct {
	ID           string   `yaml:"id"`
	EventType    string   `yaml:"event_type,omitempty"` // default: ID
	Source       string   `yaml:"source"`
	Destination  string   `yaml:"destination"`
	Contents     string   `yaml:"contents,omitempty"`
	Priority     int      `yaml:"priority,omitempty"`
	Route        []string `yaml:"route,omitempty"`
	StartOn      bool     `yaml:"start_on"`
	Distribution DistSpec `yaml:"distribution"`
}

// DistSpec parameterizes an interarrival distribution.
type DistSpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// LoadTrafficSpec reads and parses a YAML traffic spec file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadTrafficSpec(path string) (*TrafficSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading traffic spec: %w", err)
	}
	return ParseTrafficSpec(data)
}

// ParseTrafficSpec parses a YAML traffic spec.
func ParseTrafficSpec(data []byte) (*TrafficSpec, error) {
	var spec TrafficSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing traffic spec: %w", err)
	}
	if spec.Version == "" {
		spec.Version = sim.Version
	}
	return &spec, nil
}

// Validate checks that all fields of the traffic spec are valid.
// Parameter values themselves are checked again at generator construction.
func (s *TrafficSpec) Validate() error {
	if math.IsNaN(s.Horizon) || math.IsInf(s.Horizon, 0) || s.Horizon <= 0 {
		return fmt.Errorf("horizon must be a positive finite number, got %f", s.Horizon)
	}
	if math.IsNaN(s.StartTime) || math.IsInf(s.StartTime, 0) {
		return fmt.Errorf("start_time must be a finite number, got %f", s.StartTime)
	}
	if math.IsNaN(s.WarmUp) || math.IsInf(s.WarmUp, 0) || s.WarmUp < 0 {
		return fmt.Errorf("warm_up must be a non-negative finite number, got %f", s.WarmUp)
	}
	if !trace.IsValidTraceLevel(s.Trace) {
		return fmt.Errorf("unknown trace level %q; valid: none, events", s.Trace)
	}
	if len(s.Generators) == 0 {
		return fmt.Errorf("at least one generator required")
	}
	ids := make(map[string]bool, len(s.Generators))
	types := make(map[string]string, len(s.Generators))
	for i := range s.Generators {
		gs := &s.Generators[i]
		if err := validateGenerator(gs, i, s.StartTime+s.Horizon); err != nil {
			return err
		}
		if ids[gs.ID] {
			return fmt.Errorf("generator[%d]: duplicate id %q", i, gs.ID)
		}
		ids[gs.ID] = true
		et := gs.eventType()
		if other, ok := types[et]; ok {
			return fmt.Errorf("generator[%d]: event_type %q already used by %q", i, et, other)
		}
		types[et] = gs.ID
	}
	return nil
}

// end is the absolute end of the run, where the clock has its coarsest
// float spacing.
func validateGenerator(gs *GeneratorSpec, idx int, end float64) error {
	prefix := fmt.Sprintf("generator[%d]", idx)
	if gs.ID == "" {
		return fmt.Errorf("%s: id is required", prefix)
	}
	if !IsValidKind(gs.Distribution.Type) {
		return fmt.Errorf("%s: unknown distribution type %q; valid: constant, exponential, weibull, gamma", prefix, gs.Distribution.Type)
	}
	for _, name := range validKinds[Kind(gs.Distribution.Type)] {
		val, ok := gs.Distribution.Params[name]
		if !ok {
			return fmt.Errorf("%s.distribution: missing parameter %q", prefix, name)
		}
		if err := validateFinitePositive(prefix+".distribution.params."+name, val); err != nil {
			return err
		}
	}
	switch Kind(gs.Distribution.Type) {
	case KindWeibull:
		if err := validateWeibullShape(gs.Distribution.Params["shape"]); err != nil {
			return fmt.Errorf("%s.distribution: %w", prefix, err)
		}
	case KindConstant:
		if interval := gs.Distribution.Params["interval"]; end+interval == end {
			return fmt.Errorf("%s.distribution: interval %g does not advance the clock at %g", prefix, interval, end)
		}
	}
	return nil
}

func (gs *GeneratorSpec) eventType() string {
	if gs.EventType != "" {
		return gs.EventType
	}
	return gs.ID
}

// TraceLevel returns the configured trace level.
func (s *TrafficSpec) TraceLevel() trace.TraceLevel {
	if s.Trace == "" {
		return trace.TraceLevelNone
	}
	return trace.TraceLevel(s.Trace)
}

// GlobalsConfig returns the SimulatorGlobals construction parameters the
// spec describes.
func (s *TrafficSpec) GlobalsConfig() sim.GlobalsConfig {
	return sim.GlobalsConfig{
		CurrentTime: s.StartTime,
		StartTime:   s.StartTime,
		Trace:       s.TraceLevel().Enabled(),
		Version:     s.Version,
	}
}

// NewGlobals creates SimulatorGlobals for s, seeded from Seed when set.
func (s *TrafficSpec) NewGlobals() *sim.SimulatorGlobals {
	if s.Seed != nil {
		return sim.NewSeededSimulatorGlobals(s.GlobalsConfig(), *s.Seed)
	}
	return sim.NewSimulatorGlobals(s.GlobalsConfig())
}

// entity maps a spec name to an entity; "" means none.
func entity(name string) sim.Entity {
	if name == "" {
		return nil
	}
	return sim.NamedEntity(name)
}

// Build constructs the generators in declaration order, which fixes the
// order of their RNG draws. Generators with start_on are turned On but no
// tokens are created; see Driver.Start.
func (s *TrafficSpec) Build(g *sim.SimulatorGlobals, sched *sim.Scheduler) ([]*Generator, error) {
	gens := make([]*Generator, 0, len(s.Generators))
	for i := range s.Generators {
		gs := &s.Generators[i]
		var route []sim.Entity
		for _, hop := range gs.Route {
			route = append(route, entity(hop))
		}
		cfg := Config{
			ID:            gs.ID,
			EventType:     sim.EventType(gs.eventType()),
			Contents:      entity(gs.Contents),
			Source:        entity(gs.Source),
			Destination:   entity(gs.Destination),
			Priority:      gs.Priority,
			ExplicitRoute: route,
		}
		gen, err := NewGenerator(g, sched, cfg, Kind(gs.Distribution.Type), gs.Distribution.Params)
		if err != nil {
			return nil, fmt.Errorf("generator[%d] %q: %w", i, gs.ID, err)
		}
		if gs.StartOn {
			gen.TurnOn()
		}
		gens = append(gens, gen)
	}
	logrus.Infof("built %d generators", len(gens))
	return gens, nil
}
