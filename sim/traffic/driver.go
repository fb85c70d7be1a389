package traffic

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/traffic-sim/sim"
)

// RunSummary reports what a Driver run caused.
type RunSummary struct {
	Caused     int               // events caused, of any type
	Arrivals   map[string]uint64 // generator ID → arrivals caused
	PostWarmUp map[string]uint64 // generator ID → arrivals caused at or after the warm-up boundary
	EndClock   float64           // clock after the last caused event
	Pending    int               // events left queued past the horizon
}

// Driver is a minimal outer loop: every caused arrival of a generator's event
// type re-arms that generator, so each On generator keeps exactly one arrival
// in flight. Events of other types are passed to the observer untouched.
//
// After each caused event, any generator that is On with no arrival in flight
// (turned On by the observer, or On but never started) is armed at the
// current clock.
type Driver struct {
	sched   *sim.Scheduler
	gens    []*Generator
	byType  map[sim.EventType]*Generator
	arrived map[*Generator]uint64 // arrivals caused so far, across runs
	warmUp  float64
}

// NewDriver binds generators to sched. Two generators may not share an event
// type, since the caused event could not be attributed.
func NewDriver(sched *sim.Scheduler, gens []*Generator, warmUp float64) (*Driver, error) {
	byType := make(map[sim.EventType]*Generator, len(gens))
	for _, gen := range gens {
		if other, ok := byType[gen.EventType()]; ok {
			return nil, fmt.Errorf("generators %q and %q share event type %q", other.ID(), gen.ID(), gen.EventType())
		}
		byType[gen.EventType()] = gen
	}
	return &Driver{
		sched:   sched,
		gens:    gens,
		byType:  byType,
		arrived: make(map[*Generator]uint64, len(gens)),
		warmUp:  warmUp,
	}, nil
}

// Start arms every On generator that has no arrival in flight. Off
// generators are left alone; calling Start twice arms nothing new.
func (d *Driver) Start() error {
	return d.armIdle()
}

// Run causes events up to the absolute time horizon. observe, if non-nil,
// sees every caused event after the owning generator has been re-armed.
func (d *Driver) Run(horizon float64, observe sim.EventHandler) (RunSummary, error) {
	summary := RunSummary{
		Arrivals:   make(map[string]uint64, len(d.gens)),
		PostWarmUp: make(map[string]uint64, len(d.gens)),
	}
	globals := d.sched.Globals()
	caused, err := d.sched.RunUntil(horizon, func(ev sim.Event) error {
		if gen, ok := d.byType[ev.Type]; ok && ev.HasToken() {
			d.arrived[gen]++
			summary.Arrivals[gen.ID()]++
			if globals.SimulationDuration() >= d.warmUp {
				summary.PostWarmUp[gen.ID()]++
			}
			if _, err := gen.CreateInstanceTrafficEvent(); err != nil {
				return err
			}
		}
		if observe != nil {
			if err := observe(ev); err != nil {
				return err
			}
		}
		return d.armIdle()
	})
	summary.Caused = caused
	summary.EndClock = globals.CurrentAbsoluteTime()
	summary.Pending = d.sched.Len()
	if err != nil {
		return summary, err
	}
	logrus.Infof("[t=%.6f] caused %d events, %d pending", summary.EndClock, caused, summary.Pending)
	return summary, nil
}

// armIdle arms every On generator with nothing in flight. Every minted token
// is scheduled on d.sched, so in flight is minted minus arrived.
func (d *Driver) armIdle() error {
	for _, gen := range d.gens {
		if !gen.IsOn() || gen.TokensGeneratedCount() > d.arrived[gen] {
			continue
		}
		if _, err := gen.CreateInstanceTrafficEvent(); err != nil {
			return err
		}
	}
	return nil
}
