// sim/scheduler.go
package sim

import (
	"container/heap"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/traffic-sim/sim/trace"
)

var (
	// ErrEmptyQueue is returned by Cause when no events are pending.
	ErrEmptyQueue = errors.New("sim: cause called on empty event queue")

	// ErrInvalidDelay is returned by Schedule for negative or non-finite delays.
	ErrInvalidDelay = errors.New("sim: invalid event delay")
)

// eventQueue implements heap.Interface with deterministic ordering.
// Order by: absolute time → type priority (if configured) → insertion sequence.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type eventQueue struct {
	events       []Event
	typePriority map[EventType]int
}

func (q *eventQueue) Len() int { return len(q.events) }

func (q *eventQueue) Less(i, j int) bool {
	ei, ej := q.events[i], q.events[j]

	// Primary: absolute time (lower first)
	if ei.Time != ej.Time {
		return ei.Time < ej.Time
	}

	// Secondary: type priority (lower value first); absent map = FIFO only
	if q.typePriority != nil {
		pi, pj := q.typePriority[ei.Type], q.typePriority[ej.Type]
		if pi != pj {
			return pi < pj
		}
	}

	// Tertiary: insertion sequence
	return ei.seq < ej.seq
}

func (q *eventQueue) Swap(i, j int) { q.events[i], q.events[j] = q.events[j], q.events[i] }

func (q *eventQueue) Push(x any) {
	q.events = append(q.events, x.(Event))
}

func (q *eventQueue) Pop() any {
	old := q.events
	n := len(old)
	item := old[n-1]
	old[n-1] = Event{}
	q.events = old[0 : n-1]
	return item
}

// EventHandler consumes a caused event. A non-nil error stops RunUntil.
type EventHandler func(Event) error

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTypePriority orders same-time events by type priority (lower value
// first) before falling back to insertion order. Types missing from the map
// get priority 0.
func WithTypePriority(priorities map[EventType]int) SchedulerOption {
	return func(s *Scheduler) {
		cp := make(map[EventType]int, len(priorities))
		for k, v := range priorities {
			cp[k] = v
		}
		s.queue.typePriority = cp
	}
}

// WithTrace attaches a trace that receives a record for every caused event
// while the globals trace flag is on.
func WithTrace(st *trace.SimulationTrace) SchedulerOption {
	return func(s *Scheduler) {
		s.trace = st
	}
}

// Scheduler owns the pending events of a run. Schedule inserts, Cause pops
// the earliest event and advances the shared clock to its time. Cause is the
// only code path that moves the clock.
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type Scheduler struct {
	globals *SimulatorGlobals
	queue   eventQueue
	nextSeq uint64
	trace   *trace.SimulationTrace
}

// NewScheduler creates an empty scheduler bound to globals.
func NewScheduler(globals *SimulatorGlobals, opts ...SchedulerOption) *Scheduler {
	if globals == nil {
		panic("sim: NewScheduler requires non-nil globals")
	}
	s := &Scheduler{
		globals: globals,
		queue:   eventQueue{events: make([]Event, 0)},
	}
	for _, opt := range opts {
		opt(s)
	}
	heap.Init(&s.queue)
	return s
}

// CheckDelay reports whether Schedule would accept delay at the current
// clock. A zero delay is legal; a positive delay must move the absolute time
// forward, which fails when it is below the float spacing at the clock.
func (s *Scheduler) CheckDelay(delay float64) error {
	if math.IsNaN(delay) || math.IsInf(delay, 0) || delay < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidDelay, delay)
	}
	if now := s.globals.CurrentAbsoluteTime(); delay > 0 && now+delay == now {
		return fmt.Errorf("%w: %g does not advance clock %g", ErrInvalidDelay, delay, now)
	}
	return nil
}

// Schedule inserts ev to occur ev.Time after the current clock.
func (s *Scheduler) Schedule(ev Event) error {
	if err := s.CheckDelay(ev.Time); err != nil {
		return err
	}
	s.nextSeq++
	ev.seq = s.nextSeq
	ev.Time = s.globals.CurrentAbsoluteTime() + ev.Time
	heap.Push(&s.queue, ev)
	return nil
}

// Cause removes and returns the earliest pending event and advances the clock
// to its occurrence time.
func (s *Scheduler) Cause() (Event, error) {
	if s.queue.Len() == 0 {
		return Event{}, ErrEmptyQueue
	}
	ev := heap.Pop(&s.queue).(Event)
	s.globals.setCurrentAbsoluteTime(ev.Time)
	if s.globals.TraceEnabled() {
		s.record(ev)
	}
	return ev, nil
}

func (s *Scheduler) record(ev Event) {
	rec := trace.EventRecord{
		Seq:   ev.seq,
		Clock: ev.Time,
		Type:  string(ev.Type),
	}
	if ev.Token != nil {
		rec.TokenID = ev.Token.ID
		rec.HasToken = true
		logrus.Tracef("[t=%.6f] Causing %s carrying %s", ev.Time, ev.Type, ev.Token)
	} else {
		logrus.Tracef("[t=%.6f] Causing %s", ev.Time, ev.Type)
	}
	if s.trace != nil {
		s.trace.RecordCause(rec)
	}
}

// Peek returns the next event without removing it.
func (s *Scheduler) Peek() (Event, bool) {
	if s.queue.Len() == 0 {
		return Event{}, false
	}
	return s.queue.events[0], true
}

// Len returns the number of pending events.
func (s *Scheduler) Len() int {
	return s.queue.Len()
}

// Globals returns the context the scheduler advances.
func (s *Scheduler) Globals() *SimulatorGlobals {
	return s.globals
}

// RunUntil causes every event whose absolute time is <= horizon, handing each
// to handle in order. It returns the number of events caused. The clock is
// left at the last caused event; events past the horizon stay queued.
// A handler error stops the loop and is returned wrapped.
func (s *Scheduler) RunUntil(horizon float64, handle EventHandler) (int, error) {
	caused := 0
	for {
		next, ok := s.Peek()
		if !ok || next.Time > horizon {
			break
		}
		ev, err := s.Cause()
		if err != nil {
			return caused, err
		}
		caused++
		if handle == nil {
			continue
		}
		if err := handle(ev); err != nil {
			return caused, fmt.Errorf("handling %s at %g: %w", ev.Type, ev.Time, err)
		}
	}
	logrus.Debugf("[t=%.6f] run stopped after %d events; %d pending", s.globals.CurrentAbsoluteTime(), caused, s.queue.Len())
	return caused, nil
}
