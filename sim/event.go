package sim

// EventType tags an event so consumers can dispatch on arrival kind.
// Callers can define their own values; the constants below cover the
// common cases.
type EventType string

const (
	EventTypeArrival   EventType = "Arrival"
	EventTypeDeparture EventType = "Departure"
	EventTypeTimer     EventType = "Timer"
)

// Event is a scheduled occurrence carrying an optional Token or entity list.
//
// Time is interpreted by context: when handed to Scheduler.Schedule it is a
// delay relative to the clock at the moment of insertion; the copy returned
// by Scheduler.Cause carries the absolute occurrence time in the same field.
// Events are values: the scheduler stores its own copy, so mutating an Event
// after Schedule has no effect on the queue.
type Event struct {
	Time     float64
	Type     EventType
	Token    *Token   // nil for token-less events
	Entities []Entity // optional auxiliary payload

	seq uint64 // insertion sequence, assigned by Schedule
}

// NewArrivalEvent builds an event that delivers tok after delay.
func NewArrivalEvent(delay float64, eventType EventType, tok *Token) Event {
	return Event{
		Time:  delay,
		Type:  eventType,
		Token: tok,
	}
}

// Seq returns the insertion sequence number assigned by the scheduler
// (0 for events that were never scheduled).
func (e Event) Seq() uint64 {
	return e.seq
}

// HasToken reports whether the event carries a token.
func (e Event) HasToken() bool {
	return e.Token != nil
}
