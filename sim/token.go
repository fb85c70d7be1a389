// Defines the Entity capability and the Token record that models a unit of
// simulated traffic moving from a source entity to a destination entity.

package sim

import (
	"fmt"
	"strings"
)

// Entity is anything that can act as a token's source, destination or
// payload: a message, a node, an interface. Entities are shared read-mostly
// by every Token that references them.
type Entity interface {
	Name() string
}

// NamedEntity is the simplest Entity: identity only.
type NamedEntity string

// Name returns the entity's identity.
func (e NamedEntity) Name() string { return string(e) }

// entityName tolerates nil entities, which are legal token fields.
func entityName(e Entity) string {
	if e == nil {
		return "<nil>"
	}
	return e.Name()
}

// Token is a uniquely identified unit of traffic. Tokens are minted only by
// traffic generators and are not mutated afterwards by the core.
type Token struct {
	ID            uint64   // unique within a run, assigned by SimulatorGlobals.TokenNextID
	Priority      int      // caller-supplied; larger = more urgent
	Contents      Entity   // payload
	Source        Entity   // originating entity
	Destination   Entity   // terminating entity
	ExplicitRoute []Entity // optional hop list; nil when routing is left to downstream logic
}

// HasExplicitRoute reports whether the token carries its own route.
func (t *Token) HasExplicitRoute() bool {
	return len(t.ExplicitRoute) > 0
}

// String renders the token for log lines.
func (t *Token) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "token#%d[%s->%s prio=%d contents=%s", t.ID,
		entityName(t.Source), entityName(t.Destination), t.Priority, entityName(t.Contents))
	if t.HasExplicitRoute() {
		hops := make([]string, len(t.ExplicitRoute))
		for i, h := range t.ExplicitRoute {
			hops[i] = entityName(h)
		}
		fmt.Fprintf(&b, " route=%s", strings.Join(hops, ","))
	}
	b.WriteByte(']')
	return b.String()
}
