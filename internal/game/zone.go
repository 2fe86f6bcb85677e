package game

import (
	"iter"
	"slices"
	"strconv"
)

// Zone is an ordered collection of entity references: a deck, a hand, a
// discard pile. A zone never owns its members; it only tracks membership
// and order. Every mutation emits add/remove transitions to all current
// players once the zone is registered.
type Zone struct {
	*Object
	items []Entity
}

// NewZone creates a detached, empty zone.
func NewZone() *Zone {
	return &Zone{Object: NewObject(KindZone)}
}

// Push appends e to the end of the zone.
func (z *Zone) Push(e Entity) {
	z.items = append(z.items, e)
	z.emit(Transition{Kind: TransitionAdd, Subject: z, Value: e}, nil)
}

// Pop removes and returns the last entity in the zone. It reports false when
// the zone is empty.
func (z *Zone) Pop() (Entity, bool) {
	if len(z.items) == 0 {
		return nil, false
	}
	last := len(z.items) - 1
	e := z.items[last]
	z.items[last] = nil
	z.items = z.items[:last]
	z.emit(Transition{Kind: TransitionRemove, Subject: z, Value: e}, nil)
	return e, true
}

// Add puts e into the zone. Callers must not rely on where it lands.
func (z *Zone) Add(e Entity) {
	z.Push(e)
}

// Remove removes the first member equal to e. Nothing happens when no
// member matches.
func (z *Zone) Remove(e Entity) {
	i := z.index(e)
	if i < 0 {
		return
	}
	removed := z.items[i]
	z.items = slices.Delete(z.items, i, i+1)
	z.emit(Transition{Kind: TransitionRemove, Subject: z, Value: removed}, nil)
}

// Set replaces the contents of the zone with es. It is a Clear followed by a
// Push of each entity, and emits transitions accordingly.
func (z *Zone) Set(es []Entity) {
	next := slices.Clone(es)
	z.Clear()
	for _, e := range next {
		z.Push(e)
	}
}

// Clear pops every member, emitting one remove per member.
func (z *Zone) Clear() {
	for len(z.items) > 0 {
		z.Pop()
	}
}

// Transfer moves every member into target, keeping their order, and leaves
// this zone empty.
func (z *Zone) Transfer(target *Zone) {
	target.Set(z.items)
	z.Clear()
}

// Len returns the number of members.
func (z *Zone) Len() int {
	return len(z.items)
}

// At returns the member at index i. Negative indexes count from the end.
func (z *Zone) At(i int) Entity {
	if i < 0 {
		i += len(z.items)
	}
	return z.items[i]
}

// Slice returns a copy of the members in [i, j).
func (z *Zone) Slice(i, j int) []Entity {
	return slices.Clone(z.items[i:j])
}

// Items returns a copy of all members in order.
func (z *Zone) Items() []Entity {
	return slices.Clone(z.items)
}

// All iterates over the members in order.
func (z *Zone) All() iter.Seq2[int, Entity] {
	return func(yield func(int, Entity) bool) {
		for i, e := range z.items {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Contains reports whether a member equal to e is present.
func (z *Zone) Contains(e Entity) bool {
	return z.index(e) >= 0
}

// Serialize extends the object serialization with the ids of the members.
func (z *Zone) Serialize(viewer *Player) map[string]any {
	result := z.Object.Serialize(viewer)
	objects := make([]any, len(z.items))
	for i, e := range z.items {
		objects[i] = Normalize(e)
	}
	result["objects"] = objects
	return result
}

func (z *Zone) index(e Entity) int {
	return slices.IndexFunc(z.items, func(item Entity) bool {
		return sameEntity(item, e)
	})
}

// sameEntity compares by value when either side defines equality and by
// identity otherwise.
func sameEntity(a, b Entity) bool {
	if eq, ok := a.(Equaler); ok {
		return eq.Equal(b)
	}
	if eq, ok := b.(Equaler); ok {
		return eq.Equal(a)
	}
	return a == b
}

// ZoneSpec describes a zone to create on a game or player. With a positive
// Multiplicity the zone is created that many times, named Name0..NameN-1.
type ZoneSpec struct {
	Name         string
	Multiplicity int
	Attributes   map[string]any
}

// ZoneHolder is implemented by entities that own named zones: games and
// players.
type ZoneHolder interface {
	Entity
	Zones() map[string]*Zone
	Zone(name string) *Zone
}

// zoneSet is the shared zone storage of games and players.
type zoneSet struct {
	zones map[string]*Zone
	order []string
}

// Zones returns the holder's zones by name.
func (s *zoneSet) Zones() map[string]*Zone {
	return s.zones
}

// Zone returns the named zone, or nil.
func (s *zoneSet) Zone(name string) *Zone {
	return s.zones[name]
}

// zoneList returns the zones in creation order.
func (s *zoneSet) zoneList() []*Zone {
	out := make([]*Zone, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.zones[name])
	}
	return out
}

// loadZones creates the zones described by specs and returns them in
// creation order.
func (s *zoneSet) loadZones(specs []ZoneSpec) []*Zone {
	if s.zones == nil {
		s.zones = make(map[string]*Zone)
	}
	var created []*Zone
	for _, spec := range specs {
		if spec.Multiplicity > 0 {
			for i := range spec.Multiplicity {
				created = append(created, s.addZone(spec, spec.Name+strconv.Itoa(i)))
			}
			continue
		}
		created = append(created, s.addZone(spec, spec.Name))
	}
	return created
}

func (s *zoneSet) addZone(spec ZoneSpec, name string) *Zone {
	zone := NewZone()
	zone.SetAttribute("name", name)
	for key, value := range spec.Attributes {
		zone.SetAttribute(key, value)
	}
	s.zones[name] = zone
	s.order = append(s.order, name)
	return zone
}
