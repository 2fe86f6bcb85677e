package game

import (
	"fmt"
	"maps"
	"reflect"
)

// Kind names the type of an entity as it appears on the wire.
type Kind string

// Built-in entity kinds.
const (
	KindObject Kind = "GameObject"
	KindGame   Kind = "Game"
	KindPlayer Kind = "Player"
	KindZone   Kind = "Zone"
)

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// Entity is an addressable piece of game state. Every entity embeds an
// *Object, which provides the attribute store and registry bookkeeping.
type Entity interface {
	ID() (int, bool)
	Kind() Kind
	Attribute(name string) (any, error)
	AttributeFor(viewer *Player, name string) (any, error)
	SetAttribute(name string, value any)
	SetAttributeFor(viewer *Player, name string, value any)
	Serialize(viewer *Player) map[string]any

	object() *Object
}

// Equaler is implemented by entities that compare by value rather than by
// identity, e.g. playing cards compared by rank and suit.
type Equaler interface {
	Equal(other Entity) bool
}

// transitionSink receives the transitions emitted by registered entities.
type transitionSink interface {
	AddTransition(t Transition, player *Player)
}

// Object is the base of every entity: an optional registry id, the sink the
// entity reports its changes to, and its attributes.
type Object struct {
	kind       Kind
	id         int
	registered bool
	owner      transitionSink
	self       Entity

	attributes map[string]any
	overrides  map[*Player]map[string]any
}

// NewObject creates a detached object of the given kind.
func NewObject(kind Kind) *Object {
	if kind == "" {
		kind = KindObject
	}
	return &Object{
		kind:       kind,
		attributes: make(map[string]any),
		overrides:  make(map[*Player]map[string]any),
	}
}

func (o *Object) object() *Object { return o }

// ID returns the registry id and whether the object is currently registered.
func (o *Object) ID() (int, bool) {
	return o.id, o.registered
}

// Kind returns the entity kind.
func (o *Object) Kind() Kind {
	return o.kind
}

// SetAttribute sets a globally visible attribute and records a set
// transition for every current player of the owning game.
func (o *Object) SetAttribute(name string, value any) {
	o.attributes[name] = value
	o.emit(Transition{Kind: TransitionSet, Subject: o.entity(), Field: name, Value: value}, nil)
}

// SetAttributeFor sets an attribute override only visible to viewer. A nil
// viewer sets the global value.
func (o *Object) SetAttributeFor(viewer *Player, name string, value any) {
	if viewer == nil {
		o.SetAttribute(name, value)
		return
	}
	scoped, ok := o.overrides[viewer]
	if !ok {
		scoped = make(map[string]any)
		o.overrides[viewer] = scoped
	}
	scoped[name] = value
	o.emit(Transition{Kind: TransitionSet, Subject: o.entity(), Field: name, Value: value}, viewer)
}

// Attribute returns the global value of an attribute.
func (o *Object) Attribute(name string) (any, error) {
	return o.AttributeFor(nil, name)
}

// AttributeFor returns the value of name as seen by viewer: the viewer's
// override if one exists, otherwise the global value.
func (o *Object) AttributeFor(viewer *Player, name string) (any, error) {
	if viewer != nil {
		if v, ok := o.overrides[viewer][name]; ok {
			return v, nil
		}
	}
	if v, ok := o.attributes[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrAttributeNotFound, name)
}

// Serialize returns the attributes effective for viewer together with the
// object's id and kind. Entity references are replaced by their ids.
func (o *Object) Serialize(viewer *Player) map[string]any {
	result := make(map[string]any, len(o.attributes)+2)
	for name, value := range o.attributes {
		result[name] = value
	}
	if viewer != nil {
		maps.Copy(result, o.overrides[viewer])
	}
	result["game_id"] = o.idOrNil()
	result["type"] = string(o.kind)
	return Normalize(result).(map[string]any)
}

// entity returns the outermost entity this object was registered as.
func (o *Object) entity() Entity {
	if o.self != nil {
		return o.self
	}
	return o
}

func (o *Object) idOrNil() any {
	if !o.registered {
		return nil
	}
	return o.id
}

// emit forwards a transition to the owning game. Unregistered objects are
// silent.
func (o *Object) emit(t Transition, player *Player) {
	if o.owner == nil || !o.registered {
		return
	}
	o.owner.AddTransition(t, player)
}

// Normalize replaces every entity inside v with its id, descending through
// slices, arrays and maps. Unregistered entities become nil.
func Normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case Entity:
		if rv := reflect.ValueOf(t); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil
		}
		return t.object().idOrNil()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = Normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Normalize(item)
		}
		return out
	case string, bool, int, int64, float64:
		return v
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return v
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(Normalize(iter.Key().Interface()))] = Normalize(iter.Value().Interface())
		}
		return out
	}
	return v
}
