package game

import (
	"fmt"
	"maps"
	"slices"
)

// Args holds the arguments of an action call keyed by parameter name.
// Declared parameters hold resolved entities (or entity slices); any other
// value is passed through as decoded from the request.
type Args map[string]any

// Entity returns the named argument as an entity.
func (a Args) Entity(name string) (Entity, bool) {
	e, ok := a[name].(Entity)
	return e, ok
}

// Arg returns the named argument converted to T.
func Arg[T any](args Args, name string) (T, error) {
	var zero T
	raw, ok := args[name]
	if !ok {
		return zero, fmt.Errorf("missing argument %q", name)
	}
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("argument %q has type %T, want %T", name, raw, zero)
	}
	return v, nil
}

// Restriction is a precondition of an action. Check receives the acting
// player and the exact arguments of the call.
type Restriction struct {
	Description string
	Check       func(player *Player, args Args) bool
}

// Restrict builds a restriction from a description and predicate.
func Restrict(description string, check func(player *Player, args Args) bool) Restriction {
	return Restriction{Description: description, Check: check}
}

// ActionFunc is the body of an action.
type ActionFunc func(player *Player, args Args) error

// Action is a named, restriction-guarded operation on a game. Params maps
// each entity-valued parameter to the kind it must resolve to.
type Action struct {
	Name         string
	Params       map[string]Kind
	Restrictions []Restriction
	Run          ActionFunc
}

// actionRegistry maps action names to their definitions.
type actionRegistry struct {
	actions map[string]*Action
}

func (r *actionRegistry) register(a Action) {
	if r.actions == nil {
		r.actions = make(map[string]*Action)
	}
	if a.Params == nil {
		a.Params = map[string]Kind{}
	}
	r.actions[a.Name] = &a
}

func (r *actionRegistry) lookup(name string) (*Action, bool) {
	a, ok := r.actions[name]
	return a, ok
}

func (r *actionRegistry) names() []string {
	return slices.Sorted(maps.Keys(r.actions))
}

// run evaluates every restriction in order and only then executes the body.
func (a *Action) run(player *Player, args Args) error {
	for _, res := range a.Restrictions {
		if !res.Check(player, args) {
			return &RestrictionError{Action: a.Name, Description: res.Description}
		}
	}
	return a.Run(player, args)
}
