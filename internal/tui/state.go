package tui

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/lox/deckr/internal/client"
)

// Object is the client's copy of one game object.
type Object struct {
	ID         int
	Type       string
	Attributes map[string]any
	// Members holds the ids in a zone, in order. Nil entries are objects the
	// server no longer addresses.
	Members []*int
}

// State mirrors the joined game from game_state responses and update
// messages.
type State struct {
	objects map[int]*Object
}

// NewState creates an empty state.
func NewState() *State {
	return &State{objects: make(map[int]*Object)}
}

// Reset replaces the state with a game_state snapshot.
func (s *State) Reset(snapshot []map[string]any) error {
	objects := make(map[int]*Object, len(snapshot))
	for _, entry := range snapshot {
		id, ok := asID(entry["game_id"])
		if !ok {
			continue
		}
		obj := &Object{ID: id, Attributes: make(map[string]any)}
		for k, v := range entry {
			switch k {
			case "game_id":
			case "type":
				obj.Type, _ = v.(string)
			case "objects":
				members, err := asMembers(v)
				if err != nil {
					return fmt.Errorf("object %d: %w", id, err)
				}
				obj.Members = members
			default:
				obj.Attributes[k] = v
			}
		}
		objects[id] = obj
	}
	s.objects = objects
	return nil
}

// Clear forgets everything.
func (s *State) Clear() {
	s.objects = make(map[int]*Object)
}

// Len returns the number of known objects.
func (s *State) Len() int {
	return len(s.objects)
}

// Object returns the object with the given id.
func (s *State) Object(id int) (*Object, bool) {
	obj, ok := s.objects[id]
	return obj, ok
}

// Apply applies one update. Objects the state has not seen yet are created
// on demand.
func (s *State) Apply(u client.Update) error {
	switch u.UpdateType {
	case "set":
		var v any
		if len(u.Value) > 0 {
			if err := json.Unmarshal(u.Value, &v); err != nil {
				return fmt.Errorf("decode value: %w", err)
			}
		}
		s.get(u.GameObject).Attributes[u.Field] = v
	case "add":
		zone := s.get(u.TargetZone)
		zone.Members = append(zone.Members, u.Object)
	case "remove":
		zone := s.get(u.TargetZone)
		zone.Members = slices.DeleteFunc(zone.Members, matchOnce(u.Object))
	default:
		return fmt.Errorf("unknown update type %q", u.UpdateType)
	}
	return nil
}

func (s *State) get(id int) *Object {
	obj, ok := s.objects[id]
	if !ok {
		obj = &Object{ID: id, Attributes: make(map[string]any)}
		s.objects[id] = obj
	}
	return obj
}

// Lines renders every object on one line each, in id order.
func (s *State) Lines() []string {
	ids := slices.Sorted(maps.Keys(s.objects))
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, s.objects[id].String())
	}
	return lines
}

func (o *Object) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d", o.ID)
	if o.Type != "" {
		fmt.Fprintf(&b, " %s", o.Type)
	}
	for _, k := range slices.Sorted(maps.Keys(o.Attributes)) {
		fmt.Fprintf(&b, " %s=%v", k, formatValue(o.Attributes[k]))
	}
	if o.Members != nil {
		ids := make([]string, len(o.Members))
		for i, m := range o.Members {
			ids[i] = formatValue(idOrNil(m))
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(ids, " "))
	}
	return b.String()
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case float64:
		if t == float64(int(t)) {
			return fmt.Sprintf("%d", int(t))
		}
	}
	return fmt.Sprint(v)
}

func idOrNil(id *int) any {
	if id == nil {
		return nil
	}
	return *id
}

// matchOnce returns a predicate true for the first member equal to id.
func matchOnce(id *int) func(*int) bool {
	done := false
	return func(m *int) bool {
		if done {
			return false
		}
		if (m == nil && id == nil) || (m != nil && id != nil && *m == *id) {
			done = true
			return true
		}
		return false
	}
}

func asID(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

func asMembers(v any) ([]*int, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("objects is %T, want a list", v)
	}
	members := make([]*int, len(items))
	for i, item := range items {
		if item == nil {
			continue
		}
		id, ok := asID(item)
		if !ok {
			return nil, fmt.Errorf("objects[%d] is not an id", i)
		}
		members[i] = &id
	}
	return members, nil
}
