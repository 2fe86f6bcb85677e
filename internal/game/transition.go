package game

// TransitionKind identifies what a transition changed.
type TransitionKind string

const (
	// TransitionSet records an attribute change on the subject.
	TransitionSet TransitionKind = "set"
	// TransitionAdd records Value being added to the subject zone.
	TransitionAdd TransitionKind = "add"
	// TransitionRemove records Value being removed from the subject zone.
	TransitionRemove TransitionKind = "remove"
)

// String returns the string representation of the transition kind
func (k TransitionKind) String() string {
	return string(k)
}

// Transition is one recorded state change. For set transitions Subject is
// the changed entity and Field/Value the attribute; for add and remove
// Subject is the zone and Value the entity that moved.
type Transition struct {
	Kind    TransitionKind
	Subject Entity
	Field   string
	Value   any
}

// Wire returns the transition as protocol fields with every entity reference
// replaced by its id.
func (t Transition) Wire() map[string]any {
	switch t.Kind {
	case TransitionSet:
		return map[string]any{
			"update_type": string(t.Kind),
			"game_object": Normalize(t.Subject),
			"field":       t.Field,
			"value":       Normalize(t.Value),
		}
	default:
		return map[string]any{
			"update_type": string(t.Kind),
			"target_zone": Normalize(t.Subject),
			"object":      Normalize(t.Value),
		}
	}
}

// PlayerTransitions pairs a player with the transitions queued for them.
type PlayerTransitions struct {
	Player      *Player
	Transitions []Transition
}

// transitionLog holds per-player queues of pending transitions.
type transitionLog struct {
	queues map[*Player][]Transition
}

func newTransitionLog() transitionLog {
	return transitionLog{queues: make(map[*Player][]Transition)}
}

func (l *transitionLog) add(t Transition, player *Player) {
	l.queues[player] = append(l.queues[player], t)
}

func (l *transitionLog) get(player *Player) []Transition {
	return l.queues[player]
}

func (l *transitionLog) flush() {
	l.queues = make(map[*Player][]Transition)
}
