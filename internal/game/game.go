package game

import (
	"fmt"
	"maps"
	"slices"
)

// Config describes the shape of a game: its player cap and the zones created
// for the game itself and for every player that joins.
type Config struct {
	// MaxPlayers caps the number of seats. Zero means unlimited.
	MaxPlayers  int
	GameZones   []ZoneSpec
	PlayerZones []ZoneSpec
}

// WithGameZone returns a copy of c that also creates spec on the game,
// unless a game zone with that name is already configured.
func (c Config) WithGameZone(spec ZoneSpec) Config {
	c.GameZones = withZone(c.GameZones, spec)
	return c
}

// WithPlayerZone returns a copy of c that also creates spec on every player,
// unless a player zone with that name is already configured.
func (c Config) WithPlayerZone(spec ZoneSpec) Config {
	c.PlayerZones = withZone(c.PlayerZones, spec)
	return c
}

func withZone(specs []ZoneSpec, spec ZoneSpec) []ZoneSpec {
	if slices.ContainsFunc(specs, func(s ZoneSpec) bool { return s.Name == spec.Name }) {
		return specs
	}
	return append(slices.Clone(specs), spec)
}

// Game is one running match. It owns the entity registry, the players in
// join order, the transition log and the actions clients may invoke.
//
// A Game is not safe for concurrent use; callers serialize access to it.
type Game struct {
	*Object
	zoneSet

	objects map[int]Entity
	nextID  int

	players     []*Player
	maxPlayers  int
	playerZones []ZoneSpec

	log     transitionLog
	actions actionRegistry
	setUp   func() error
}

// New creates a game, registers it as its own first entity and creates its
// game zones.
func New(cfg Config) *Game {
	g := &Game{
		Object:      NewObject(KindGame),
		objects:     make(map[int]Entity),
		maxPlayers:  cfg.MaxPlayers,
		playerZones: slices.Clone(cfg.PlayerZones),
		log:         newTransitionLog(),
	}
	g.Register(g)
	for _, zone := range g.loadZones(cfg.GameZones) {
		g.Register(zone)
		zone.SetAttribute("owner", g)
	}
	return g
}

// MaxPlayers returns the seat cap, zero when unlimited.
func (g *Game) MaxPlayers() int {
	return g.maxPlayers
}

// Register assigns e the next id and makes it addressable. Registering an
// already registered entity returns its existing id.
func (g *Game) Register(e Entity) int {
	obj := e.object()
	if obj.registered {
		return obj.id
	}
	id := g.nextID
	g.nextID++
	g.objects[id] = e
	obj.id = id
	obj.registered = true
	obj.owner = g
	obj.self = e
	return id
}

// RegisterAll registers every entity and returns their ids in order.
func (g *Game) RegisterAll(es ...Entity) []int {
	ids := make([]int, len(es))
	for i, e := range es {
		ids[i] = g.Register(e)
	}
	return ids
}

// Deregister removes e from the registry and clears its id. Entities that
// are not registered with g are skipped. Zones still holding e are left
// untouched; e stays there inert, serialized as null and emitting no
// transitions.
func (g *Game) Deregister(e Entity) {
	obj := e.object()
	if !obj.registered || obj.owner != transitionSink(g) {
		return
	}
	delete(g.objects, obj.id)
	obj.registered = false
	obj.id = 0
}

// DeregisterAll deregisters every entity.
func (g *Game) DeregisterAll(es ...Entity) {
	for _, e := range es {
		g.Deregister(e)
	}
}

// Lookup returns the entity registered under id. When kind is not empty the
// entity must be of that kind; KindObject matches every entity.
func (g *Game) Lookup(id int, kind Kind) (Entity, error) {
	e, ok := g.objects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if !matchesKind(e, kind) {
		return nil, typeMismatch(id, kind, e.Kind())
	}
	return e, nil
}

// LookupAll resolves every id, failing on the first unknown or mismatched
// one.
func (g *Game) LookupAll(ids []int, kind Kind) ([]Entity, error) {
	out := make([]Entity, len(ids))
	for i, id := range ids {
		e, err := g.Lookup(id, kind)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// LookupAs resolves id to an entity of concrete type T.
func LookupAs[T Entity](g *Game, id int) (T, error) {
	var zero T
	e, err := g.Lookup(id, "")
	if err != nil {
		return zero, err
	}
	t, ok := e.(T)
	if !ok {
		return zero, fmt.Errorf("%w: id %d is a %T, want %T", ErrTypeMismatch, id, e, zero)
	}
	return t, nil
}

func matchesKind(e Entity, kind Kind) bool {
	return kind == "" || kind == KindObject || e.Kind() == kind
}

// Entities returns every registered entity in registration order.
func (g *Game) Entities() []Entity {
	ids := slices.Sorted(maps.Keys(g.objects))
	out := make([]Entity, len(ids))
	for i, id := range ids {
		out[i] = g.objects[id]
	}
	return out
}

// State serializes every registered entity as seen by viewer. A nil viewer
// only sees public attributes.
func (g *Game) State(viewer *Player) []map[string]any {
	entities := g.Entities()
	out := make([]map[string]any, len(entities))
	for i, e := range entities {
		out[i] = e.Serialize(viewer)
	}
	return out
}

// Players returns the players in join order.
func (g *Game) Players() []*Player {
	return slices.Clone(g.players)
}

// AddPlayer seats a new player, registers it with its zones and appends it to
// the join order.
func (g *Game) AddPlayer() (*Player, error) {
	if g.maxPlayers > 0 && len(g.players) >= g.maxPlayers {
		return nil, ErrTooManyPlayers
	}
	player := NewPlayer()
	zones := player.loadZones(g.playerZones)
	g.Register(player)
	for _, zone := range zones {
		g.Register(zone)
	}
	for _, zone := range zones {
		zone.SetAttribute("owner", player)
	}
	g.players = append(g.players, player)
	return player, nil
}

// AddTransition queues t for player, or for every current player when
// player is nil. Players added later do not receive it.
func (g *Game) AddTransition(t Transition, player *Player) {
	if player != nil {
		g.log.add(t, player)
		return
	}
	for _, p := range g.players {
		g.log.add(t, p)
	}
}

// Transitions returns the transitions queued for player.
func (g *Game) Transitions(player *Player) []Transition {
	return g.log.get(player)
}

// AllTransitions returns every player's queue in join order.
func (g *Game) AllTransitions() []PlayerTransitions {
	out := make([]PlayerTransitions, len(g.players))
	for i, p := range g.players {
		out[i] = PlayerTransitions{Player: p, Transitions: g.log.get(p)}
	}
	return out
}

// FlushAll empties every queue.
func (g *Game) FlushAll() {
	g.log.flush()
}

// HandleAction registers an action clients may invoke by name.
func (g *Game) HandleAction(a Action) {
	g.actions.register(a)
}

// Action returns the named action.
func (g *Game) Action(name string) (*Action, bool) {
	return g.actions.lookup(name)
}

// ActionNames returns the registered action names, sorted.
func (g *Game) ActionNames() []string {
	return g.actions.names()
}

// Do invokes the named action for player. Restrictions run first, in order;
// the first one that fails aborts the call before anything changes.
func (g *Game) Do(name string, player *Player, args Args) error {
	a, ok := g.actions.lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidAction, name)
	}
	if args == nil {
		args = Args{}
	}
	return a.run(player, args)
}

// OnSetUp installs the hook run by SetUp.
func (g *Game) OnSetUp(fn func() error) {
	g.setUp = fn
}

// SetUp prepares the game for play.
func (g *Game) SetUp() error {
	if g.setUp == nil {
		return ErrNoSetUp
	}
	return g.setUp()
}
