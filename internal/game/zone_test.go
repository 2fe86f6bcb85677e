package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// token is a test entity compared by label.
type token struct {
	*Object
	label string
}

func newToken(label string) *token {
	return &token{Object: NewObject("Token"), label: label}
}

func (tk *token) Equal(other Entity) bool {
	o, ok := other.(*token)
	return ok && o.label == tk.label
}

func newZoneGame(t *testing.T) (*Game, *Player) {
	t.Helper()
	g := New(Config{GameZones: []ZoneSpec{{Name: "a"}, {Name: "b"}}})
	p, err := g.AddPlayer()
	require.NoError(t, err)
	return g, p
}

func registerObjects(g *Game, n int) []Entity {
	out := make([]Entity, n)
	for i := range out {
		out[i] = NewObject(KindObject)
		g.Register(out[i])
	}
	return out
}

func kinds(ts []Transition) []TransitionKind {
	out := make([]TransitionKind, len(ts))
	for i, t := range ts {
		out[i] = t.Kind
	}
	return out
}

func TestZone_PushPopReverseOrder(t *testing.T) {
	t.Parallel()
	g, _ := newZoneGame(t)
	zone := g.Zone("a")
	objs := registerObjects(g, 5)

	for _, o := range objs {
		zone.Push(o)
	}
	for i := len(objs) - 1; i >= 0; i-- {
		got, ok := zone.Pop()
		require.True(t, ok)
		assert.Same(t, objs[i], got)
	}

	got, ok := zone.Pop()
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestZone_PushPopTransitions(t *testing.T) {
	t.Parallel()
	g, p := newZoneGame(t)
	zone := g.Zone("a")
	obj := registerObjects(g, 1)[0]

	zone.Push(obj)
	zone.Pop()
	zone.Pop()

	ts := g.Transitions(p)
	require.Len(t, ts, 2)
	assert.Equal(t, Transition{Kind: TransitionAdd, Subject: zone, Value: obj}, ts[0])
	assert.Equal(t, Transition{Kind: TransitionRemove, Subject: zone, Value: obj}, ts[1])
}

func TestZone_Transfer(t *testing.T) {
	t.Parallel()
	g, p := newZoneGame(t)
	a, b := g.Zone("a"), g.Zone("b")
	objs := registerObjects(g, 3)
	a.Set(objs)
	g.FlushAll()

	a.Transfer(b)

	assert.Equal(t, 0, a.Len())
	assert.Equal(t, objs, b.Items())

	ts := g.Transitions(p)
	require.Len(t, ts, 6)
	assert.Equal(t, []TransitionKind{
		TransitionAdd, TransitionAdd, TransitionAdd,
		TransitionRemove, TransitionRemove, TransitionRemove,
	}, kinds(ts))
	for i := 0; i < 3; i++ {
		assert.Same(t, b, ts[i].Subject)
		assert.Same(t, objs[i], ts[i].Value)
		assert.Same(t, a, ts[3+i].Subject)
		assert.Same(t, objs[2-i], ts[3+i].Value)
	}
}

func TestZone_SetEmitsPerElement(t *testing.T) {
	t.Parallel()
	g, p := newZoneGame(t)
	zone := g.Zone("a")
	objs := registerObjects(g, 4)
	zone.Set(objs[:2])
	g.FlushAll()

	zone.Set(objs[2:])

	assert.Equal(t, objs[2:], zone.Items())
	assert.Equal(t, []TransitionKind{
		TransitionRemove, TransitionRemove, TransitionAdd, TransitionAdd,
	}, kinds(g.Transitions(p)))
}

func TestZone_RemoveByValue(t *testing.T) {
	t.Parallel()
	g, p := newZoneGame(t)
	zone := g.Zone("a")
	first := newToken("ace")
	second := newToken("king")
	g.RegisterAll(first, second)
	zone.Push(first)
	zone.Push(second)
	g.FlushAll()

	zone.Remove(newToken("ace"))

	require.Equal(t, 1, zone.Len())
	assert.Same(t, second, zone.At(0))
	ts := g.Transitions(p)
	require.Len(t, ts, 1)
	assert.Same(t, first, ts[0].Value)

	zone.Remove(newToken("queen"))
	assert.Equal(t, 1, zone.Len())
	assert.Len(t, g.Transitions(p), 1)
}

func TestZone_ReadOnlyAccess(t *testing.T) {
	t.Parallel()
	g, p := newZoneGame(t)
	zone := g.Zone("a")
	objs := registerObjects(g, 3)
	zone.Set(objs)
	g.FlushAll()

	assert.Equal(t, 3, zone.Len())
	assert.Same(t, objs[2], zone.At(-1))
	assert.Equal(t, objs[1:], zone.Slice(1, 3))
	assert.True(t, zone.Contains(objs[0]))
	assert.False(t, zone.Contains(NewObject(KindObject)))

	var seen []Entity
	for _, e := range zone.All() {
		seen = append(seen, e)
	}
	assert.Equal(t, objs, seen)
	assert.Empty(t, g.Transitions(p))
}

func TestZone_UnregisteredIsSilent(t *testing.T) {
	t.Parallel()
	g, p := newZoneGame(t)
	zone := NewZone()
	obj := registerObjects(g, 1)[0]

	zone.Push(obj)
	zone.Clear()

	assert.Equal(t, 0, zone.Len())
	assert.Empty(t, g.Transitions(p))
}

func TestZone_Serialize(t *testing.T) {
	t.Parallel()
	g, _ := newZoneGame(t)
	zone := g.Zone("a")
	zoneID, _ := zone.ID()
	gameID, _ := g.ID()
	objs := registerObjects(g, 2)
	zone.Set(objs)
	id0, _ := objs[0].ID()
	id1, _ := objs[1].ID()

	assert.Equal(t, map[string]any{
		"game_id": zoneID,
		"type":    "Zone",
		"name":    "a",
		"owner":   gameID,
		"objects": []any{id0, id1},
	}, zone.Serialize(nil))
}

func TestZoneSpec_Multiplicity(t *testing.T) {
	t.Parallel()
	g := New(Config{PlayerZones: []ZoneSpec{
		{Name: "pile", Multiplicity: 2},
		{Name: "hand", Attributes: map[string]any{"hidden": true}},
	}})
	p, err := g.AddPlayer()
	require.NoError(t, err)

	require.Len(t, p.Zones(), 3)
	for _, name := range []string{"pile0", "pile1", "hand"} {
		zone := p.Zone(name)
		require.NotNil(t, zone, name)
		_, registered := zone.ID()
		assert.True(t, registered)

		got, err := zone.Attribute("name")
		require.NoError(t, err)
		assert.Equal(t, name, got)

		owner, err := zone.Attribute("owner")
		require.NoError(t, err)
		assert.Same(t, p, owner)
	}
	hidden, err := p.Zone("hand").Attribute("hidden")
	require.NoError(t, err)
	assert.Equal(t, true, hidden)
	assert.Nil(t, p.Zone("pile"))
}
