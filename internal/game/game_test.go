package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Idempotent(t *testing.T) {
	t.Parallel()
	g := New(Config{})
	obj := NewObject(KindObject)

	first := g.Register(obj)
	second := g.Register(obj)
	assert.Equal(t, first, second)

	id, ok := obj.ID()
	assert.True(t, ok)
	assert.Equal(t, first, id)
}

func TestRegister_NeverReusesIDs(t *testing.T) {
	t.Parallel()
	g := New(Config{})
	obj := NewObject(KindObject)

	first := g.Register(obj)
	g.Deregister(obj)
	_, ok := obj.ID()
	assert.False(t, ok)

	second := g.Register(obj)
	assert.Greater(t, second, first)

	_, err := g.Lookup(first, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeregister_NotRegisteredIsNoop(t *testing.T) {
	t.Parallel()
	g := New(Config{})
	g.Deregister(NewObject(KindObject))
	g.DeregisterAll(NewObject(KindObject), NewObject(KindObject))
	assert.Len(t, g.Entities(), 1)
}

func TestDeregister_IgnoresOtherGamesEntities(t *testing.T) {
	t.Parallel()
	g := New(Config{})
	other := New(Config{})
	mine := NewObject(KindObject)
	theirs := NewObject(KindObject)
	id := g.Register(mine)
	require.Equal(t, id, other.Register(theirs))

	g.Deregister(theirs)

	got, err := g.Lookup(id, KindObject)
	require.NoError(t, err)
	assert.Same(t, mine, got)
	_, ok := theirs.ID()
	assert.True(t, ok, "still registered with its own game")
}

func TestDeregister_LeavesZonesAlone(t *testing.T) {
	t.Parallel()
	g := New(Config{GameZones: []ZoneSpec{{Name: "deck"}}})
	p, err := g.AddPlayer()
	require.NoError(t, err)
	obj := NewObject(KindObject)
	g.Register(obj)
	g.Zone("deck").Push(obj)
	g.FlushAll()

	g.Deregister(obj)
	obj.SetAttribute("foo", "bar")

	assert.True(t, g.Zone("deck").Contains(obj))
	assert.Empty(t, g.Transitions(p))
	assert.Equal(t, []any{nil}, g.Zone("deck").Serialize(nil)["objects"])
}

func TestLookup(t *testing.T) {
	t.Parallel()
	g := New(Config{PlayerZones: []ZoneSpec{{Name: "hand"}}})
	p, err := g.AddPlayer()
	require.NoError(t, err)
	playerID, _ := p.ID()
	handID, _ := p.Zone("hand").ID()

	got, err := g.Lookup(playerID, KindPlayer)
	require.NoError(t, err)
	assert.Same(t, p, got)

	got, err = g.Lookup(handID, KindObject)
	require.NoError(t, err)
	assert.Same(t, p.Zone("hand"), got)

	_, err = g.Lookup(handID, KindPlayer)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = g.Lookup(999, "")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := g.LookupAll([]int{playerID, handID}, "")
	require.NoError(t, err)
	assert.Equal(t, []Entity{p, p.Zone("hand")}, all)

	_, err = g.LookupAll([]int{playerID, handID}, KindPlayer)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	player, err := LookupAs[*Player](g, playerID)
	require.NoError(t, err)
	assert.Same(t, p, player)

	_, err = LookupAs[*Zone](g, playerID)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestAddPlayer_Cap(t *testing.T) {
	t.Parallel()
	g := New(Config{MaxPlayers: 1})

	_, err := g.AddPlayer()
	require.NoError(t, err)

	_, err = g.AddPlayer()
	assert.ErrorIs(t, err, ErrTooManyPlayers)
	assert.Len(t, g.Players(), 1)
}

func TestAddTransition_SnapshotsPlayers(t *testing.T) {
	t.Parallel()
	g := New(Config{})
	alice, err := g.AddPlayer()
	require.NoError(t, err)

	early := Transition{Kind: TransitionSet, Subject: g, Field: "round", Value: 1}
	g.AddTransition(early, nil)

	bob, err := g.AddPlayer()
	require.NoError(t, err)

	late := Transition{Kind: TransitionSet, Subject: g, Field: "round", Value: 2}
	g.AddTransition(late, nil)
	g.AddTransition(late, bob)

	assert.Equal(t, []Transition{early, late}, g.Transitions(alice))
	assert.Equal(t, []Transition{late, late}, g.Transitions(bob))

	all := g.AllTransitions()
	require.Len(t, all, 2)
	assert.Same(t, alice, all[0].Player)
	assert.Same(t, bob, all[1].Player)

	g.FlushAll()
	for _, pt := range g.AllTransitions() {
		assert.Empty(t, pt.Transitions)
	}
}

func TestState_RegistrationOrderAndVisibility(t *testing.T) {
	t.Parallel()
	g := New(Config{GameZones: []ZoneSpec{{Name: "deck"}}})
	p, err := g.AddPlayer()
	require.NoError(t, err)
	obj := NewObject(KindObject)
	g.Register(obj)
	obj.SetAttributeFor(p, "face_up", true)
	obj.SetAttribute("face_up", false)

	public := g.State(nil)
	require.Len(t, public, 4)
	for i, entry := range public {
		assert.Equal(t, i, entry["game_id"])
	}
	assert.Equal(t, "Game", public[0]["type"])
	assert.Equal(t, "Zone", public[1]["type"])
	assert.Equal(t, "Player", public[2]["type"])
	assert.Equal(t, false, public[3]["face_up"])

	assert.Equal(t, true, g.State(p)[3]["face_up"])
}

func TestSetUp(t *testing.T) {
	t.Parallel()
	g := New(Config{})
	assert.ErrorIs(t, g.SetUp(), ErrNoSetUp)

	calls := 0
	g.OnSetUp(func() error {
		calls++
		return nil
	})
	require.NoError(t, g.SetUp())
	assert.Equal(t, 1, calls)
}

func TestConfig_WithZones(t *testing.T) {
	t.Parallel()
	base := Config{GameZones: []ZoneSpec{{Name: "deck", Attributes: map[string]any{"hidden": true}}}}

	cfg := base.WithGameZone(ZoneSpec{Name: "deck"}).
		WithGameZone(ZoneSpec{Name: "discard"}).
		WithPlayerZone(ZoneSpec{Name: "hand"})

	require.Len(t, cfg.GameZones, 2)
	assert.Equal(t, true, cfg.GameZones[0].Attributes["hidden"])
	assert.Len(t, base.GameZones, 1)

	g := New(cfg)
	p, err := g.AddPlayer()
	require.NoError(t, err)
	assert.NotNil(t, g.Zone("discard"))
	assert.NotNil(t, p.Zone("hand"))
}
