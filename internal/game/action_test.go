package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_FailedRestrictionStopsEverything(t *testing.T) {
	t.Parallel()
	g, players := newTestGame(t, 1)
	obj := NewObject(KindObject)
	g.Register(obj)

	var evaluated []string
	ran := 0
	g.HandleAction(Action{
		Name: "poke",
		Restrictions: []Restriction{
			Restrict("first", func(*Player, Args) bool {
				evaluated = append(evaluated, "first")
				return false
			}),
			Restrict("second", func(*Player, Args) bool {
				evaluated = append(evaluated, "second")
				return true
			}),
		},
		Run: func(*Player, Args) error {
			ran++
			obj.SetAttribute("poked", true)
			return nil
		},
	})

	err := g.Do("poke", players[0], Args{"x": 1})
	require.ErrorIs(t, err, ErrRestrictionFailed)

	var resErr *RestrictionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "first", resErr.Description)
	assert.Equal(t, "first", err.Error())
	assert.Equal(t, []string{"first"}, evaluated)
	assert.Zero(t, ran)
	assert.Empty(t, g.Transitions(players[0]))
}

func TestDo_RunsBodyOnceWhenRestrictionsPass(t *testing.T) {
	t.Parallel()
	g, players := newTestGame(t, 1)

	var seen Args
	ran := 0
	g.HandleAction(Action{
		Name: "count",
		Restrictions: []Restriction{
			Restrict("needs n", func(_ *Player, args Args) bool {
				_, ok := args["n"]
				return ok
			}),
			Restrict("player only", func(p *Player, _ Args) bool { return p != nil }),
		},
		Run: func(_ *Player, args Args) error {
			ran++
			seen = args
			return nil
		},
	})

	require.NoError(t, g.Do("count", players[0], Args{"n": 2.0}))
	assert.Equal(t, 1, ran)
	assert.Equal(t, Args{"n": 2.0}, seen)

	err := g.Do("count", nil, Args{"n": 2.0})
	assert.ErrorIs(t, err, ErrRestrictionFailed)
	assert.Equal(t, 1, ran)
}

func TestDo_UnknownAction(t *testing.T) {
	t.Parallel()
	g := New(Config{})
	err := g.Do("nope", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestActionRegistry(t *testing.T) {
	t.Parallel()
	g := New(Config{})
	g.HandleAction(Action{Name: "b", Run: func(*Player, Args) error { return nil }})
	g.HandleAction(Action{Name: "a", Params: map[string]Kind{"target": KindZone}, Run: func(*Player, Args) error { return nil }})

	assert.Equal(t, []string{"a", "b"}, g.ActionNames())

	a, ok := g.Action("a")
	require.True(t, ok)
	assert.Equal(t, KindZone, a.Params["target"])

	b, ok := g.Action("b")
	require.True(t, ok)
	assert.NotNil(t, b.Params)
}

func TestArg(t *testing.T) {
	t.Parallel()
	args := Args{"n": 3.0, "name": "x"}

	n, err := Arg[float64](args, "n")
	require.NoError(t, err)
	assert.Equal(t, 3.0, n)

	_, err = Arg[string](args, "n")
	assert.Error(t, err)

	_, err = Arg[string](args, "missing")
	assert.Error(t, err)
}
