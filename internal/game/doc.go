// Package game implements the state model shared by every deckr game.
//
// All state lives in entities: the Game itself, its Players, their Zones and
// any domain objects (cards, tokens, tiles) a concrete game creates. An
// entity becomes addressable once registered with a Game, which assigns it a
// stable integer id that is never reused.
//
// # Attributes and visibility
//
// Entities carry named attributes. A global value is visible to everyone; an
// override set with SetAttributeFor is only visible to one player and wins
// over the global value for that player:
//
//	card.SetAttribute("face_up", false)
//	card.SetAttributeFor(alice, "face_up", true)
//
// # Transitions
//
// Every change to a registered entity is queued as a Transition for the
// players allowed to see it. The server drains the queues after each action
// and sends one update per transition:
//
//	for _, pt := range g.AllTransitions() {
//	    for _, t := range pt.Transitions {
//	        send(pt.Player, t.Wire())
//	    }
//	}
//	g.FlushAll()
//
// # Actions
//
// Concrete games register named actions with ordered restrictions. Do checks
// the restrictions against the supplied arguments before running the body,
// so a rejected action never changes state.
package game
