// Package events carries fight attempts from producers to the resolver
// and fight outcomes from the resolver to observers.
package events

import "github.com/nathoo/arena/engine/state"

// FightEvent is a queued attack attempt. It has no identity of its own
// and is consumed exactly once.
type FightEvent struct {
	Attacker *state.NPC
	Defender *state.NPC
}

// Outcome is the result of a resolved fight.
type Outcome struct {
	Attacker    *state.NPC
	AttackRoll  int
	Defender    *state.NPC
	DefenseRoll int
	Win         bool
}

// Stage is the furthest point an event reached in the resolver.
type Stage int

const (
	Queued Stage = iota
	Validated
	Resolved
	Notified
	Discarded
)

func (s Stage) String() string {
	switch s {
	case Queued:
		return "queued"
	case Validated:
		return "validated"
	case Resolved:
		return "resolved"
	case Notified:
		return "notified"
	case Discarded:
		return "discarded"
	default:
		return "stage(?)"
	}
}
