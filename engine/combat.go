package engine

import (
	"github.com/nathoo/arena/engine/events"
	"github.com/nathoo/arena/engine/rules"
)

// DieSides is the size of both the attack and the defense die.
const DieSides = 6

// Validate reports whether ev may be resolved: both sides present,
// distinct, alive, and the pairing legal.
func Validate(ev events.FightEvent) bool {
	a, d := ev.Attacker, ev.Defender
	if a == nil || d == nil || a == d {
		return false
	}
	if !a.Alive() || !d.Alive() {
		return false
	}
	return rules.MayFight(d.Kind(), a.Kind())
}

// Resolve validates ev, rolls one attack die and one defense die, and
// kills the defender when the attack roll is strictly higher. A tie goes
// to the defender. Invalid events come back Discarded with a zero Outcome.
func Resolve(ev events.FightEvent, dice Dice) (events.Outcome, events.Stage) {
	if !Validate(ev) {
		return events.Outcome{}, events.Discarded
	}

	attackRoll := dice.Roll(DieSides)
	defenseRoll := dice.Roll(DieSides)
	win := attackRoll > defenseRoll
	if win {
		ev.Defender.Kill()
	}

	return events.Outcome{
		Attacker:    ev.Attacker,
		AttackRoll:  attackRoll,
		Defender:    ev.Defender,
		DefenseRoll: defenseRoll,
		Win:         win,
	}, events.Resolved
}
