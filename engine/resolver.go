package engine

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/nathoo/arena/engine/events"
	"github.com/nathoo/arena/engine/state"
)

// Stats counts what the resolver has done so far.
type Stats struct {
	Resolved  int64
	Discarded int64
	Kills     int64
}

// Resolver is the single consumer of the fight queue. Events are taken
// strictly in FIFO order and each one is validated, rolled and notified
// before the next is looked at.
type Resolver struct {
	reg   *state.Registry
	queue *events.Queue
	bus   *events.Bus
	dice  Dice
	log   *zap.Logger
	batch int

	resolved  atomic.Int64
	discarded atomic.Int64
	kills     atomic.Int64
}

// NewResolver creates a resolver taking up to batch events per Step.
func NewResolver(reg *state.Registry, queue *events.Queue, bus *events.Bus, dice Dice, batch int, log *zap.Logger) *Resolver {
	if batch < 1 {
		batch = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{reg: reg, queue: queue, bus: bus, dice: dice, batch: batch, log: log}
}

// Step drains up to the batch size and returns how many events it took.
func (r *Resolver) Step() int {
	n := 0
	for n < r.batch {
		ev, ok := r.queue.Pop()
		if !ok {
			break
		}
		r.Process(ev)
		n++
	}
	return n
}

// Process takes one event through Validated, Resolved and Notified, or
// drops it as Discarded. Events referring to entities no longer in the
// registry are discarded like any other stale event.
func (r *Resolver) Process(ev events.FightEvent) events.Stage {
	if !r.registered(ev.Attacker) || !r.registered(ev.Defender) {
		r.discarded.Add(1)
		return events.Discarded
	}

	outcome, stage := Resolve(ev, r.dice)
	if stage == events.Discarded {
		r.discarded.Add(1)
		return stage
	}

	r.resolved.Add(1)
	if outcome.Win {
		r.kills.Add(1)
	}
	r.bus.Notify(outcome)
	return events.Notified
}

func (r *Resolver) registered(n *state.NPC) bool {
	if n == nil {
		return false
	}
	got, ok := r.reg.Get(n.ID())
	return ok && got == n
}

// Stats returns the counters.
func (r *Resolver) Stats() Stats {
	return Stats{
		Resolved:  r.resolved.Load(),
		Discarded: r.discarded.Load(),
		Kills:     r.kills.Load(),
	}
}
