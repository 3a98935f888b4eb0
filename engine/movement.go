package engine

import (
	"github.com/nathoo/arena/engine/events"
	"github.com/nathoo/arena/engine/rules"
	"github.com/nathoo/arena/engine/state"
)

// Mover advances the world by one movement tick: every live entity takes
// a bounded random step, then every ordered pair of live entities within
// the attacker's kill radius produces a fight event.
type Mover struct {
	reg   *state.Registry
	queue *events.Queue
	rng   *RNG
}

// NewMover creates a mover that owns rng.
func NewMover(reg *state.Registry, queue *events.Queue, rng *RNG) *Mover {
	return &Mover{reg: reg, queue: queue, rng: rng}
}

// Step runs one tick and returns the number of events enqueued.
func (m *Mover) Step() int {
	enqueued := 0
	m.reg.View(func(npcs []*state.NPC) {
		m.displace(npcs)
		enqueued = m.detect(npcs)
	})
	return enqueued
}

// Detect runs proximity detection only and returns the number of events
// enqueued.
func (m *Mover) Detect() int {
	enqueued := 0
	m.reg.View(func(npcs []*state.NPC) {
		enqueued = m.detect(npcs)
	})
	return enqueued
}

func (m *Mover) displace(npcs []*state.NPC) {
	maxX, maxY := m.reg.Bounds()
	for _, n := range npcs {
		if !n.Alive() {
			continue
		}
		r := rules.TraitsOf(n.Kind()).MoveRange
		dx := m.rng.Between(-r, r)
		dy := m.rng.Between(-r, r)
		n.Move(dx, dy, maxX, maxY)
	}
}

func (m *Mover) detect(npcs []*state.NPC) int {
	enqueued := 0
	for _, a := range npcs {
		if !a.Alive() {
			continue
		}
		radius := rules.TraitsOf(a.Kind()).KillRadius
		for _, b := range npcs {
			if a == b || !a.Alive() || !b.Alive() {
				continue
			}
			if a.IsClose(b, radius) {
				m.queue.Push(events.FightEvent{Attacker: a, Defender: b})
				enqueued++
			}
		}
	}
	return enqueued
}
