package state

import (
	"sync"

	"github.com/nathoo/arena/types"
)

// Observer receives the outcome of every resolved fight an entity takes
// part in. Implementations are called on the resolver goroutine and
// should return quickly.
type Observer interface {
	OnFight(attacker *NPC, attackRoll int, defender *NPC, defenseRoll int, win bool)
}

// NPC is a single simulated creature. Kind never changes; position and
// the alive flag are guarded together by mu so readers always see a
// consistent triple.
type NPC struct {
	id   int
	kind types.Kind

	mu        sync.Mutex
	x, y      int
	alive     bool
	observers []Observer
}

// NewNPC returns a live, unregistered entity. Prefer Factory.Make, which
// validates the kind and wires observers.
func NewNPC(kind types.Kind, x, y int) *NPC {
	return &NPC{id: -1, kind: kind, x: x, y: y, alive: true}
}

// ID returns the registry handle, or -1 when the entity is not registered.
func (n *NPC) ID() int { return n.id }

// Kind returns the creature kind.
func (n *NPC) Kind() types.Kind { return n.kind }

// Position returns the current coordinates.
func (n *NPC) Position() (x, y int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.x, n.y
}

// Alive reports whether the entity is still alive.
func (n *NPC) Alive() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.alive
}

// Kill marks the entity dead. Killing a dead entity is a no-op; the
// return value reports whether this call made the transition.
func (n *NPC) Kill() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.alive {
		return false
	}
	n.alive = false
	return true
}

// Move displaces the entity by (dx, dy) and clamps the result into
// [0, maxX) x [0, maxY).
func (n *NPC) Move(dx, dy, maxX, maxY int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.x = clamp(n.x+dx, 0, maxX-1)
	n.y = clamp(n.y+dy, 0, maxY-1)
}

// Snapshot copies the entity's state under its lock.
func (n *NPC) Snapshot() types.Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	return types.Snapshot{ID: n.id, Kind: n.kind, X: n.x, Y: n.y, Alive: n.alive}
}

// Subscribe registers an observer for fights involving this entity.
// The entity references the observer but does not own it.
func (n *NPC) Subscribe(o Observer) {
	if o == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = append(n.observers, o)
}

// Observers returns a copy of the subscribed observers.
func (n *NPC) Observers() []Observer {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Observer, len(n.observers))
	copy(out, n.observers)
	return out
}

// IsClose reports whether other lies within radius (Euclidean, inclusive).
// The two locks are taken one after the other, never nested.
func (n *NPC) IsClose(other *NPC, radius int) bool {
	ax, ay := n.Position()
	bx, by := other.Position()
	return WithinRadius(ax, ay, bx, by, radius)
}

// WithinRadius reports whether the distance between two points is at
// most radius.
func WithinRadius(ax, ay, bx, by, radius int) bool {
	dx := ax - bx
	dy := ay - by
	return dx*dx+dy*dy <= radius*radius
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
