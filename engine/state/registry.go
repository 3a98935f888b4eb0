package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nathoo/arena/types"
)

var (
	// ErrDuplicate is returned when inserting an entity that is already
	// owned by a registry.
	ErrDuplicate = errors.New("entity already registered")

	// ErrOutOfBounds is returned when an entity lies outside the world.
	ErrOutOfBounds = errors.New("position out of world bounds")
)

// Registry owns every entity for the run. Handles are indices into a
// stable slice. Membership only changes through Insert and Replace
// (write side); workers use View (read side) while only per-entity
// fields change.
type Registry struct {
	mu     sync.RWMutex
	width  int
	height int
	npcs   []*NPC
}

// NewRegistry creates an empty registry for a width x height world.
func NewRegistry(width, height int) *Registry {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("state: invalid world size %dx%d", width, height))
	}
	return &Registry{width: width, height: height}
}

// Bounds returns the world size.
func (r *Registry) Bounds() (width, height int) {
	return r.width, r.height
}

// InBounds reports whether (x, y) lies inside the world.
func (r *Registry) InBounds(x, y int) bool {
	return x >= 0 && x < r.width && y >= 0 && y < r.height
}

// Insert adds n and assigns its handle.
func (r *Registry) Insert(n *NPC) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(n)
}

func (r *Registry) insertLocked(n *NPC) error {
	if n.id >= 0 {
		return fmt.Errorf("insert %s #%d: %w", n.kind, n.id, ErrDuplicate)
	}
	x, y := n.Position()
	if !r.InBounds(x, y) {
		return fmt.Errorf("insert %s at (%d,%d): %w", n.kind, x, y, ErrOutOfBounds)
	}
	n.id = len(r.npcs)
	r.npcs = append(r.npcs, n)
	return nil
}

// Replace swaps the whole membership set, as after loading a roster.
// On error the registry is left unchanged.
func (r *Registry) Replace(npcs []*NPC) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.npcs
	for _, n := range old {
		n.id = -1
	}
	r.npcs = nil
	for _, n := range npcs {
		if err := r.insertLocked(n); err != nil {
			for _, added := range r.npcs {
				added.id = -1
			}
			for i, n := range old {
				n.id = i
			}
			r.npcs = old
			return err
		}
	}
	return nil
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.npcs)
}

// Get returns the entity with the given handle.
func (r *Registry) Get(id int) (*NPC, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id < 0 || id >= len(r.npcs) {
		return nil, false
	}
	return r.npcs[id], true
}

// View runs fn with the read lock held. fn must not retain or modify
// the slice, and must not call back into the registry's write side.
func (r *Registry) View(fn func(npcs []*NPC)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn(r.npcs)
}

// List returns a copy of the membership set in handle order.
func (r *Registry) List() []*NPC {
	var out []*NPC
	r.View(func(npcs []*NPC) {
		out = make([]*NPC, len(npcs))
		copy(out, npcs)
	})
	return out
}

// Snapshot copies every entity's state.
func (r *Registry) Snapshot() []types.Snapshot {
	var out []types.Snapshot
	r.View(func(npcs []*NPC) {
		out = make([]types.Snapshot, 0, len(npcs))
		for _, n := range npcs {
			out = append(out, n.Snapshot())
		}
	})
	return out
}

// Survivors returns the entities still alive, in handle order.
func (r *Registry) Survivors() []*NPC {
	var out []*NPC
	r.View(func(npcs []*NPC) {
		for _, n := range npcs {
			if n.Alive() {
				out = append(out, n)
			}
		}
	})
	return out
}

// CountAlive returns the number of live entities per kind.
func (r *Registry) CountAlive() map[types.Kind]int {
	counts := map[types.Kind]int{}
	r.View(func(npcs []*NPC) {
		for _, n := range npcs {
			if n.Alive() {
				counts[n.kind]++
			}
		}
	})
	return counts
}
