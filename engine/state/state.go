// Package state holds the live simulation state: entities, the registry
// that owns them, the factory that builds them, and the immutable
// scenario definitions produced by the loader.
package state

import "github.com/nathoo/arena/types"

// World overrides the configured world. Zero fields mean "not set".
type World struct {
	Width  int
	Height int
	Seed   int64
}

// Spawn places one entity at a fixed position.
type Spawn struct {
	Kind types.Kind
	X, Y int
}

// Horde spawns Count entities at random positions, picking each kind by
// weight. A nil Weights map picks kinds uniformly.
type Horde struct {
	Count   int
	Weights map[types.Kind]int
}

// WeightList returns the weights in types.Kinds order.
func (h Horde) WeightList() []int {
	out := make([]int, len(types.Kinds))
	for i, k := range types.Kinds {
		if h.Weights == nil {
			out[i] = 1
			continue
		}
		out[i] = h.Weights[k]
	}
	return out
}

// Scenario is the compiled result of a scenario script.
type Scenario struct {
	Name   string
	World  World
	Spawns []Spawn
	Hordes []Horde
}
