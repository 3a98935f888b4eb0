// Package types defines the shared data structures for the arena
// simulation: the closed set of creature kinds and plain value snapshots.
package types

import "fmt"

// Kind identifies a creature kind. The integer value is the type tag
// used by the persistence format.
type Kind int

const (
	Unknown Kind = 0
	Dragon  Kind = 1
	Elf     Kind = 2
	Knight  Kind = 3
)

// Kinds lists every valid kind in tag order.
var Kinds = []Kind{Dragon, Elf, Knight}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k >= Dragon && k <= Knight
}

func (k Kind) String() string {
	switch k {
	case Dragon:
		return "dragon"
	case Elf:
		return "elf"
	case Knight:
		return "knight"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a lowercase kind name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for _, k := range Kinds {
		if k.String() == name {
			return k, true
		}
	}
	return Unknown, false
}

// Point is an integer world coordinate.
type Point struct {
	X, Y int
}

// Snapshot is a consistent copy of one entity's state, taken under
// the entity's lock.
type Snapshot struct {
	ID    int
	Kind  Kind
	X, Y  int
	Alive bool
}
